package orchestrator

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/phaser-dev/phaser/internal/eventlog"
	"github.com/phaser-dev/phaser/internal/model"
	"github.com/phaser-dev/phaser/internal/store"
	"github.com/phaser-dev/phaser/internal/vcs"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "-A")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestRunDirectAccumulatesPhaseResultsAndEmitsEvents(t *testing.T) {
	s := store.New(t.TempDir())
	log := eventlog.New(s)

	cfg := RunConfig{
		AuditID: "audit-1",
		Mode:    ModeDirect,
		Phases:  []int{1, 2},
		Executor: func(context.Context, int) (string, []string, error) {
			return "did work", nil, nil
		},
	}

	result, err := Run(s, log, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Phases) != 2 {
		t.Fatalf("expected 2 phase results, got %d", len(result.Phases))
	}
	for _, pr := range result.Phases {
		if !pr.Success {
			t.Fatalf("expected success, got %+v", pr)
		}
	}

	events, err := s.QueryEvents(store.EventFilter{AuditID: "audit-1"})
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected lifecycle events to be recorded")
	}
	if events[len(events)-1].Type != model.EventAuditCompleted {
		t.Fatalf("expected final event to be audit completed, got %s", events[len(events)-1].Type)
	}
}

func TestRunDirectStopsOnFailFast(t *testing.T) {
	s := store.New(t.TempDir())
	log := eventlog.New(s)

	calls := 0
	cfg := RunConfig{
		AuditID:  "audit-1",
		Mode:     ModeDirect,
		Phases:   []int{1, 2, 3},
		FailFast: true,
		Executor: func(context.Context, int) (string, []string, error) {
			calls++
			if calls == 1 {
				return "", nil, errors.New("boom")
			}
			return "", nil, nil
		},
	}

	result, err := Run(s, log, nil, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Phases) != 1 {
		t.Fatalf("expected fail-fast to stop after 1 phase, got %d", len(result.Phases))
	}
	if result.Phases[0].Success {
		t.Fatalf("expected first phase to be recorded as failed")
	}
}

func TestRunSandboxedUnconditionallyRollsBack(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	log := eventlog.New(s)
	repo := vcs.New(root)

	cfg := RunConfig{
		AuditID:            "audit-1",
		Mode:               ModeSandboxed,
		Phases:             []int{1},
		StashMessagePrefix: "phaser-sandbox",
		Executor: func(context.Context, int) (string, []string, error) {
			if err := os.WriteFile(filepath.Join(root, "scratch.txt"), []byte("x\n"), 0o644); err != nil {
				return "", nil, err
			}
			return "wrote scratch file", []string{filepath.Join(root, "scratch.txt")}, nil
		},
	}

	result, err := Run(s, log, repo, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Diff == nil {
		t.Fatalf("expected a diff summary for sandboxed mode")
	}
	if _, err := os.Stat(filepath.Join(root, "scratch.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected sandboxed changes to be rolled back")
	}
}

func TestRunBranchedCommitsEachPhaseOnItsOwnBranch(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	log := eventlog.New(s)
	repo := vcs.New(root)

	cfg := RunConfig{
		AuditID: "audit-1",
		Slug:    "my-audit",
		Mode:    ModeBranched,
		Phases:  []int{1},
		Executor: func(context.Context, int) (string, []string, error) {
			return "", nil, os.WriteFile(filepath.Join(root, "phase1.txt"), []byte("x\n"), 0o644)
		},
	}

	result, err := Run(s, log, repo, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Phases) != 1 || !result.Phases[0].Success {
		t.Fatalf("expected phase 1 to succeed, got %+v", result.Phases)
	}

	branch, err := repo.CurrentBranch()
	if err != nil {
		t.Fatal(err)
	}
	if branch != "audit/my-audit/phase-01-my-audit" {
		t.Fatalf("expected to remain on the phase branch, got %s", branch)
	}
}
