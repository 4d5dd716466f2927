package sandbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

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
	if err := os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("original\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "-A")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestBeginFailsWhenAnotherSandboxActive(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	repo := vcs.New(root)

	if _, err := Begin(s, repo, "audit-1", "phaser-sandbox"); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	if _, err := Begin(s, repo, "audit-2", "phaser-sandbox"); err == nil {
		t.Fatalf("expected second Begin to fail while first is active")
	}
}

func TestRollbackRemovesCreatedFileAndRestoresModified(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	repo := vcs.New(root)

	ctx, err := Begin(s, repo, "audit-1", "phaser-sandbox")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	newPath := filepath.Join(root, "new.txt")
	if err := os.WriteFile(newPath, []byte("fresh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Track(s, ctx, newPath, TrackCreated); err != nil {
		t.Fatalf("Track created: %v", err)
	}

	trackedPath := filepath.Join(root, "tracked.txt")
	if err := os.WriteFile(trackedPath, []byte("modified\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Track(s, ctx, trackedPath, TrackModified); err != nil {
		t.Fatalf("Track modified: %v", err)
	}

	report, err := Rollback(s, repo, ctx)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if !report.Success {
		t.Fatalf("expected rollback success, got failures: %v", report.Failures)
	}

	if _, err := os.Stat(newPath); !os.IsNotExist(err) {
		t.Fatalf("expected created file to be removed, stat err=%v", err)
	}
	data, err := os.ReadFile(trackedPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original\n" {
		t.Fatalf("expected modified file restored to original, got %q", data)
	}
}

func TestCommitDropsStashAndMarksInactive(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	repo := vcs.New(root)

	if err := os.WriteFile(filepath.Join(root, "tracked.txt"), []byte("dirty\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, err := Begin(s, repo, "audit-1", "phaser-sandbox")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if ctx.StashRef == nil {
		t.Fatalf("expected a stash to be created for a dirty tree")
	}

	if err := Commit(s, repo, ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := Load(s); err == nil {
		t.Fatalf("expected persisted context to be removed after commit")
	}
}

func TestTrackDedupsRepeatedPaths(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	repo := vcs.New(root)

	ctx, err := Begin(s, repo, "audit-1", "phaser-sandbox")
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(root, "new.txt")
	if err := os.WriteFile(p, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Track(s, ctx, p, TrackCreated); err != nil {
		t.Fatal(err)
	}
	if err := Track(s, ctx, p, TrackCreated); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Created) != 1 {
		t.Fatalf("expected dedup to keep a single entry, got %v", ctx.Created)
	}
}

func TestTrackCrossBucketDedupPrioritizesDeletedOverCreated(t *testing.T) {
	root := initRepo(t)
	s := store.New(t.TempDir())
	repo := vcs.New(root)

	ctx, err := Begin(s, repo, "audit-1", "phaser-sandbox")
	if err != nil {
		t.Fatal(err)
	}

	p := filepath.Join(root, "scratch.txt")
	rel := "scratch.txt"

	if err := os.WriteFile(p, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Track(s, ctx, p, TrackCreated); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	if err := Track(s, ctx, p, TrackDeleted); err != nil {
		t.Fatal(err)
	}

	if containsItem(ctx.Created, rel) {
		t.Fatalf("expected %q to be dropped from Created once tracked as Deleted, got %v", rel, ctx.Created)
	}
	if !containsItem(ctx.Deleted, rel) {
		t.Fatalf("expected %q in Deleted, got %v", rel, ctx.Deleted)
	}

	// A subsequent lower-priority re-track (e.g. a later Modified report
	// for the same path) must not demote it back out of Deleted.
	if err := Track(s, ctx, p, TrackModified); err != nil {
		t.Fatal(err)
	}
	if !containsItem(ctx.Deleted, rel) || containsItem(ctx.Modified, rel) {
		t.Fatalf("expected %q to remain in Deleted, got created=%v modified=%v deleted=%v", rel, ctx.Created, ctx.Modified, ctx.Deleted)
	}
}
