package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
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

func TestCurrentBranchReturnsBranchName(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)
	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Fatalf("expected main, got %q", branch)
	}
}

func TestHasUncommittedChangesDetectsDirtyTree(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)

	dirty, err := r.HasUncommittedChanges()
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Fatalf("expected clean tree right after commit")
	}

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirty, err = r.HasUncommittedChanges()
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Fatalf("expected dirty tree after edit")
	}
}

func TestStashAndPopRoundTrips(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ref, err := r.Stash("phaser-sandbox-test")
	if err != nil {
		t.Fatalf("Stash: %v", err)
	}
	dirty, _ := r.HasUncommittedChanges()
	if dirty {
		t.Fatalf("expected clean tree after stash")
	}
	if err := r.StashPop(ref); err != nil {
		t.Fatalf("StashPop: %v", err)
	}
	dirty, _ = r.HasUncommittedChanges()
	if !dirty {
		t.Fatalf("expected dirty tree restored after stash pop")
	}
}

func TestCreateAndCheckoutBranchFailsOnCollision(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)

	if err := r.CreateAndCheckoutBranch("feature/one", "main"); err != nil {
		t.Fatalf("CreateAndCheckoutBranch: %v", err)
	}
	if err := r.Checkout("main"); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateAndCheckoutBranch("feature/one", "main"); err == nil {
		t.Fatalf("expected collision error")
	}
}

func TestCommitAllShortCircuitsOnCleanTree(t *testing.T) {
	dir := initRepo(t)
	r := New(dir)

	if err := r.StageAll(); err != nil {
		t.Fatal(err)
	}
	hash, err := r.CommitAll("Phase 1: nothing")
	if err != nil {
		t.Fatalf("CommitAll: %v", err)
	}
	if hash != "" {
		t.Fatalf("expected empty hash for a no-op commit, got %q", hash)
	}
}

func TestZeroPad(t *testing.T) {
	if ZeroPad(1) != "01" {
		t.Fatalf("expected 01, got %s", ZeroPad(1))
	}
	if ZeroPad(12) != "12" {
		t.Fatalf("expected 12, got %s", ZeroPad(12))
	}
	if ZeroPad(123) != "123" {
		t.Fatalf("expected 123, got %s", ZeroPad(123))
	}
}
