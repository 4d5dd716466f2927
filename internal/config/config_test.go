package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaultWithoutCreating(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Branch.MergeStrategy != defaultMergeStrategy {
		t.Fatalf("expected default merge strategy, got %s", cfg.Branch.MergeStrategy)
	}
	if _, err := os.Stat(filepath.Join(root, "config.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected config.yaml to not be created by Load, err=%v", err)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Branch.MergeStrategy = "rebase"

	if err := Save(root, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Branch.MergeStrategy != "rebase" {
		t.Fatalf("expected merge strategy to round-trip, got %s", got.Branch.MergeStrategy)
	}
}

func TestSetPathOverridesSingleLeaf(t *testing.T) {
	root := t.TempDir()
	if err := SetPath(root, "branch.merge_strategy", "rebase"); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Branch.MergeStrategy != "rebase" {
		t.Fatalf("expected override, got %s", cfg.Branch.MergeStrategy)
	}
	// Unrelated leaves retain defaults.
	if cfg.Sandbox.StashMessagePrefix != defaultStashMessagePrefix {
		t.Fatalf("expected untouched leaf to keep default, got %s", cfg.Sandbox.StashMessagePrefix)
	}
}

func TestResetWritesDefaultVerbatim(t *testing.T) {
	root := t.TempDir()
	if err := SetPath(root, "branch.merge_strategy", "rebase"); err != nil {
		t.Fatal(err)
	}
	if err := Reset(root); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Branch.MergeStrategy != defaultMergeStrategy {
		t.Fatalf("expected reset to restore default, got %s", cfg.Branch.MergeStrategy)
	}
}
