// Package sandbox implements the stash-based dry-run mode of
// spec.md §4.E: begin tracks a sandboxed working tree, track records
// created/modified/deleted paths, and rollback (or commit) unwinds
// (or retains) them.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phaser-dev/phaser/internal/store"
	"github.com/phaser-dev/phaser/internal/vcs"
)

// TrackKind is the kind of change a caller reports to Track.
type TrackKind string

const (
	TrackCreated  TrackKind = "created"
	TrackModified TrackKind = "modified"
	TrackDeleted  TrackKind = "deleted"
)

// Context is the persisted state of one active sandbox (spec.md §3
// SandboxContext).
type Context struct {
	AuditID        string    `yaml:"audit_id"`
	ProjectRoot    string    `yaml:"project_root"`
	OriginalBranch string    `yaml:"original_branch"`
	StashRef       *string   `yaml:"stash_ref"`
	Created        []string  `yaml:"created"`
	Modified       []string  `yaml:"modified"`
	Deleted        []string  `yaml:"deleted"`
	StartedAt      time.Time `yaml:"started_at"`
	Active         bool      `yaml:"active"`
}

// Begin requires root to be a VCS working tree with no other active
// sandbox, stashes uncommitted state if any, and persists the new
// context (spec.md §4.E Begin).
func Begin(s *store.Store, repo *vcs.Repo, auditID, stashMessagePrefix string) (*Context, error) {
	if !repo.IsWorkingTree() {
		return nil, ErrNotVCSRoot
	}
	if existing, err := Load(s); err == nil && existing.Active {
		return nil, ErrAlreadyActive
	}

	branch, err := repo.CurrentBranch()
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		AuditID:        auditID,
		ProjectRoot:    repo.Root,
		OriginalBranch: branch,
		StartedAt:      time.Now().UTC(),
		Active:         true,
	}

	dirty, err := repo.HasUncommittedChanges()
	if err != nil {
		return nil, err
	}
	if dirty {
		ref, err := repo.Stash(stashMessagePrefix + "-" + auditID)
		if err != nil {
			return nil, err
		}
		ctx.StashRef = &ref
	}

	if err := persist(s, ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// trackPriority orders the three buckets for cross-bucket dedup:
// deleted > modified > created (spec.md §9 OQ1). A path tracked into a
// lower-priority bucket while already present in a higher-priority one
// is left alone; a path tracked into a higher-or-equal-priority bucket
// is moved there and dropped from the others, so each path ends up in
// at most one bucket.
var trackPriority = map[TrackKind]int{
	TrackCreated:  0,
	TrackModified: 1,
	TrackDeleted:  2,
}

// Track records (path, kind), normalizing path relative to root and
// silently ignoring paths outside it. Each per-kind list dedups while
// preserving insertion order, and a path is kept in at most one bucket
// at a time per trackPriority. The context is re-persisted after each
// call so a crash between tracks leaves a recoverable record
// (spec.md §4.E Track).
func Track(s *store.Store, ctx *Context, path string, kind TrackKind) error {
	rel, ok := relativize(ctx.ProjectRoot, path)
	if !ok {
		return nil
	}

	if existing, tracked := currentBucket(ctx, rel); tracked && trackPriority[existing] > trackPriority[kind] {
		return persist(s, ctx)
	}

	ctx.Created = removeItem(ctx.Created, rel)
	ctx.Modified = removeItem(ctx.Modified, rel)
	ctx.Deleted = removeItem(ctx.Deleted, rel)

	switch kind {
	case TrackCreated:
		ctx.Created = appendUnique(ctx.Created, rel)
	case TrackModified:
		ctx.Modified = appendUnique(ctx.Modified, rel)
	case TrackDeleted:
		ctx.Deleted = appendUnique(ctx.Deleted, rel)
	}
	return persist(s, ctx)
}

// currentBucket reports which bucket (if any) already holds rel.
func currentBucket(ctx *Context, rel string) (TrackKind, bool) {
	if containsItem(ctx.Deleted, rel) {
		return TrackDeleted, true
	}
	if containsItem(ctx.Modified, rel) {
		return TrackModified, true
	}
	if containsItem(ctx.Created, rel) {
		return TrackCreated, true
	}
	return "", false
}

func containsItem(list []string, item string) bool {
	for _, existing := range list {
		if existing == item {
			return true
		}
	}
	return false
}

func removeItem(list []string, item string) []string {
	out := list[:0:0]
	for _, existing := range list {
		if existing != item {
			out = append(out, existing)
		}
	}
	return out
}

func relativize(root, path string) (string, bool) {
	abs := path
	if !filepath.IsAbs(path) {
		abs = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

// RollbackReport records per-item failures tolerated during Rollback.
type RollbackReport struct {
	Failures []string
	Success  bool
}

// Rollback unwinds a sandbox: unlinks created paths (pruning now-empty
// parent directories), restores modified/deleted paths from HEAD, and
// pops the stash if one was taken. Each step tolerates and reports
// per-item failure but continues; overall success is the AND of
// per-step success. The context is then marked inactive and its
// persisted form removed (spec.md §4.E Rollback).
func Rollback(s *store.Store, repo *vcs.Repo, ctx *Context) (RollbackReport, error) {
	report := RollbackReport{Success: true}

	for _, path := range ctx.Created {
		if err := removeCreated(ctx.ProjectRoot, path); err != nil {
			report.Success = false
			report.Failures = append(report.Failures, path+": "+err.Error())
		}
	}
	for _, path := range ctx.Modified {
		if err := repo.CheckoutFileFromHead(path); err != nil {
			report.Success = false
			report.Failures = append(report.Failures, path+": "+err.Error())
		}
	}
	for _, path := range ctx.Deleted {
		if err := repo.CheckoutFileFromHead(path); err != nil {
			report.Success = false
			report.Failures = append(report.Failures, path+": "+err.Error())
		}
	}
	if ctx.StashRef != nil {
		if err := repo.StashPop(*ctx.StashRef); err != nil {
			report.Success = false
			report.Failures = append(report.Failures, "stash pop: "+err.Error())
		}
	}

	ctx.Active = false
	if err := remove(s); err != nil {
		return report, err
	}
	return report, nil
}

func removeCreated(root, relPath string) error {
	abs := filepath.Join(root, relPath)
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(abs); err != nil {
		return err
	}
	pruneEmptyDirs(root, filepath.Dir(abs))
	return nil
}

// pruneEmptyDirs removes dir and walks upward removing now-empty
// ancestors, stopping at root.
func pruneEmptyDirs(root, dir string) {
	for {
		if dir == root || !strings.HasPrefix(dir, root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Commit retains the tracked changes: drops the stash without
// applying (discarding whatever predated Begin), marks the context
// inactive, and removes its persisted form (spec.md §4.E Commit).
func Commit(s *store.Store, repo *vcs.Repo, ctx *Context) error {
	if ctx.StashRef != nil {
		if err := repo.StashDrop(*ctx.StashRef); err != nil {
			return err
		}
	}
	ctx.Active = false
	return remove(s)
}

// Run is the scoped context-manager helper of spec.md §4.E: it begins
// a sandbox, invokes fn, and guarantees release on every exit path —
// rollback unless fn reports success.
func Run(s *store.Store, repo *vcs.Repo, auditID, stashMessagePrefix string, fn func(*Context) (success bool, err error)) error {
	ctx, err := Begin(s, repo, auditID, stashMessagePrefix)
	if err != nil {
		return err
	}

	success, fnErr := fn(ctx)
	if success && fnErr == nil {
		if err := Commit(s, repo, ctx); err != nil {
			return err
		}
		return nil
	}

	if _, rbErr := Rollback(s, repo, ctx); rbErr != nil {
		if fnErr != nil {
			return fnErr
		}
		return rbErr
	}
	return fnErr
}

func persist(s *store.Store, ctx *Context) error {
	data, err := yaml.Marshal(ctx)
	if err != nil {
		return err
	}
	return store.AtomicWrite(s.SandboxContextPath(), data)
}

func remove(s *store.Store) error {
	err := os.Remove(s.SandboxContextPath())
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Load reads the persisted sandbox context, if any. A missing file is
// a plain os.IsNotExist error so callers can distinguish "no sandbox"
// from a corrupt one.
func Load(s *store.Store) (*Context, error) {
	data, err := store.ReadLocked(s.SandboxContextPath())
	if err != nil {
		return nil, err
	}
	var ctx Context
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, err
	}
	return &ctx, nil
}
