// Package branch implements the branch-per-phase execution mode of
// spec.md §4.F: a linear chain of phase branches off a base, per-phase
// commits, ordered merge strategies, and cleanup.
package branch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phaser-dev/phaser/internal/store"
	"github.com/phaser-dev/phaser/internal/vcs"
)

// MergeStrategy selects how Merge folds the phase-branch chain back
// into the target (spec.md §4.F Merge-all).
type MergeStrategy string

const (
	StrategySquash MergeStrategy = "squash"
	StrategyRebase MergeStrategy = "rebase"
	StrategyMerge  MergeStrategy = "merge"
)

// Info is one phase's branch record (spec.md §3 BranchContext.BranchInfo).
type Info struct {
	Phase      int       `yaml:"phase"`
	Slug       string    `yaml:"slug"`
	BranchName string    `yaml:"branch_name"`
	CreatedAt  time.Time `yaml:"created_at"`
	CommitHash *string   `yaml:"commit_hash"`
	Merged     bool      `yaml:"merged"`
}

// Context is the persisted state of one active branch-mode run
// (spec.md §3 BranchContext).
type Context struct {
	AuditID      string `yaml:"audit_id"`
	Slug         string `yaml:"slug"`
	ProjectRoot  string `yaml:"root"`
	BaseBranch   string `yaml:"base_branch"`
	CurrentPhase *int   `yaml:"current_phase"`
	Branches     []Info `yaml:"branches"`
	Active       bool   `yaml:"active"`
}

// Begin requires no other active branch context and no uncommitted
// changes, records the base branch (or an explicit override), and
// persists the context (spec.md §4.F Begin).
func Begin(s *store.Store, repo *vcs.Repo, auditID, slug, baseOverride string) (*Context, error) {
	if existing, err := Load(s); err == nil && existing.Active {
		return nil, ErrAlreadyActive
	}

	dirty, err := repo.HasUncommittedChanges()
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ErrUncommittedChanges
	}

	base := baseOverride
	if base == "" {
		base, err = repo.CurrentBranch()
		if err != nil {
			return nil, err
		}
	}

	ctx := &Context{
		AuditID:     auditID,
		Slug:        slug,
		ProjectRoot: repo.Root,
		BaseBranch:  base,
		Active:      true,
	}
	if err := persist(s, ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// BranchName computes `audit/{slug}/phase-{NN}-{phase-slug}` per
// spec.md §3's naming invariant.
func BranchName(slug string, phase int, phaseSlug string) string {
	return fmt.Sprintf("audit/%s/phase-%s-%s", slug, vcs.ZeroPad(phase), phaseSlug)
}

// CreatePhaseBranch computes the phase branch name, fails if a local
// branch with that name already exists, determines the `from` ref
// (the previous phase branch's head, or the base for phase 1), and
// creates-and-checks-out atomically (spec.md §4.F Create phase branch).
func CreatePhaseBranch(s *store.Store, repo *vcs.Repo, ctx *Context, phase int, phaseSlug string) (*Info, error) {
	name := BranchName(ctx.Slug, phase, phaseSlug)
	if repo.BranchExists(name) {
		return nil, ErrBranchAlreadyExists
	}

	from := ctx.BaseBranch
	if len(ctx.Branches) > 0 {
		from = ctx.Branches[len(ctx.Branches)-1].BranchName
	}

	if err := repo.CreateAndCheckoutBranch(name, from); err != nil {
		return nil, err
	}

	info := Info{Phase: phase, Slug: phaseSlug, BranchName: name, CreatedAt: time.Now().UTC()}
	ctx.Branches = append(ctx.Branches, info)
	ctx.CurrentPhase = &phase
	if err := persist(s, ctx); err != nil {
		return nil, err
	}
	return &ctx.Branches[len(ctx.Branches)-1], nil
}

// CommitPhase stages everything and commits with a message, recording
// the resulting hash on the matching BranchInfo. A clean tree
// short-circuits to "nothing to commit," returning an empty hash without
// error and leaving the branch present (spec.md §4.F Commit phase).
func CommitPhase(s *store.Store, repo *vcs.Repo, ctx *Context, phase int, messageOverride string) (string, error) {
	message := messageOverride
	if message == "" {
		info := findInfo(ctx, phase)
		if info == nil {
			return "", ErrNoActiveContext
		}
		message = fmt.Sprintf("Phase %d: %s", phase, info.Slug)
	}

	if err := repo.StageAll(); err != nil {
		return "", err
	}
	hash, err := repo.CommitAll(message)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", nil
	}

	info := findInfo(ctx, phase)
	if info != nil {
		info.CommitHash = &hash
	}
	if err := persist(s, ctx); err != nil {
		return "", err
	}
	return hash, nil
}

func findInfo(ctx *Context, phase int) *Info {
	for i := range ctx.Branches {
		if ctx.Branches[i].Phase == phase {
			return &ctx.Branches[i]
		}
	}
	return nil
}

// Merge checks out target (ctx.BaseBranch if empty) and folds the
// linearly-chained phase branches back in according to strategy.
// Because branches are linearly chained, merging the last one carries
// the whole series. On success every BranchInfo is marked merged and
// the context re-persisted (spec.md §4.F Merge-all).
func Merge(s *store.Store, repo *vcs.Repo, ctx *Context, strategy MergeStrategy, target, messageOverride string) error {
	if len(ctx.Branches) == 0 {
		return ErrNoPhaseBranchesToMerge
	}
	if target == "" {
		target = ctx.BaseBranch
	}
	last := ctx.Branches[len(ctx.Branches)-1].BranchName

	if err := repo.Checkout(target); err != nil {
		return err
	}

	switch strategy {
	case "", StrategySquash:
		message := messageOverride
		if message == "" {
			message = fmt.Sprintf("Complete %s audit", ctx.Slug)
		}
		if err := repo.MergeSquash(last); err != nil {
			return err
		}
		if _, err := repo.Commit(message); err != nil {
			return err
		}
	case StrategyRebase:
		if err := repo.Checkout(last); err != nil {
			return err
		}
		if err := repo.RebaseOnto(target); err != nil {
			return err
		}
		if err := repo.Checkout(target); err != nil {
			return err
		}
		if err := repo.MergeFastForward(last); err != nil {
			return err
		}
	case StrategyMerge:
		message := messageOverride
		if message == "" {
			message = fmt.Sprintf("Merge %s audit phases", ctx.Slug)
		}
		if err := repo.MergeNoFF(last, message); err != nil {
			return err
		}
	default:
		return ErrUnknownMergeStrategy
	}

	for i := range ctx.Branches {
		ctx.Branches[i].Merged = true
	}
	return persist(s, ctx)
}

// Cleanup checks out the base branch (so the engine never deletes the
// branch it is on) and force-deletes every phase branch, unconditional
// of tracked merge status — squash merges are invisible to git's own
// merge-detector (spec.md §4.F Cleanup).
func Cleanup(repo *vcs.Repo, ctx *Context) error {
	if err := repo.Checkout(ctx.BaseBranch); err != nil {
		return err
	}
	var firstErr error
	for _, b := range ctx.Branches {
		if err := repo.DeleteBranchForce(b.BranchName); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// End marks the context inactive and removes its persisted form.
// Cleanup is a separate call and does not terminate the context by
// itself (spec.md §4.F End branch mode).
func End(s *store.Store, ctx *Context) error {
	ctx.Active = false
	return remove(s)
}

func persist(s *store.Store, ctx *Context) error {
	data, err := yaml.Marshal(ctx)
	if err != nil {
		return err
	}
	return store.AtomicWrite(s.BranchContextPath(), data)
}

func remove(s *store.Store) error {
	err := os.Remove(s.BranchContextPath())
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Load reads the persisted branch context, if any.
func Load(s *store.Store) (*Context, error) {
	data, err := store.ReadLocked(s.BranchContextPath())
	if err != nil {
		return nil, err
	}
	var ctx Context
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, err
	}
	return &ctx, nil
}
