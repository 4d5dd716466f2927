// Package orchestrator drives a sequence of phases over a project
// root in one of three modes, producing per-phase results (spec.md
// §4.G).
package orchestrator

import (
	"context"
	"time"

	"github.com/phaser-dev/phaser/internal/branch"
	"github.com/phaser-dev/phaser/internal/eventlog"
	"github.com/phaser-dev/phaser/internal/model"
	"github.com/phaser-dev/phaser/internal/sandbox"
	"github.com/phaser-dev/phaser/internal/store"
	"github.com/phaser-dev/phaser/internal/vcs"
)

// Mode selects how phases execute (spec.md §4.G): the three are
// mutually exclusive.
type Mode string

const (
	ModeDirect    Mode = "direct"
	ModeSandboxed Mode = "sandboxed"
	ModeBranched  Mode = "branched"
)

func (m Mode) isValid() bool {
	return m == ModeDirect || m == ModeSandboxed || m == ModeBranched
}

// PhaseExecutor is the pluggable abstraction that actually performs a
// phase's work; real implementations bridge to the external
// audit-document executor, out of scope here. The default is a no-op
// succeeding in zero time (spec.md §4.G).
type PhaseExecutor func(ctx context.Context, phase int) (description string, touchedPaths []string, err error)

// NoopExecutor is the default PhaseExecutor.
func NoopExecutor(context.Context, int) (string, []string, error) {
	return "", nil, nil
}

// PhaseResult is one phase's outcome (spec.md §4.G).
type PhaseResult struct {
	Phase        int
	Description  string
	Success      bool
	Duration     time.Duration
	Error        string
	TouchedPaths []string
}

// DiffSummary surfaces what a sandboxed run tracked before rollback
// (spec.md §4.G "changes tracked inside are surfaced as a diff
// summary").
type DiffSummary struct {
	Created  []string
	Modified []string
	Deleted  []string
}

// RunConfig configures one orchestrator invocation (spec.md §4.G).
type RunConfig struct {
	Root     string
	AuditID  string
	Slug     string
	Mode     Mode
	Phases   []int
	FailFast bool
	Executor PhaseExecutor

	StashMessagePrefix string
	MergeStrategy      branch.MergeStrategy
}

// RunResult is the accumulated outcome of Run.
type RunResult struct {
	AuditID string
	Mode    Mode
	Phases  []PhaseResult
	Diff    *DiffSummary
}

// Run executes cfg.Phases in cfg.Mode, emitting audit and phase
// lifecycle events to log. s holds the sandbox or branch context in
// those modes; Run does not insert or update an Audit record in s.
// repo is required for sandboxed and branched modes.
func Run(s *store.Store, log *eventlog.Log, repo *vcs.Repo, cfg RunConfig) (*RunResult, error) {
	if !cfg.Mode.isValid() {
		return nil, ErrUnknownMode
	}
	if cfg.Slug == "" {
		cfg.Slug = cfg.AuditID
	}
	if cfg.Executor == nil {
		cfg.Executor = NoopExecutor
	}

	if _, err := log.Emit(cfg.AuditID, model.EventAuditCreated, nil, nil); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case ModeDirect:
		return runDirect(s, log, cfg)
	case ModeSandboxed:
		return runSandboxed(s, log, repo, cfg)
	case ModeBranched:
		return runBranched(s, log, repo, cfg)
	default:
		return nil, ErrUnknownMode
	}
}

func runDirect(s *store.Store, log *eventlog.Log, cfg RunConfig) (*RunResult, error) {
	result := &RunResult{AuditID: cfg.AuditID, Mode: cfg.Mode}
	for _, phase := range cfg.Phases {
		pr := runOnePhase(log, cfg.AuditID, phase, cfg.Executor)
		result.Phases = append(result.Phases, pr)
		if !pr.Success && cfg.FailFast {
			_, _ = log.Emit(cfg.AuditID, model.EventAuditFailed, nil, nil)
			return result, nil
		}
	}
	_, _ = log.Emit(cfg.AuditID, model.EventAuditCompleted, nil, nil)
	return result, nil
}

func runSandboxed(s *store.Store, log *eventlog.Log, repo *vcs.Repo, cfg RunConfig) (*RunResult, error) {
	result := &RunResult{AuditID: cfg.AuditID, Mode: cfg.Mode}

	ctx, err := sandbox.Begin(s, repo, cfg.AuditID, cfg.StashMessagePrefix)
	if err != nil {
		_, _ = log.Emit(cfg.AuditID, model.EventAuditFailed, nil, nil)
		return nil, err
	}

	failed := false
	for _, phase := range cfg.Phases {
		pr := runOnePhase(log, cfg.AuditID, phase, cfg.Executor)
		for _, p := range pr.TouchedPaths {
			_ = sandbox.Track(s, ctx, p, sandbox.TrackModified)
		}
		result.Phases = append(result.Phases, pr)
		if !pr.Success {
			failed = true
			if cfg.FailFast {
				break
			}
		}
	}

	result.Diff = &DiffSummary{Created: ctx.Created, Modified: ctx.Modified, Deleted: ctx.Deleted}

	// Sandboxed mode unconditionally rolls back, regardless of
	// per-phase outcome (spec.md §4.G).
	if _, err := sandbox.Rollback(s, repo, ctx); err != nil {
		return result, err
	}

	if failed {
		_, _ = log.Emit(cfg.AuditID, model.EventAuditFailed, nil, nil)
	} else {
		_, _ = log.Emit(cfg.AuditID, model.EventAuditCompleted, nil, nil)
	}
	return result, nil
}

func runBranched(s *store.Store, log *eventlog.Log, repo *vcs.Repo, cfg RunConfig) (*RunResult, error) {
	result := &RunResult{AuditID: cfg.AuditID, Mode: cfg.Mode}

	bctx, err := branch.Begin(s, repo, cfg.AuditID, cfg.Slug, "")
	if err != nil {
		_, _ = log.Emit(cfg.AuditID, model.EventAuditFailed, nil, nil)
		return nil, err
	}

	for _, phase := range cfg.Phases {
		phaseSlug := cfg.Slug
		if _, err := branch.CreatePhaseBranch(s, repo, bctx, phase, phaseSlug); err != nil {
			_, _ = log.Emit(cfg.AuditID, model.EventAuditFailed, nil, nil)
			return result, err
		}

		pr := runOnePhase(log, cfg.AuditID, phase, cfg.Executor)
		result.Phases = append(result.Phases, pr)

		if !pr.Success {
			if cfg.FailFast {
				_, _ = log.Emit(cfg.AuditID, model.EventAuditFailed, nil, nil)
				return result, nil
			}
			continue
		}
		if _, err := branch.CommitPhase(s, repo, bctx, phase, ""); err != nil {
			return result, err
		}
	}

	_, _ = log.Emit(cfg.AuditID, model.EventAuditCompleted, nil, nil)
	return result, nil
}

func runOnePhase(log *eventlog.Log, auditID string, phase int, exec PhaseExecutor) PhaseResult {
	p := phase
	_, _ = log.Emit(auditID, model.EventPhaseStarted, &p, nil)

	start := time.Now()
	description, touched, err := exec(context.Background(), phase)
	duration := time.Since(start)

	result := PhaseResult{
		Phase:        phase,
		Description:  description,
		Duration:     duration,
		TouchedPaths: touched,
		Success:      err == nil,
	}
	if err != nil {
		result.Error = err.Error()
		_, _ = log.Emit(auditID, model.EventPhaseFailed, &p, map[string]any{"error": err.Error()})
		return result
	}
	_, _ = log.Emit(auditID, model.EventPhaseCompleted, &p, nil)
	return result
}
