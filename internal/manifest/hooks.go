package manifest

import (
	"github.com/phaser-dev/phaser/internal/eventlog"
	"github.com/phaser-dev/phaser/internal/model"
	"github.com/phaser-dev/phaser/internal/store"
)

// AuditSetup captures the pre-manifest for auditID rooted at root using
// the audit-default exclude set (DefaultExcludes plus the store's own
// directory), persists it, and emits a FILE_CREATED event carrying the
// file count and total size (spec.md §4.C Audit hooks: on-audit-setup).
func AuditSetup(s *store.Store, log *eventlog.Log, root, auditID string, binaryExtensions []string) (*Manifest, error) {
	m, err := Capture(root, CaptureOptions{
		Excludes:         AuditExcludes(store.DefaultDirName),
		BinaryExtensions: binaryExtensions,
	})
	if err != nil {
		return nil, err
	}
	if err := Save(s, auditID, "pre", m); err != nil {
		return nil, err
	}
	if _, err := log.Emit(auditID, model.EventFileCreated, nil, map[string]any{
		"stage":            "pre",
		"file_count":       m.FileCount,
		"total_size_bytes": m.TotalSize,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// AuditComplete captures the post-manifest, diffs it against the
// previously saved pre-manifest, and emits one event per file change
// plus a manifest-file event for the post stage (spec.md §4.C Audit
// hooks: on-audit-complete).
func AuditComplete(s *store.Store, log *eventlog.Log, root, auditID string, binaryExtensions []string, diffOpts DiffOptions) (*DiffResult, error) {
	post, err := Capture(root, CaptureOptions{
		Excludes:         AuditExcludes(store.DefaultDirName),
		BinaryExtensions: binaryExtensions,
	})
	if err != nil {
		return nil, err
	}
	if err := Save(s, auditID, "post", post); err != nil {
		return nil, err
	}

	pre, err := Load(s, auditID, "pre")
	if err != nil {
		return nil, err
	}

	diff := Diff(pre, post, diffOpts)
	emitChanges(log, auditID, model.EventFileCreated, diff.Added)
	emitChanges(log, auditID, model.EventFileModified, diff.Modified)
	emitChanges(log, auditID, model.EventFileDeleted, diff.Deleted)

	if _, err := log.Emit(auditID, model.EventFileCreated, nil, map[string]any{
		"stage":            "post",
		"file_count":       post.FileCount,
		"total_size_bytes": post.TotalSize,
	}); err != nil {
		return nil, err
	}

	return &diff, nil
}

func emitChanges(log *eventlog.Log, auditID string, eventType model.EventType, changes []FileChange) {
	for _, c := range changes {
		_, _ = log.Emit(auditID, eventType, nil, map[string]any{"path": c.Path})
	}
}
