package manifest

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const defaultDiffSizeLimit = 100_000

// DiffOptions configures Diff.
type DiffOptions struct {
	// SizeLimit is the maximum size (bytes) either side of a modified
	// text file may have for a unified diff to be computed. Zero uses
	// defaultDiffSizeLimit (spec.md §4.C).
	SizeLimit int
}

func (o DiffOptions) sizeLimit() int {
	if o.SizeLimit > 0 {
		return o.SizeLimit
	}
	return defaultDiffSizeLimit
}

// Diff compares before and after, indexing each by path, and returns
// the added/modified/deleted/unchanged partition per spec.md §4.C.
func Diff(before, after *Manifest, opts DiffOptions) DiffResult {
	beforeByPath := indexByPath(before)
	afterByPath := indexByPath(after)

	var result DiffResult

	for path, a := range afterByPath {
		b, existed := beforeByPath[path]
		if !existed {
			result.Added = append(result.Added, addedChange(a))
			continue
		}
		if a.SHA256 == b.SHA256 {
			result.UnchangedCount++
			continue
		}
		result.Modified = append(result.Modified, modifiedChange(b, a, opts))
	}

	for path, b := range beforeByPath {
		if _, stillPresent := afterByPath[path]; !stillPresent {
			result.Deleted = append(result.Deleted, deletedChange(b))
		}
	}

	sortChanges(result.Added)
	sortChanges(result.Modified)
	sortChanges(result.Deleted)

	return result
}

func indexByPath(m *Manifest) map[string]FileEntry {
	idx := make(map[string]FileEntry, len(m.Files))
	for _, f := range m.Files {
		idx[f.Path] = f
	}
	return idx
}

func sortChanges(changes []FileChange) {
	for i := 1; i < len(changes); i++ {
		for j := i; j > 0 && changes[j].Path < changes[j-1].Path; j-- {
			changes[j], changes[j-1] = changes[j-1], changes[j]
		}
	}
}

func addedChange(a FileEntry) FileChange {
	sha := a.SHA256
	size := a.Size
	return FileChange{Path: a.Path, Kind: ChangeAdded, AfterSHA: &sha, AfterSize: &size}
}

func deletedChange(b FileEntry) FileChange {
	sha := b.SHA256
	size := b.Size
	return FileChange{Path: b.Path, Kind: ChangeDeleted, BeforeSHA: &sha, BeforeSize: &size}
}

func modifiedChange(before, after FileEntry, opts DiffOptions) FileChange {
	beforeSHA, afterSHA := before.SHA256, after.SHA256
	beforeSize, afterSize := before.Size, after.Size
	change := FileChange{
		Path:       after.Path,
		Kind:       ChangeModified,
		BeforeSHA:  &beforeSHA,
		AfterSHA:   &afterSHA,
		BeforeSize: &beforeSize,
		AfterSize:  &afterSize,
	}

	if before.Kind == KindBinary || after.Kind == KindBinary {
		change.DiffLines = []string{"(binary file changed)"}
		return change
	}

	limit := int64(opts.sizeLimit())
	if before.Size > limit || after.Size > limit {
		change.DiffLines = []string{"(diff skipped: file too large)"}
		return change
	}

	change.DiffLines = unifiedDiff(after.Path, before.Content, after.Content)
	return change
}

// unifiedDiff produces a 3-context-line unified diff with a/{path} and
// b/{path} headers, using the sergi/go-diff line-level diff engine
// (spec.md §4.C) the same way theRebelliousNerd-codenerd's
// internal/diff.Engine drives diffmatchpatch for its own unified hunks.
func unifiedDiff(path, before, after string) []string {
	ops := diffOps(before, after)
	hunks := groupHunks(ops, 3)

	if len(hunks) == 0 {
		return nil
	}

	out := []string{
		fmt.Sprintf("--- a/%s", path),
		fmt.Sprintf("+++ b/%s", path),
	}
	for _, h := range hunks {
		out = append(out, h.header())
		out = append(out, h.lines...)
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type lineOp struct {
	kind opKind
	text string
	// line numbers (1-based) in the respective file; 0 when n/a.
	beforeLine int
	afterLine  int
}

// diffOps computes a line-level edit script by reducing each line to a
// single rune (DiffLinesToChars), running diffmatchpatch's Myers diff
// over the reduced text, then expanding back to lines
// (DiffCharsToLines) — the same line-diff idiom
// theRebelliousNerd-codenerd's internal/diff.Engine.ComputeDiff uses.
func diffOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	var beforeLine, afterLine int
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				beforeLine++
				afterLine++
				ops = append(ops, lineOp{kind: opEqual, text: text, beforeLine: beforeLine, afterLine: afterLine})
			case diffmatchpatch.DiffDelete:
				beforeLine++
				ops = append(ops, lineOp{kind: opDelete, text: text, beforeLine: beforeLine})
			case diffmatchpatch.DiffInsert:
				afterLine++
				ops = append(ops, lineOp{kind: opInsert, text: text, afterLine: afterLine})
			}
		}
	}
	return ops
}

type hunk struct {
	beforeStart, beforeCount int
	afterStart, afterCount   int
	lines                    []string
}

func (h hunk) header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.beforeStart, h.beforeCount, h.afterStart, h.afterCount)
}

// groupHunks collapses runs of equal ops down to `context` lines of
// padding on either side of each changed region, merging adjacent
// regions whose gap is within 2*context.
func groupHunks(ops []lineOp, context int) []hunk {
	changedIdx := make([]int, 0, len(ops))
	for idx, op := range ops {
		if op.kind != opEqual {
			changedIdx = append(changedIdx, idx)
		}
	}
	if len(changedIdx) == 0 {
		return nil
	}

	type span struct{ lo, hi int }
	var spans []span
	lo, hi := changedIdx[0], changedIdx[0]
	for _, idx := range changedIdx[1:] {
		if idx-hi <= 2*context+1 {
			hi = idx
			continue
		}
		spans = append(spans, span{lo, hi})
		lo, hi = idx, idx
	}
	spans = append(spans, span{lo, hi})

	var hunks []hunk
	for _, s := range spans {
		start := s.lo - context
		if start < 0 {
			start = 0
		}
		end := s.hi + context
		if end >= len(ops) {
			end = len(ops) - 1
		}

		h := hunk{}
		firstBefore, firstAfter := -1, -1
		for k := start; k <= end; k++ {
			op := ops[k]
			switch op.kind {
			case opEqual:
				h.lines = append(h.lines, " "+op.text)
				h.beforeCount++
				h.afterCount++
				if firstBefore == -1 {
					firstBefore = op.beforeLine
				}
				if firstAfter == -1 {
					firstAfter = op.afterLine
				}
			case opDelete:
				h.lines = append(h.lines, "-"+op.text)
				h.beforeCount++
				if firstBefore == -1 {
					firstBefore = op.beforeLine
				}
			case opInsert:
				h.lines = append(h.lines, "+"+op.text)
				h.afterCount++
				if firstAfter == -1 {
					firstAfter = op.afterLine
				}
			}
		}
		if firstBefore == -1 {
			firstBefore = 0
		}
		if firstAfter == -1 {
			firstAfter = 0
		}
		h.beforeStart = firstBefore
		h.afterStart = firstAfter
		hunks = append(hunks, h)
	}
	return hunks
}
