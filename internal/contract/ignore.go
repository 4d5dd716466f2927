package contract

import (
	"path/filepath"
	"strings"
)

// IgnoreScope is where a directive's suppression applies.
type IgnoreScope string

const (
	ScopeLine     IgnoreScope = "line"
	ScopeNextLine IgnoreScope = "next-line"
	ScopeAll      IgnoreScope = "all"
)

// IgnoreDirective is one parsed `phaser:ignore...` comment (spec.md §3
// Ignore directive).
type IgnoreDirective struct {
	RuleIDs []string // empty = match-all
	Line    int      // 1-based line where the directive appeared
	Scope   IgnoreScope
}

func (d IgnoreDirective) matchesRule(ruleID string) bool {
	if len(d.RuleIDs) == 0 {
		return true
	}
	for _, id := range d.RuleIDs {
		if id == ruleID {
			return true
		}
	}
	return false
}

// commentPrefixes is the known comment-style set eligible for
// directive scanning, keyed by lowercase file extension (spec.md
// §4.D Ignore directives).
var commentPrefixes = map[string][]string{
	".go": {"//"}, ".ts": {"//"}, ".tsx": {"//"}, ".js": {"//"}, ".jsx": {"//"},
	".java": {"//"}, ".c": {"//"}, ".h": {"//"}, ".cpp": {"//"}, ".cs": {"//"},
	".rs": {"//"}, ".swift": {"//"}, ".kt": {"//"},
	".py": {"#"}, ".rb": {"#"}, ".sh": {"#"}, ".yaml": {"#"}, ".yml": {"#"}, ".toml": {"#"},
	".html": {"<!--"}, ".htm": {"<!--"}, ".xml": {"<!--"}, ".md": {"<!--"},
	".css": {"/*"},
}

const directiveKeyword = "phaser:ignore"

// ParseIgnoreDirectives scans content line-by-line for
// `phaser:ignore[-next-line|-all] [rule-id[, rule-id…]]`, gated on
// path's suffix being in the known comment-style set. Unrecognized
// suffixes yield no directives (spec.md §4.D).
func ParseIgnoreDirectives(path, content string) []IgnoreDirective {
	ext := strings.ToLower(filepath.Ext(path))
	styles, ok := commentPrefixes[ext]
	if !ok {
		return nil
	}

	var directives []IgnoreDirective
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		idx := findDirective(line, styles)
		if idx == -1 {
			continue
		}
		d, ok := parseDirectiveText(line[idx:], i+1)
		if ok {
			directives = append(directives, d)
		}
	}
	return directives
}

func findDirective(line string, styles []string) int {
	kwIdx := strings.Index(line, directiveKeyword)
	if kwIdx == -1 {
		return -1
	}
	for _, style := range styles {
		if strings.Contains(line[:kwIdx], style) {
			return kwIdx
		}
	}
	return -1
}

func parseDirectiveText(text string, line int) (IgnoreDirective, bool) {
	rest := strings.TrimPrefix(text, directiveKeyword)

	scope := ScopeLine
	switch {
	case strings.HasPrefix(rest, "-next-line"):
		scope = ScopeNextLine
		rest = strings.TrimPrefix(rest, "-next-line")
	case strings.HasPrefix(rest, "-all"):
		scope = ScopeAll
		rest = strings.TrimPrefix(rest, "-all")
	}

	rest = strings.TrimSpace(rest)
	rest = trimCommentTail(rest)

	var ids []string
	if rest != "" {
		for _, part := range strings.Split(rest, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				ids = append(ids, part)
			}
		}
	}

	return IgnoreDirective{RuleIDs: ids, Line: line, Scope: scope}, true
}

// trimCommentTail strips a trailing comment-close marker (`-->`, `*/`)
// that may follow the rule-id list on the same line.
func trimCommentTail(s string) string {
	for _, closer := range []string{"-->", "*/"} {
		if idx := strings.Index(s, closer); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// IgnoreIndex answers suppression queries for one file's parsed
// directives.
type IgnoreIndex struct {
	byLine map[int][]IgnoreDirective
	all    []IgnoreDirective
}

// BuildIgnoreIndex indexes directives by line for O(1) lookup at
// check time.
func BuildIgnoreIndex(directives []IgnoreDirective) IgnoreIndex {
	idx := IgnoreIndex{byLine: make(map[int][]IgnoreDirective)}
	for _, d := range directives {
		if d.Scope == ScopeAll {
			idx.all = append(idx.all, d)
			continue
		}
		idx.byLine[d.Line] = append(idx.byLine[d.Line], d)
	}
	return idx
}

// Suppresses reports whether a violation on (path, line) for ruleID is
// suppressed by a same-line directive (scope line), a directive on the
// preceding line (scope next-line), or any all-scope directive
// (spec.md §4.D).
func (idx IgnoreIndex) Suppresses(path string, line int, ruleID string) bool {
	_ = path // directives are scanned per-file already; kept for call-site clarity
	for _, d := range idx.all {
		if d.matchesRule(ruleID) {
			return true
		}
	}
	for _, d := range idx.byLine[line] {
		if d.Scope == ScopeLine && d.matchesRule(ruleID) {
			return true
		}
	}
	for _, d := range idx.byLine[line-1] {
		if d.Scope == ScopeNextLine && d.matchesRule(ruleID) {
			return true
		}
	}
	return false
}
