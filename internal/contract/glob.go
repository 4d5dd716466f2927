package contract

import (
	"path/filepath"
	"regexp"
	"strings"
)

// compileGlob translates a `**`-aware glob into an anchored regex over
// a POSIX-form relative path, per spec.md §4.D: `**` matches anything
// (including `/`), `*` matches anything except `/`, `.` is literal.
// A `**/` segment also matches zero directories, so `**/*.go` matches
// both `main.go` and `a/b/main.go`. Only globs containing `**` go
// through this path; MatchGlob sends other globs to filepath.Match or
// a literal comparison.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case i+2 < len(runes) && runes[i] == '*' && runes[i+1] == '*' && runes[i+2] == '/':
			b.WriteString("(?:.*/)?")
			i += 2
		case i+1 < len(runes) && runes[i] == '*' && runes[i+1] == '*':
			b.WriteString(".*")
			i++
		case runes[i] == '*':
			b.WriteString("[^/]*")
		case runes[i] == '.':
			b.WriteString(`\.`)
		case runes[i] == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

// hasMeta reports whether pattern contains glob metacharacters that
// need the regex-based translation, as opposed to a literal path or a
// standard single-level fnmatch.
func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// MatchGlob reports whether relPath (POSIX-form, relative to the
// contract check root) matches pattern, using the `**`-aware regex
// translation when pattern contains `**`, filepath.Match (mirroring a
// standard fnmatch) when it contains other metacharacters, and a
// literal comparison otherwise.
func MatchGlob(pattern, relPath string) (bool, error) {
	if strings.Contains(pattern, "**") {
		re, err := compileGlob(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(relPath), nil
	}
	if hasMeta(pattern) {
		return filepath.Match(pattern, relPath)
	}
	return pattern == relPath, nil
}
