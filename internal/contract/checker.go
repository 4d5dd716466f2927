package contract

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxPatternFileSize = 1 << 20 // 1 MiB, spec.md §4.D forbid_pattern

// ProposedFile is an in-memory candidate file state, used both for
// on-disk batch checks (content read from the tree) and the
// enforcement gate's reconstructed proposed state (spec.md §4.D, §4.H).
type ProposedFile struct {
	Path    string
	Content string
}

// CheckTree runs rule against every file under root matching the
// rule's glob, reading content from disk (spec.md §4.D batch check).
// Ignore directives are parsed from each matched file's own content.
//
// file_exists/file_not_exists are a pure presence test (spec.md §4.D)
// and are dispatched separately: routing them through globFiles would
// make a binary or oversized committed file invisible to the presence
// test, turning an existing file into a false "not found" violation.
func CheckTree(root string, rule Rule) (CheckResult, error) {
	if rule.Type == RuleFileExists || rule.Type == RuleFileNotExists {
		return checkExistenceOnDisk(root, rule)
	}
	files, err := globFiles(root, rule.FileGlob)
	if err != nil {
		return CheckResult{}, err
	}
	return checkRule(rule, files)
}

// CheckProposed runs rule against exactly one in-memory proposed file
// whose path is filtered through the rule's glob (spec.md §4.H:
// "the glob-filtered rule set is applied to the proposed path"),
// parsing ignore directives from the proposed content itself.
func CheckProposed(proposed ProposedFile, rule Rule) (CheckResult, error) {
	matched, err := MatchGlob(rule.FileGlob, proposed.Path)
	if err != nil {
		return CheckResult{}, err
	}
	if !matched {
		return CheckResult{RuleID: rule.ID, Passed: true}, nil
	}
	return checkRule(rule, []ProposedFile{proposed})
}

// globFiles walks root and returns every regular, readable, non-binary
// file under maxPatternFileSize whose relative path matches glob.
func globFiles(root, glob string) ([]ProposedFile, error) {
	var files []ProposedFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > maxPatternFileSize {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		matched, err := MatchGlob(glob, rel)
		if err != nil || !matched {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if bytes.IndexByte(data, 0) != -1 || !utf8.Valid(data) {
			return nil // binary: skip silently
		}
		files = append(files, ProposedFile{Path: rel, Content: string(data)})
		return nil
	})
	return files, err
}

func checkRule(rule Rule, files []ProposedFile) (CheckResult, error) {
	switch rule.Type {
	case RuleForbidPattern:
		return checkForbidPattern(rule, files)
	case RuleRequirePattern:
		return checkRequirePattern(rule, files)
	case RuleFileExists:
		return checkExistenceProposed(rule, files, true)
	case RuleFileNotExists:
		return checkExistenceProposed(rule, files, false)
	case RuleFileContains:
		return checkContains(rule, files, true)
	case RuleFileNotContains:
		return checkContains(rule, files, false)
	default:
		return CheckResult{RuleID: rule.ID, Passed: true}, nil
	}
}

func checkForbidPattern(rule Rule, files []ProposedFile) (CheckResult, error) {
	re, err := rule.CompiledPattern()
	if err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{RuleID: rule.ID, Passed: true}
	for _, f := range files {
		ignores := BuildIgnoreIndex(ParseIgnoreDirectives(f.Path, f.Content))
		lineNum := 0
		scanner := bufio.NewScanner(strings.NewReader(f.Content))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if ignores.Suppresses(f.Path, lineNum, rule.ID) {
				continue
			}
			n := lineNum
			result.Violations = append(result.Violations, Violation{
				RuleID:  rule.ID,
				Path:    f.Path,
				Line:    &n,
				Matched: line[loc[0]:loc[1]],
				Message: rule.Message,
			})
		}
	}
	result.Passed = len(result.Violations) == 0
	return result, nil
}

func checkRequirePattern(rule Rule, files []ProposedFile) (CheckResult, error) {
	re, err := rule.CompiledPattern()
	if err != nil {
		return CheckResult{}, err
	}
	for _, f := range files {
		if re.MatchString(f.Content) {
			return CheckResult{RuleID: rule.ID, Passed: true}, nil
		}
	}
	return CheckResult{
		RuleID: rule.ID,
		Passed: false,
		Violations: []Violation{{
			RuleID:  rule.ID,
			Path:    rule.FileGlob,
			Message: rule.Message,
		}},
	}, nil
}

// checkExistenceProposed handles file_exists/file_not_exists for
// CheckProposed's single already-resolved in-memory file: glob
// filtering and content resolution already happened in CheckProposed,
// so presence is simply "is there a proposed file here at all."
func checkExistenceProposed(rule Rule, files []ProposedFile, wantExists bool) (CheckResult, error) {
	exists := len(files) > 0
	if exists == wantExists {
		return CheckResult{RuleID: rule.ID, Passed: true}, nil
	}
	return CheckResult{
		RuleID: rule.ID,
		Passed: false,
		Violations: []Violation{{
			RuleID:  rule.ID,
			Path:    rule.FileGlob,
			Message: rule.Message,
		}},
	}, nil
}

// checkExistenceOnDisk handles file_exists/file_not_exists for
// CheckTree: a raw stat/glob presence test against root, independent
// of file size, binary-ness, or UTF-8 validity (spec.md §4.D).
func checkExistenceOnDisk(root string, rule Rule) (CheckResult, error) {
	matches, err := pathsMatchingGlob(root, rule.FileGlob)
	if err != nil {
		return CheckResult{}, err
	}
	wantExists := rule.Type == RuleFileExists
	exists := len(matches) > 0
	if exists == wantExists {
		return CheckResult{RuleID: rule.ID, Passed: true}, nil
	}
	return CheckResult{
		RuleID: rule.ID,
		Passed: false,
		Violations: []Violation{{
			RuleID:  rule.ID,
			Path:    rule.FileGlob,
			Message: rule.Message,
		}},
	}, nil
}

// pathsMatchingGlob returns every regular-file relative path under
// root that the glob matches, without reading or filtering by
// content. A glob with no wildcard metacharacters is treated as a
// literal path looked up with a single stat.
func pathsMatchingGlob(root, glob string) ([]string, error) {
	if !strings.ContainsAny(glob, "*?[") {
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(glob))); err == nil && !info.IsDir() {
			return []string{glob}, nil
		}
		return nil, nil
	}

	var matches []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		matched, err := MatchGlob(glob, rel)
		if err != nil || !matched {
			return nil
		}
		matches = append(matches, rel)
		return nil
	})
	return matches, err
}

func checkContains(rule Rule, files []ProposedFile, wantContains bool) (CheckResult, error) {
	if len(files) == 0 {
		return CheckResult{RuleID: rule.ID, Passed: true}, nil
	}
	f := files[0]
	found := false
	scanner := bufio.NewScanner(strings.NewReader(f.Content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), *rule.Pattern) {
			found = true
			break
		}
	}
	if found == wantContains {
		return CheckResult{RuleID: rule.ID, Passed: true}, nil
	}
	return CheckResult{
		RuleID: rule.ID,
		Passed: false,
		Violations: []Violation{{
			RuleID:  rule.ID,
			Path:    f.Path,
			Message: rule.Message,
		}},
	}, nil
}

// BatchCheck checks every enabled contract in contracts against root,
// stopping at the first failing contract when failFast is set (spec.md
// §4.D Batch check).
func BatchCheck(root string, contracts []Contract, failFast bool) ([]CheckResult, error) {
	var results []CheckResult
	for _, c := range contracts {
		if !c.Enabled {
			continue
		}
		res, err := CheckTree(root, c.Rule)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if failFast && !res.Passed {
			break
		}
	}
	return results, nil
}
