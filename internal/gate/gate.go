// Package gate implements the enforcement gate of spec.md §4.H: a
// single-pass process that reads one PreToolUse/PostToolUse JSON
// envelope on stdin, reconstructs the tool's proposed file state,
// checks it against loaded contracts, and emits an allow/deny decision
// in the hook's expected JSON shape.
package gate

import (
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/phaser-dev/phaser/internal/contract"
)

// Severity is the CLI's violation filter (spec.md §4.H Decision).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityAll     Severity = "all"
)

// Envelope is the stdin JSON payload (spec.md §4.H).
type Envelope struct {
	Event     string         `json:"event"`
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
	Cwd       string         `json:"cwd"`
}

// ParseEnvelope decodes raw stdin bytes, returning ErrInvalidJSON on
// malformed input (spec.md §4.H: exit code 3 on bad JSON).
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, ErrInvalidJSON
	}
	return env, nil
}

// Skip explains why no proposed file could be reconstructed; a Skip is
// never itself a denial (spec.md §4.H Failure semantics: "fail open
// for ambiguous inputs ... by skipping and allowing").
type Skip struct {
	Reason string
}

// Reconstructed is the outcome of reconstructing one proposed file.
type Reconstructed struct {
	File  contract.ProposedFile
	IsNew bool
	Skip  *Skip
}

// Reconstruct dispatches on env.ToolName per spec.md §4.H Reconstruction.
func Reconstruct(env Envelope) Reconstructed {
	switch env.ToolName {
	case "Write":
		return reconstructWrite(env.ToolInput)
	case "Edit":
		return reconstructEdit(env.ToolInput)
	default:
		return Reconstructed{Skip: &Skip{Reason: "unsupported tool: " + env.ToolName}}
	}
}

func reconstructWrite(input map[string]any) Reconstructed {
	path, _ := input["file_path"].(string)
	if path == "" {
		return Reconstructed{Skip: &Skip{Reason: "missing file_path"}}
	}
	content, _ := input["content"].(string)
	if !isTextValid(content) {
		return Reconstructed{Skip: &Skip{Reason: "binary content"}}
	}

	_, err := os.Stat(path)
	isNew := err != nil

	return Reconstructed{
		File:  contract.ProposedFile{Path: path, Content: content},
		IsNew: isNew,
	}
}

func reconstructEdit(input map[string]any) Reconstructed {
	path, _ := input["file_path"].(string)
	if path == "" {
		return Reconstructed{Skip: &Skip{Reason: "missing file_path"}}
	}
	oldStr, _ := input["old_str"].(string)
	newStr, _ := input["new_str"].(string)

	data, err := os.ReadFile(path)
	if err != nil {
		return Reconstructed{Skip: &Skip{Reason: "file does not exist"}}
	}
	if !utf8.Valid(data) {
		return Reconstructed{Skip: &Skip{Reason: "file is not valid UTF-8"}}
	}
	current := string(data)

	if !strings.Contains(current, oldStr) {
		return Reconstructed{Skip: &Skip{Reason: "old_str not found in file"}}
	}

	proposed := strings.Replace(current, oldStr, newStr, 1)
	return Reconstructed{File: contract.ProposedFile{Path: path, Content: proposed}}
}

// isTextValid reports whether content is usable as a text-file body:
// no NUL byte, and no more than 10% non-printable characters outside
// tab/CR/LF (spec.md §4.H Reconstruction, Write).
func isTextValid(content string) bool {
	if strings.IndexByte(content, 0) != -1 {
		return false
	}
	if content == "" {
		return true
	}

	total := 0
	nonPrintable := 0
	for _, r := range content {
		total++
		if r == '\t' || r == '\r' || r == '\n' {
			continue
		}
		if r < 0x20 || r == 0xFFFD {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(total) <= 0.10
}

// Decision is the aggregated outcome of checking one reconstructed file
// against the loaded, severity-filtered contract set.
type Decision struct {
	Denied     bool
	Violations []contract.Violation
}

// Decide loads contracts from projectDir (higher precedence) and
// userDir, filters by severity, and runs every matching, enabled rule
// against the reconstructed file in-memory (spec.md §4.H Decision).
func Decide(projectDir, userDir string, severity Severity, file contract.ProposedFile) (Decision, error) {
	loaded := contract.Load(projectDir, userDir)

	var decision Decision
	for _, c := range loaded.Contracts {
		if !c.Enabled {
			continue
		}
		if !severityMatches(severity, c.Rule.Severity) {
			continue
		}
		res, err := contract.CheckProposed(file, c.Rule)
		if err != nil {
			return Decision{}, err
		}
		if !res.Passed {
			decision.Violations = append(decision.Violations, res.Violations...)
		}
	}
	decision.Denied = len(decision.Violations) > 0
	return decision, nil
}

func severityMatches(filter Severity, ruleSeverity contract.Severity) bool {
	switch filter {
	case SeverityAll, "":
		return true
	case SeverityError:
		return ruleSeverity == contract.SeverityError
	case SeverityWarning:
		return ruleSeverity == contract.SeverityWarning
	default:
		return true
	}
}

func reasonFromViolations(violations []contract.Violation) string {
	ids := make([]string, 0, len(violations))
	seen := make(map[string]bool, len(violations))
	for _, v := range violations {
		if seen[v.RuleID] {
			continue
		}
		seen[v.RuleID] = true
		ids = append(ids, v.RuleID)
	}
	return "blocked by contract rule(s): " + strings.Join(ids, ", ")
}

// PreToolUseOutput builds the PreToolUse hook response shape (spec.md
// §4.H Output).
func PreToolUseOutput(decision Decision) map[string]any {
	permissionDecision := "allow"
	reason := ""
	if decision.Denied {
		permissionDecision = "deny"
		reason = reasonFromViolations(decision.Violations)
	}
	return map[string]any{
		"hookSpecificOutput": map[string]any{
			"hookEventName":            "PreToolUse",
			"permissionDecision":       permissionDecision,
			"permissionDecisionReason": reason,
		},
	}
}

// PostToolUseOutput builds the PostToolUse hook response shape
// (spec.md §4.H Output): an empty object when allowed, a block
// decision with additionalContext when denied.
func PostToolUseOutput(decision Decision) map[string]any {
	if !decision.Denied {
		return map[string]any{}
	}
	reason := reasonFromViolations(decision.Violations)
	return map[string]any{
		"decision": "block",
		"reason":   reason,
		"hookSpecificOutput": map[string]any{
			"hookEventName":     "PostToolUse",
			"additionalContext": reason,
		},
	}
}

// AllowOutput builds the output for a skipped reconstruction: always
// allow, for either event kind (spec.md §4.H Failure semantics).
func AllowOutput(event string, skip Skip) map[string]any {
	if event == "PostToolUse" {
		return map[string]any{}
	}
	return map[string]any{
		"hookSpecificOutput": map[string]any{
			"hookEventName":            "PreToolUse",
			"permissionDecision":       "allow",
			"permissionDecisionReason": skip.Reason,
		},
	}
}
