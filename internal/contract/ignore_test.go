package contract

import "testing"

func TestParseIgnoreDirectivesLineScope(t *testing.T) {
	content := "fmt.Println(\"debug\") // phaser:ignore no-println\n"
	directives := ParseIgnoreDirectives("main.go", content)
	if len(directives) != 1 {
		t.Fatalf("expected 1 directive, got %d", len(directives))
	}
	d := directives[0]
	if d.Scope != ScopeLine || d.Line != 1 || len(d.RuleIDs) != 1 || d.RuleIDs[0] != "no-println" {
		t.Fatalf("unexpected directive: %+v", d)
	}
}

func TestParseIgnoreDirectivesNextLineScope(t *testing.T) {
	content := "// phaser:ignore-next-line no-println\nfmt.Println(\"debug\")\n"
	directives := ParseIgnoreDirectives("main.go", content)
	if len(directives) != 1 || directives[0].Scope != ScopeNextLine {
		t.Fatalf("unexpected directives: %+v", directives)
	}
}

func TestParseIgnoreDirectivesUnknownExtensionYieldsNone(t *testing.T) {
	content := "something phaser:ignore rule-1\n"
	directives := ParseIgnoreDirectives("data.bin", content)
	if directives != nil {
		t.Fatalf("expected no directives for an unrecognized comment style, got %+v", directives)
	}
}

func TestIgnoreIndexSuppressesMatchingRuleOnSameLine(t *testing.T) {
	idx := BuildIgnoreIndex([]IgnoreDirective{{RuleIDs: []string{"r1"}, Line: 3, Scope: ScopeLine}})
	if !idx.Suppresses("f.go", 3, "r1") {
		t.Fatalf("expected suppression on matching line/rule")
	}
	if idx.Suppresses("f.go", 3, "r2") {
		t.Fatalf("expected no suppression for a different rule id")
	}
	if idx.Suppresses("f.go", 4, "r1") {
		t.Fatalf("expected no suppression on a different line for scope line")
	}
}

func TestIgnoreIndexNextLineSuppressesFollowingLine(t *testing.T) {
	idx := BuildIgnoreIndex([]IgnoreDirective{{Line: 3, Scope: ScopeNextLine}})
	if !idx.Suppresses("f.go", 4, "anything") {
		t.Fatalf("expected next-line directive to suppress the following line")
	}
	if idx.Suppresses("f.go", 3, "anything") {
		t.Fatalf("expected next-line directive not to suppress its own line")
	}
}

func TestIgnoreIndexAllScopeSuppressesEverywhere(t *testing.T) {
	idx := BuildIgnoreIndex([]IgnoreDirective{{RuleIDs: []string{"r1"}, Scope: ScopeAll}})
	if !idx.Suppresses("f.go", 100, "r1") {
		t.Fatalf("expected all-scope directive to suppress any line")
	}
	if idx.Suppresses("f.go", 100, "r2") {
		t.Fatalf("expected all-scope directive to be rule-id-scoped")
	}
}
