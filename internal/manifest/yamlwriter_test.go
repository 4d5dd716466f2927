package manifest

import (
	"strings"
	"testing"
	"time"
)

func TestEncodeQuotesReservedWordsAndSpecialChars(t *testing.T) {
	m := &Manifest{
		Root:      "true", // reserved word as a path — contrived, exercises quoting
		Captured:  time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		FileCount: 1,
		TotalSize: 3,
		Files: []FileEntry{
			entry("a: b.txt", "x", KindText),
		},
	}
	out := Encode(m)

	if !strings.Contains(out, "root: 'true'") {
		t.Fatalf("expected reserved word to be quoted, got:\n%s", out)
	}
	if !strings.Contains(out, "path: 'a: b.txt'") {
		t.Fatalf("expected colon-bearing path to be quoted, got:\n%s", out)
	}
}

func TestEncodeEscapesInternalApostrophe(t *testing.T) {
	got := scalar("it's here: ok")
	want := "'it''s here: ok'"
	if got != want {
		t.Fatalf("scalar(%q) = %q, want %q", "it's here: ok", got, want)
	}
}

func TestEncodeUsesLiteralBlockForMultilineAndLongContent(t *testing.T) {
	m := &Manifest{Files: []FileEntry{
		entry("multi.txt", "line one\nline two", KindText),
		entry("long.txt", strings.Repeat("y", 90), KindText),
	}}
	out := Encode(m)

	if !strings.Contains(out, "content: |\n      line one\n      line two\n") {
		t.Fatalf("expected literal block scalar for multiline content, got:\n%s", out)
	}
	if !strings.Contains(out, "content: |\n      "+strings.Repeat("y", 90)) {
		t.Fatalf("expected literal block scalar for >80-char content, got:\n%s", out)
	}
}

func TestEncodeBase64EncodesPopulatedBinaryContent(t *testing.T) {
	m := &Manifest{Files: []FileEntry{
		{Path: "img.png", Kind: KindBinary, Size: 3, SHA256: "abc", Content: "xyz"},
	}}
	out := Encode(m)
	if !strings.Contains(out, "type: binary") {
		t.Fatalf("expected type: binary marker, got:\n%s", out)
	}
	if !strings.Contains(out, "eHl6") { // base64("xyz")
		t.Fatalf("expected base64-encoded content, got:\n%s", out)
	}
}

func TestEncodeNullContentForEmptyBinaryEntry(t *testing.T) {
	m := &Manifest{Files: []FileEntry{
		{Path: "img.png", Kind: KindBinary, Size: 3, SHA256: "abc"},
	}}
	out := Encode(m)
	if !strings.Contains(out, "content: null") {
		t.Fatalf("expected null content for capture-time binary entry, got:\n%s", out)
	}
}
