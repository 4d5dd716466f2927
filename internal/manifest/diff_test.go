package manifest

import (
	"strings"
	"testing"
	"time"
)

func entry(path, content string, kind Kind) FileEntry {
	return FileEntry{
		Path:    path,
		Kind:    kind,
		Size:    int64(len(content)),
		SHA256:  content, // test-only stand-in; equality is what matters here
		Content: content,
	}
}

func TestDiffPartitionsAddedModifiedDeletedUnchanged(t *testing.T) {
	before := &Manifest{Captured: time.Now(), Files: []FileEntry{
		entry("keep.txt", "same", KindText),
		entry("gone.txt", "bye", KindText),
		entry("change.txt", "before", KindText),
	}}
	after := &Manifest{Captured: time.Now(), Files: []FileEntry{
		entry("keep.txt", "same", KindText),
		entry("change.txt", "after", KindText),
		entry("new.txt", "fresh", KindText),
	}}

	result := Diff(before, after, DiffOptions{})

	if len(result.Added) != 1 || result.Added[0].Path != "new.txt" {
		t.Fatalf("unexpected Added: %+v", result.Added)
	}
	if len(result.Deleted) != 1 || result.Deleted[0].Path != "gone.txt" {
		t.Fatalf("unexpected Deleted: %+v", result.Deleted)
	}
	if len(result.Modified) != 1 || result.Modified[0].Path != "change.txt" {
		t.Fatalf("unexpected Modified: %+v", result.Modified)
	}
	if result.UnchangedCount != 1 {
		t.Fatalf("expected 1 unchanged, got %d", result.UnchangedCount)
	}
	if result.TotalPaths() != 4 {
		t.Fatalf("expected TotalPaths == 4, got %d", result.TotalPaths())
	}
}

func TestDiffAddedHasNilBeforeFields(t *testing.T) {
	before := &Manifest{Files: nil}
	after := &Manifest{Files: []FileEntry{entry("new.txt", "x", KindText)}}

	result := Diff(before, after, DiffOptions{})
	if len(result.Added) != 1 {
		t.Fatalf("expected 1 added")
	}
	c := result.Added[0]
	if c.BeforeSHA != nil || c.BeforeSize != nil {
		t.Fatalf("expected nil before-fields on an added change, got %+v", c)
	}
	if c.AfterSHA == nil || c.AfterSize == nil {
		t.Fatalf("expected populated after-fields on an added change")
	}
}

func TestDiffBinaryModificationRecordsLiteralMarker(t *testing.T) {
	before := &Manifest{Files: []FileEntry{{Path: "img.png", Kind: KindBinary, SHA256: "aaa", Size: 10}}}
	after := &Manifest{Files: []FileEntry{{Path: "img.png", Kind: KindBinary, SHA256: "bbb", Size: 12}}}

	result := Diff(before, after, DiffOptions{})
	if len(result.Modified) != 1 {
		t.Fatalf("expected 1 modified")
	}
	if len(result.Modified[0].DiffLines) != 1 || result.Modified[0].DiffLines[0] != "(binary file changed)" {
		t.Fatalf("expected binary marker, got %v", result.Modified[0].DiffLines)
	}
}

func TestDiffOversizedTextRecordsSkippedMarker(t *testing.T) {
	big := strings.Repeat("x", 200)
	before := &Manifest{Files: []FileEntry{{Path: "big.txt", Kind: KindText, SHA256: "aaa", Size: int64(len(big)), Content: big}}}
	after := &Manifest{Files: []FileEntry{{Path: "big.txt", Kind: KindText, SHA256: "bbb", Size: int64(len(big) + 1), Content: big + "y"}}}

	result := Diff(before, after, DiffOptions{SizeLimit: 10})
	if len(result.Modified) != 1 {
		t.Fatalf("expected 1 modified")
	}
	if result.Modified[0].DiffLines[0] != "(diff skipped: file too large)" {
		t.Fatalf("expected size-skip marker, got %v", result.Modified[0].DiffLines)
	}
}

func TestUnifiedDiffProducesHeadersAndHunk(t *testing.T) {
	lines := unifiedDiff("f.txt", "a\nb\nc\n", "a\nx\nc\n")
	if len(lines) < 2 {
		t.Fatalf("expected header lines, got %v", lines)
	}
	if lines[0] != "--- a/f.txt" || lines[1] != "+++ b/f.txt" {
		t.Fatalf("unexpected headers: %v", lines[:2])
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "-b") || !strings.Contains(joined, "+x") {
		t.Fatalf("expected change lines in diff, got:\n%s", joined)
	}
}

func TestUnifiedDiffEmptyWhenNoChange(t *testing.T) {
	lines := unifiedDiff("f.txt", "a\nb\n", "a\nb\n")
	if lines != nil {
		t.Fatalf("expected no diff output for identical content, got %v", lines)
	}
}
