package manifest

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// reservedWords are YAML scalars that must be single-quoted to avoid
// being parsed as a non-string type (spec.md §6).
var reservedWords = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true,
	"on": true, "off": true, "null": true, "~": true,
	"y": true, "n": true, "Y": true, "N": true,
}

// Encode renders m as the CORE's dependency-free YAML dialect, matching
// the shape of §3 exactly: a document with root/captured/file_count/
// total_size_bytes scalars followed by a files sequence (spec.md §6).
// It does not call into gopkg.in/yaml.v3; Load in persist.go uses that
// library only to decode.
func Encode(m *Manifest) string {
	var b strings.Builder

	b.WriteString("root: ")
	b.WriteString(scalar(m.Root))
	b.WriteByte('\n')

	b.WriteString("captured: ")
	b.WriteString(scalar(m.Captured.UTC().Format("2006-01-02T15:04:05.000Z")))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "file_count: %d\n", m.FileCount)
	fmt.Fprintf(&b, "total_size_bytes: %d\n", m.TotalSize)

	if len(m.Files) == 0 {
		b.WriteString("files: []\n")
		return b.String()
	}

	b.WriteString("files:\n")
	for _, f := range m.Files {
		encodeFileEntry(&b, f)
	}
	return b.String()
}

func encodeFileEntry(b *strings.Builder, f FileEntry) {
	b.WriteString("  - path: ")
	b.WriteString(scalar(f.Path))
	b.WriteByte('\n')

	b.WriteString("    kind: ")
	b.WriteString(scalar(string(f.Kind)))
	b.WriteByte('\n')

	fmt.Fprintf(b, "    size: %d\n", f.Size)

	b.WriteString("    sha256: ")
	b.WriteString(scalar(f.SHA256))
	b.WriteByte('\n')

	fmt.Fprintf(b, "    executable: %t\n", f.Executable)

	if f.Kind == KindBinary {
		b.WriteString("    type: binary\n")
		if f.Content == "" {
			// Capture records no content for binary entries (spec.md
			// §4.C); content is only present when a caller opted to
			// retain binary bytes, in which case it is base64.
			b.WriteString("    content: null\n")
			return
		}
		encodeField(b, "    ", "content", base64.StdEncoding.EncodeToString([]byte(f.Content)))
		return
	}

	encodeField(b, "    ", "content", f.Content)
}

// encodeField writes `{indent}{key}: {value}` using a literal block
// scalar when value is multiline or exceeds 80 chars, else a scalar
// (quoted per YAML reserved-word/special-char rules).
func encodeField(b *strings.Builder, indent, key, value string) {
	if value == "" {
		fmt.Fprintf(b, "%s%s: \"\"\n", indent, key)
		return
	}
	if strings.Contains(value, "\n") || len(value) > 80 {
		fmt.Fprintf(b, "%s%s: |\n", indent, key)
		blockIndent := indent + "  "
		lines := strings.Split(value, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			b.WriteString(blockIndent)
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return
	}
	fmt.Fprintf(b, "%s%s: %s\n", indent, key, scalar(value))
}

// scalar quotes s if needed: reserved words, values that look like
// numbers, empty string, or strings containing YAML special
// characters (`:`, `#`, `'`, `"`, `[`, `]`, `{`, `}`, `,`, `&`, `*`,
// `!`, `|`, `>`, `%`, `@`, backtick, or leading/trailing whitespace).
// Internal apostrophes are escaped as `''` once quoting is chosen.
func scalar(s string) string {
	if s == "" {
		return `""`
	}
	if needsQuoting(s) {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return s
}

func needsQuoting(s string) bool {
	if reservedWords[s] {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if strings.TrimSpace(s) != s {
		return true
	}
	if strings.ContainsAny(s, ":#'\"[]{},&*!|>%@`") {
		return true
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "?") {
		return true
	}
	return false
}
