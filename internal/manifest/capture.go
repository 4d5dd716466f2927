package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultExcludes returns the closed set of directories excluded from
// capture unless the caller overrides it (spec.md §4.C).
func DefaultExcludes() []string {
	return []string{
		".git", ".hg", ".svn",
		"node_modules", "__pycache__", ".venv", "venv",
		"vendor", "dist", "build", ".tox",
		".idea", ".vscode",
	}
}

// AuditExcludes returns DefaultExcludes plus the store's own directory
// name, used by the AuditSetup/AuditComplete hooks (spec.md §4.C).
func AuditExcludes(storeDirName string) []string {
	return append(append([]string(nil), DefaultExcludes()...), storeDirName)
}

// DefaultBinaryExtensions is the closed set of suffixes treated as
// binary regardless of content sniffing (spec.md §3, §4.C).
func DefaultBinaryExtensions() []string {
	return []string{
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp",
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar",
		".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a",
		".ttf", ".otf", ".woff", ".woff2",
		".db", ".sqlite", ".sqlite3",
		".pdf", ".class", ".jar", ".pyc",
	}
}

// CaptureOptions configures Capture.
type CaptureOptions struct {
	// Excludes lists directory names/relative-prefixes pruned before
	// descent. Defaults to DefaultExcludes() when nil.
	Excludes []string
	// BinaryExtensions overrides DefaultBinaryExtensions() when non-nil.
	BinaryExtensions []string
}

func (o CaptureOptions) excludes() []string {
	if o.Excludes != nil {
		return o.Excludes
	}
	return DefaultExcludes()
}

func (o CaptureOptions) binaryExtensions() map[string]bool {
	exts := o.BinaryExtensions
	if exts == nil {
		exts = DefaultBinaryExtensions()
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}

// Capture walks root depth-first, pruning excluded directories before
// descent, and returns a Manifest of every regular file found, sorted
// by path ascending (spec.md §3, §4.C).
func Capture(root string, opts CaptureOptions) (*Manifest, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	binExts := opts.binaryExtensions()
	excludeSet := makeExcludeSet(opts.excludes())

	var entries []FileEntry
	var totalSize int64

	err = walkPruned(resolvedRoot, resolvedRoot, excludeSet, func(relPath, absPath string, info os.FileInfo) error {
		entry, ok, ferr := captureFile(resolvedRoot, relPath, absPath, info, binExts)
		if ferr != nil {
			// Per-file read/stat/decode failures are swallowed: skip
			// silently (spec.md §7 propagation policy).
			return nil
		}
		if !ok {
			return nil
		}
		entries = append(entries, entry)
		totalSize += entry.Size
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return &Manifest{
		Root:      resolvedRoot,
		Captured:  time.Now().UTC(),
		FileCount: len(entries),
		TotalSize: totalSize,
		Files:     entries,
	}, nil
}

func makeExcludeSet(excludes []string) map[string]bool {
	set := make(map[string]bool, len(excludes))
	for _, e := range excludes {
		set[e] = true
	}
	return set
}

// walkPruned performs a depth-first walk, removing excluded directory
// entries before descending into them and visiting remaining entries
// in lexical order (spec.md §4.C).
func walkPruned(root, dir string, excludeSet map[string]bool, visit func(relPath, absPath string, info os.FileInfo) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // unreadable directory: skip silently
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, de := range entries {
		absPath := filepath.Join(dir, de.Name())
		relPath, err := filepath.Rel(root, absPath)
		if err != nil {
			continue
		}
		relPath = filepath.ToSlash(relPath)

		if isExcluded(de.Name(), relPath, excludeSet) {
			continue
		}

		if de.IsDir() {
			if err := walkPruned(root, absPath, excludeSet, visit); err != nil {
				return err
			}
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}
		if err := visit(relPath, absPath, info); err != nil {
			return err
		}
	}
	return nil
}

func isExcluded(name, relPath string, excludeSet map[string]bool) bool {
	if excludeSet[name] {
		return true
	}
	return excludeSet[relPath]
}

func captureFile(root, relPath, absPath string, info os.FileInfo, binExts map[string]bool) (FileEntry, bool, error) {
	if !info.Mode().IsRegular() {
		return FileEntry{}, false, nil // symlinks, devices: skip silently
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return FileEntry{}, false, err
	}

	sum := sha256.Sum256(data)

	entry := FileEntry{
		Path:       relPath,
		Size:       int64(len(data)),
		SHA256:     hex.EncodeToString(sum[:]),
		Executable: info.Mode()&0o111 != 0,
	}

	if isBinary(relPath, data, binExts) {
		entry.Kind = KindBinary
		return entry, true, nil
	}

	entry.Kind = KindText
	entry.Content = string(data)
	return entry, true, nil
}

// isBinary implements spec.md §4.C's binary-detection rule: suffix in
// the closed binary-extension set, OR a NUL in the first 8 KiB, OR the
// whole content fails UTF-8 decode.
func isBinary(path string, data []byte, binExts map[string]bool) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if binExts[ext] {
		return true
	}
	sniffLen := len(data)
	if sniffLen > 8192 {
		sniffLen = 8192
	}
	if bytes.IndexByte(data[:sniffLen], 0) != -1 {
		return true
	}
	return !utf8.Valid(data)
}
