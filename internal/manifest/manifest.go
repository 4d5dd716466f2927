// Package manifest implements the content-addressed snapshot-and-diff
// engine of spec.md §4.C: capturing a directory tree as a hashed
// manifest, comparing two manifests, and persisting manifests as YAML.
package manifest

import "time"

// Kind classifies a FileEntry as text or binary (spec.md §3).
type Kind string

const (
	KindText   Kind = "text"
	KindBinary Kind = "binary"
)

// FileEntry is one captured file (spec.md §3).
type FileEntry struct {
	Path       string `yaml:"path"`
	Kind       Kind   `yaml:"kind"`
	Size       int64  `yaml:"size"`
	SHA256     string `yaml:"sha256"`
	Content    string `yaml:"content,omitempty"`
	Executable bool   `yaml:"executable"`
}

// Manifest is a hashed snapshot of a directory tree (spec.md §3).
type Manifest struct {
	Root      string      `yaml:"root"`
	Captured  time.Time   `yaml:"captured"`
	FileCount int         `yaml:"file_count"`
	TotalSize int64       `yaml:"total_size_bytes"`
	Files     []FileEntry `yaml:"files"`
}

// ChangeKind classifies a FileChange (spec.md §3).
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// FileChange is one path's delta between two manifests (spec.md §3).
// Before/after hash and size are nullable: absent for added/deleted
// respectively.
type FileChange struct {
	Path       string
	Kind       ChangeKind
	BeforeSHA  *string
	AfterSHA   *string
	BeforeSize *int64
	AfterSize  *int64
	DiffLines  []string
}

// DiffResult is the outcome of comparing two manifests (spec.md §3).
type DiffResult struct {
	Added         []FileChange
	Modified      []FileChange
	Deleted       []FileChange
	UnchangedCount int
}

// TotalPaths returns the count of distinct paths spanned by the three
// change lists plus UnchangedCount — spec.md §8 invariant 2.
func (d DiffResult) TotalPaths() int {
	return len(d.Added) + len(d.Modified) + len(d.Deleted) + d.UnchangedCount
}
