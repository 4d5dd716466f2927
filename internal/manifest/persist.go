package manifest

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phaser-dev/phaser/internal/store"
)

func parseManifestTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.000Z", s)
}

// yamlDoc mirrors Encode's output shape for decoding (spec.md §6). The
// binary-content `type` marker is redundant with FileEntry.Kind on
// read and is not modeled separately here.
type yamlDoc struct {
	Root      string        `yaml:"root"`
	Captured  string        `yaml:"captured"`
	FileCount int           `yaml:"file_count"`
	TotalSize int64         `yaml:"total_size_bytes"`
	Files     []yamlFileRow `yaml:"files"`
}

type yamlFileRow struct {
	Path       string `yaml:"path"`
	Kind       Kind   `yaml:"kind"`
	Size       int64  `yaml:"size"`
	SHA256     string `yaml:"sha256"`
	Executable bool   `yaml:"executable"`
	Content    string `yaml:"content"`
}

// Save writes m as YAML to s's manifest path for (auditID, stage),
// using the dependency-free encoder rather than a marshal call
// (spec.md §6).
func Save(s *store.Store, auditID, stage string, m *Manifest) error {
	return store.AtomicWrite(s.ManifestPath(auditID, stage), []byte(Encode(m)))
}

// Load reads and reconstructs the manifest persisted at s's manifest
// path for (auditID, stage). Decoding uses gopkg.in/yaml.v3, which
// parses the dependency-free encoder's output without issue since it
// emits standard YAML scalars and block literals.
func Load(s *store.Store, auditID, stage string) (*Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath(auditID, stage))
	if err != nil {
		return nil, err
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	captured, err := parseManifestTimestamp(doc.Captured)
	if err != nil {
		return nil, err
	}

	files := make([]FileEntry, 0, len(doc.Files))
	for _, row := range doc.Files {
		files = append(files, FileEntry{
			Path:       row.Path,
			Kind:       row.Kind,
			Size:       row.Size,
			SHA256:     row.SHA256,
			Content:    row.Content,
			Executable: row.Executable,
		})
	}

	return &Manifest{
		Root:      doc.Root,
		Captured:  captured,
		FileCount: doc.FileCount,
		TotalSize: doc.TotalSize,
		Files:     files,
	}, nil
}

// Compare loads both stages for auditID and returns nil (no error) if
// either is missing, per spec.md §4.C's "Comparing for an audit loads
// both stages and returns nothing if either is missing."
func Compare(s *store.Store, auditID string, opts DiffOptions) (*DiffResult, error) {
	pre, err := Load(s, auditID, "pre")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	post, err := Load(s, auditID, "post")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	result := Diff(pre, post, opts)
	return &result, nil
}
