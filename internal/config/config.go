// Package config manages phaser's config.yaml: a tree deep-merged over
// hard-coded defaults, with dot-path leaf overrides and a reset-to-default
// operation. Modeled on the teacher's internal/config/config.go, which
// applies the same deep-merge-over-defaults strategy for AgentOps.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds phaser's persisted configuration (spec.md §4.A, §6).
type Config struct {
	Manifest  ManifestConfig  `yaml:"manifest"`
	Contracts ContractsConfig `yaml:"contracts"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Branch    BranchConfig    `yaml:"branch"`
}

// ManifestConfig controls capture/diff defaults.
type ManifestConfig struct {
	ExcludeDirs      []string `yaml:"exclude_dirs"`
	DiffSizeLimit    int      `yaml:"diff_size_limit_bytes"`
	BinaryExtensions []string `yaml:"binary_extensions"`
}

// ContractsConfig controls rule loading defaults.
type ContractsConfig struct {
	MaxPatternFileSize int `yaml:"max_pattern_file_size_bytes"`
}

// SandboxConfig controls dry-run execution defaults.
type SandboxConfig struct {
	StashMessagePrefix string `yaml:"stash_message_prefix"`
}

// BranchConfig controls branch-per-phase execution defaults.
type BranchConfig struct {
	MergeStrategy string `yaml:"merge_strategy"`
}

const (
	defaultDiffSizeLimit      = 100_000
	defaultMaxPatternFileSize = 1 << 20 // 1 MiB
	defaultStashMessagePrefix = "phaser-sandbox"
	defaultMergeStrategy      = "squash"
)

// defaultExcludeDirs is the closed set of directories skipped by
// capture unless the caller overrides it (spec.md §4.C).
func defaultExcludeDirs() []string {
	return []string{
		".git", ".hg", ".svn",
		"node_modules", "__pycache__", ".venv", "venv",
		"vendor", "dist", "build", ".tox",
		".idea", ".vscode", ".DS_Store",
	}
}

// defaultBinaryExtensions is the closed set of suffixes treated as
// binary regardless of content sniffing (spec.md §4.C).
func defaultBinaryExtensions() []string {
	return []string{
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp",
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar",
		".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a",
		".ttf", ".otf", ".woff", ".woff2",
		".db", ".sqlite", ".sqlite3",
		".pdf", ".class", ".jar", ".pyc",
	}
}

// Default returns phaser's hard-coded default configuration tree.
func Default() *Config {
	return &Config{
		Manifest: ManifestConfig{
			ExcludeDirs:      defaultExcludeDirs(),
			DiffSizeLimit:    defaultDiffSizeLimit,
			BinaryExtensions: defaultBinaryExtensions(),
		},
		Contracts: ContractsConfig{
			MaxPatternFileSize: defaultMaxPatternFileSize,
		},
		Sandbox: SandboxConfig{
			StashMessagePrefix: defaultStashMessagePrefix,
		},
		Branch: BranchConfig{
			MergeStrategy: defaultMergeStrategy,
		},
	}
}

// Load reads root/config.yaml and deep-merges it over Default(). A
// missing file returns the default without creating one (spec.md §4.A).
func Load(root string) (*Config, error) {
	path := filepath.Join(root, "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return mergeDefaults(cfg), nil
}

// mergeDefaults fills in any zero-value slice/scalar left empty after
// unmarshal so a partial user config still inherits unset leaves from
// the default tree (the "deep merge" of spec.md §4.A).
func mergeDefaults(cfg *Config) *Config {
	def := Default()
	if len(cfg.Manifest.ExcludeDirs) == 0 {
		cfg.Manifest.ExcludeDirs = def.Manifest.ExcludeDirs
	}
	if len(cfg.Manifest.BinaryExtensions) == 0 {
		cfg.Manifest.BinaryExtensions = def.Manifest.BinaryExtensions
	}
	if cfg.Manifest.DiffSizeLimit == 0 {
		cfg.Manifest.DiffSizeLimit = def.Manifest.DiffSizeLimit
	}
	if cfg.Contracts.MaxPatternFileSize == 0 {
		cfg.Contracts.MaxPatternFileSize = def.Contracts.MaxPatternFileSize
	}
	if cfg.Sandbox.StashMessagePrefix == "" {
		cfg.Sandbox.StashMessagePrefix = def.Sandbox.StashMessagePrefix
	}
	if cfg.Branch.MergeStrategy == "" {
		cfg.Branch.MergeStrategy = def.Branch.MergeStrategy
	}
	return cfg
}

// Save writes cfg as root/config.yaml.
func Save(root string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, "config.yaml"), data, 0o600)
}

// Reset writes the default configuration verbatim, discarding overrides.
func Reset(root string) error {
	return Save(root, Default())
}

// SetPath sets a single leaf identified by a dot-path key (e.g.
// "sandbox.stash_message_prefix") to value, without validating the
// leaf's type against the field it targets (spec.md §9 OQ4: left as a
// documented hardening gap).
func SetPath(root, key, value string) error {
	cfg, err := Load(root)
	if err != nil {
		return err
	}

	// Round-trip through a generic map so dot-path assignment doesn't
	// need per-field reflection plumbing.
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}

	setDotPath(tree, strings.Split(key, "."), parseScalar(value))

	out, err := yaml.Marshal(tree)
	if err != nil {
		return err
	}
	var merged Config
	if err := yaml.Unmarshal(out, &merged); err != nil {
		return err
	}
	return Save(root, mergeDefaults(&merged))
}

func setDotPath(tree map[string]any, parts []string, value any) {
	if len(parts) == 0 {
		return
	}
	if len(parts) == 1 {
		tree[parts[0]] = value
		return
	}
	next, ok := tree[parts[0]].(map[string]any)
	if !ok {
		next = map[string]any{}
		tree[parts[0]] = next
	}
	setDotPath(next, parts[1:], value)
}

// parseScalar converts a CLI-provided string into a bool, int, or
// string, matching the leaf types Config actually holds.
func parseScalar(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return value
}
