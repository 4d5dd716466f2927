package contract

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadWarning records a per-file parse failure that did not abort the
// load (spec.md §4.D: "parse failures ... become warnings attached to
// the load result; the loader does not abort").
type LoadWarning struct {
	Path string
	Err  error
}

// LoadResult is the outcome of loading contracts from both source
// directories.
type LoadResult struct {
	Contracts []Contract
	Warnings  []LoadWarning
}

// Load concatenates contracts from projectDir (higher precedence) and
// userDir (lower), silently discarding a userDir rule whose id already
// appeared in projectDir (spec.md §4.D Sources and precedence).
func Load(projectDir, userDir string) LoadResult {
	var result LoadResult

	projectContracts := loadDir(projectDir, &result.Warnings)
	seen := make(map[string]bool, len(projectContracts))
	for _, c := range projectContracts {
		seen[c.Rule.ID] = true
	}
	result.Contracts = append(result.Contracts, projectContracts...)

	for _, c := range loadDir(userDir, &result.Warnings) {
		if seen[c.Rule.ID] {
			continue
		}
		seen[c.Rule.ID] = true
		result.Contracts = append(result.Contracts, c)
	}

	return result
}

func loadDir(dir string, warnings *[]LoadWarning) []Contract {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // missing/unreadable source directory: treat as empty
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	contracts := make([]Contract, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		c, err := loadFile(path)
		if err != nil {
			*warnings = append(*warnings, LoadWarning{Path: path, Err: err})
			continue
		}
		contracts = append(contracts, c)
	}
	return contracts
}

// LoadFile reads and validates a single contract YAML file, for
// callers (the CLI's enable/disable commands) that address one
// contract by path rather than loading a whole directory.
func LoadFile(path string) (Contract, error) {
	return loadFile(path)
}

func loadFile(path string) (Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Contract{}, err
	}
	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Contract{}, err
	}
	if err := c.Rule.Validate(); err != nil {
		return Contract{}, err
	}
	return c, nil
}

// Save persists c as YAML at path (contracts/{rule_id}.yaml), via the
// caller-provided atomic writer.
func Save(path string, c Contract, write func(path string, data []byte) error) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return write(path, data)
}
