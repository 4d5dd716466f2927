package store

import "path/filepath"

// ManifestPath returns the path for an audit's pre/post manifest
// (spec.md §6: manifests/{audit}-{pre|post}.yaml).
func (s *Store) ManifestPath(auditID, stage string) string {
	return filepath.Join(s.Root, "manifests", auditID+"-"+stage+".yaml")
}

// ContractPath returns the path for a rule's persisted YAML
// (spec.md §6: contracts/{rule_id}.yaml).
func (s *Store) ContractPath(ruleID string) string {
	return filepath.Join(s.Root, "contracts", ruleID+".yaml")
}

// ContractsDir returns the project-local contracts directory root.
func (s *Store) ContractsDir() string {
	return filepath.Join(s.Root, "contracts")
}

// ConfigPath returns the path to config.yaml.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.Root, "config.yaml")
}

// SandboxContextPath returns the path to the active sandbox context
// marker (spec.md §6: simulation.yaml).
func (s *Store) SandboxContextPath() string {
	return filepath.Join(s.Root, "simulation.yaml")
}

// BranchContextPath returns the path to the active branch context
// marker (spec.md §6: branches.yaml).
func (s *Store) BranchContextPath() string {
	return filepath.Join(s.Root, "branches.yaml")
}
