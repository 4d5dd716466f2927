package main

import (
	"os"
	"path/filepath"

	"github.com/phaser-dev/phaser/internal/store"
)

// writeFile is the atomic-write primitive the contract commands pass to
// contract.Save, so contract YAML persistence goes through the same
// lock/fsync/rename path as the rest of the store.
func writeFile(path string, data []byte) error {
	return store.AtomicWrite(path, data)
}

// userContractsDir returns the user-home contracts directory (spec.md
// §4.D's lower-precedence source), independent of the resolved project
// store root.
func userContractsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, store.DefaultDirName, "contracts")
}
