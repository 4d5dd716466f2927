package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/gate"
)

var (
	enforceStdin    bool
	enforceSeverity string
)

// enforceCmd is the enforcement-gate hook pipeline entry point
// (spec.md §4.H, §6): one JSON envelope in on stdin, one JSON decision
// out on stdout. Exit code 3 is a CLI usage error (no --stdin flag, or
// malformed JSON); a failure of the gate itself (reading stdin,
// checking a rule) exits 1; every other outcome exits 0 with the
// decision carried in the JSON body, never the exit code.
var enforceCmd = &cobra.Command{
	Use:   "enforce",
	Short: "Run the enforcement-gate hook pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !enforceStdin {
			return usageError{fmt.Errorf("--stdin is required")}
		}
		s, err := resolvedStore()
		if err != nil {
			return err
		}

		cfg := gate.Config{
			ProjectContractsDir: s.ContractsDir(),
			UserContractsDir:    userContractsDir(),
			Severity:            gate.Severity(enforceSeverity),
		}
		if err := gate.Run(os.Stdin, os.Stdout, cfg); err != nil {
			if errors.Is(err, gate.ErrInvalidJSON) {
				return usageError{err}
			}
			return err
		}
		return nil
	},
}

// usageError marks an error as a CLI-misuse condition so Execute can
// map it to exit code 3 rather than the generic failure code 1
// (spec.md §4.H, §6: "3 CLI usage error").
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func init() {
	enforceCmd.Flags().BoolVar(&enforceStdin, "stdin", false, "Read the tool-use envelope from stdin")
	enforceCmd.Flags().StringVar(&enforceSeverity, "severity", "all", "error|warning|all")
	rootCmd.AddCommand(enforceCmd)
}
