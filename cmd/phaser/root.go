package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/store"
	"github.com/phaser-dev/phaser/internal/vcs"
)

var (
	// Global flags
	dryRun  bool
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "phaser",
	Short: "Audit-automation substrate for AI-assisted coding workflows",
	Long: `phaser captures before/after manifests of a project tree, checks
proposed and committed changes against contract rules, and runs
multi-phase audits directly, sandboxed, or branch-per-phase.

Core Commands:
  diff       Capture and compare manifests
  contracts  Author and check contract rules
  check      Batch-check a tree against all contracts
  simulate   Sandboxed dry-run execution
  branches   Branch-per-phase execution
  enforce    Enforcement-gate hook pipeline
  info       Show the resolved store root and config
  version    Show version information`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. A usageError (spec.md §4.H: CLI usage error) exits 3;
// any other error exits 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Store root override (default: resolved per phaser's store-root rules)")
}

// GetDryRun returns the dry-run flag value for use by subcommands.
func GetDryRun() bool { return dryRun }

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool { return verbose }

// GetOutput returns the output format for use by subcommands.
func GetOutput() string { return output }

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// resolvedStore resolves and opens the store root per the order
// documented in spec.md §6: explicit --config override (or
// PHASER_STORE_ROOT), project-local ".phaser" marker, user-home default.
func resolvedStore() (*store.Store, error) {
	root, err := store.ResolveRoot(strings.TrimSpace(cfgFile), "")
	if err != nil {
		return nil, err
	}
	return store.New(root), nil
}

// currentRepo resolves a vcs.Repo rooted at the current working
// directory, used by the simulate and branches commands.
func currentRepo() (*vcs.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return vcs.New(wd), nil
}
