package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/config"
	"github.com/phaser-dev/phaser/internal/eventlog"
	"github.com/phaser-dev/phaser/internal/manifest"
)

var (
	diffAuditID string
	diffStage   string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Capture and compare manifests",
	Long: `Capture hashed snapshots of a project tree and compare two
previously captured stages.

Commands:
  capture   Capture the current tree as a manifest
  compare   Diff the "pre" and "post" manifests for an audit`,
}

// diffCaptureCmd captures a manifest into the store. For the "pre" and
// "post" stages it goes through the on-audit-setup/on-audit-complete
// hooks (spec.md §4.C Audit hooks): the audit-default exclude set (which
// additionally excludes the store's own directory) is used, and the
// corresponding lifecycle events are emitted. Any other --stage value
// falls back to a bare, un-hooked capture.
var diffCaptureCmd = &cobra.Command{
	Use:   "capture <path>",
	Short: "Capture a directory tree as a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		cfg, err := config.Load(s.Root)
		if err != nil {
			return err
		}
		if diffAuditID == "" {
			return fmt.Errorf("--audit is required")
		}

		if dryRun {
			fmt.Printf("[dry-run] would capture %s/%s from %s\n", diffAuditID, diffStage, args[0])
			return nil
		}

		log := eventlog.New(s)
		switch diffStage {
		case "pre":
			m, err := manifest.AuditSetup(s, log, args[0], diffAuditID, cfg.Manifest.BinaryExtensions)
			if err != nil {
				return err
			}
			fmt.Printf("captured %d files (%d bytes) as %s/pre\n", m.FileCount, m.TotalSize, diffAuditID)
		case "post":
			diffResult, err := manifest.AuditComplete(s, log, args[0], diffAuditID, cfg.Manifest.BinaryExtensions, manifest.DiffOptions{SizeLimit: cfg.Manifest.DiffSizeLimit})
			if err != nil {
				return err
			}
			fmt.Printf("captured %s/post: added %d, modified %d, deleted %d, unchanged %d\n",
				diffAuditID, len(diffResult.Added), len(diffResult.Modified), len(diffResult.Deleted), diffResult.UnchangedCount)
		default:
			m, err := manifest.Capture(args[0], manifest.CaptureOptions{
				Excludes:         cfg.Manifest.ExcludeDirs,
				BinaryExtensions: cfg.Manifest.BinaryExtensions,
			})
			if err != nil {
				return err
			}
			if err := manifest.Save(s, diffAuditID, diffStage, m); err != nil {
				return err
			}
			fmt.Printf("captured %d files (%d bytes) as %s/%s\n", m.FileCount, m.TotalSize, diffAuditID, diffStage)
		}
		return nil
	},
}

var diffCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff the pre/post manifests for an audit",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		cfg, err := config.Load(s.Root)
		if err != nil {
			return err
		}
		if diffAuditID == "" {
			return fmt.Errorf("--audit is required")
		}

		result, err := manifest.Compare(s, diffAuditID, manifest.DiffOptions{SizeLimit: cfg.Manifest.DiffSizeLimit})
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println("no comparison: pre or post manifest is missing")
			return nil
		}

		if GetOutput() == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printDiffResult(*result)
		return nil
	},
}

func printDiffResult(result manifest.DiffResult) {
	fmt.Printf("added: %d, modified: %d, deleted: %d, unchanged: %d\n",
		len(result.Added), len(result.Modified), len(result.Deleted), result.UnchangedCount)
	for _, c := range result.Added {
		fmt.Printf("  + %s\n", c.Path)
	}
	for _, c := range result.Modified {
		fmt.Printf("  ~ %s\n", c.Path)
		for _, line := range c.DiffLines {
			fmt.Printf("    %s\n", line)
		}
	}
	for _, c := range result.Deleted {
		fmt.Printf("  - %s\n", c.Path)
	}
}

func init() {
	diffCmd.PersistentFlags().StringVar(&diffAuditID, "audit", "", "Audit ID")
	diffCaptureCmd.Flags().StringVar(&diffStage, "stage", "pre", "Stage to capture into (pre|post)")

	diffCmd.AddCommand(diffCaptureCmd)
	diffCmd.AddCommand(diffCompareCmd)
	rootCmd.AddCommand(diffCmd)
}
