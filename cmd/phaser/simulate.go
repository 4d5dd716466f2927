package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/config"
	"github.com/phaser-dev/phaser/internal/sandbox"
)

var (
	simulateAuditID string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Sandboxed dry-run execution",
	Long: `Begin, inspect, roll back, or commit a stash-based sandbox
session over the current working tree (spec.md §4.E).

Commands:
  run       Begin a sandbox session
  status    Show the active sandbox context, if any
  rollback  Unwind tracked changes and pop the stash
  commit    Retain tracked changes and drop the stash`,
}

var simulateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Begin a sandbox session over the current working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		repo, err := currentRepo()
		if err != nil {
			return err
		}
		cfg, err := config.Load(s.Root)
		if err != nil {
			return err
		}
		if simulateAuditID == "" {
			return fmt.Errorf("--audit is required")
		}

		if dryRun {
			fmt.Printf("[dry-run] would begin sandbox for audit %s at %s\n", simulateAuditID, repo.Root)
			return nil
		}
		ctx, err := sandbox.Begin(s, repo, simulateAuditID, cfg.Sandbox.StashMessagePrefix)
		if err != nil {
			return err
		}
		fmt.Printf("sandbox active: audit=%s branch=%s\n", ctx.AuditID, ctx.OriginalBranch)
		if ctx.StashRef != nil {
			fmt.Printf("stashed uncommitted changes: %s\n", *ctx.StashRef)
		}
		return nil
	},
}

var simulateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active sandbox context, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		ctx, err := sandbox.Load(s)
		if err != nil {
			fmt.Println("no active sandbox")
			return nil
		}
		fmt.Printf("audit: %s\n", ctx.AuditID)
		fmt.Printf("root: %s\n", ctx.ProjectRoot)
		fmt.Printf("original branch: %s\n", ctx.OriginalBranch)
		fmt.Printf("active: %v\n", ctx.Active)
		fmt.Printf("created: %d, modified: %d, deleted: %d\n", len(ctx.Created), len(ctx.Modified), len(ctx.Deleted))
		return nil
	},
}

var simulateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Unwind the active sandbox session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		repo, err := currentRepo()
		if err != nil {
			return err
		}
		ctx, err := sandbox.Load(s)
		if err != nil {
			return fmt.Errorf("no active sandbox to roll back")
		}

		if dryRun {
			fmt.Printf("[dry-run] would roll back %d created, %d modified, %d deleted paths\n",
				len(ctx.Created), len(ctx.Modified), len(ctx.Deleted))
			return nil
		}
		report, err := sandbox.Rollback(s, repo, ctx)
		if err != nil {
			return err
		}
		if !report.Success {
			for _, f := range report.Failures {
				fmt.Printf("rollback failure: %s\n", f)
			}
			return fmt.Errorf("rollback completed with failures")
		}
		fmt.Println("rollback complete")
		return nil
	},
}

var simulateCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Retain tracked changes and drop the sandbox's stash",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		repo, err := currentRepo()
		if err != nil {
			return err
		}
		ctx, err := sandbox.Load(s)
		if err != nil {
			return fmt.Errorf("no active sandbox to commit")
		}

		if dryRun {
			fmt.Println("[dry-run] would commit sandbox, retaining tracked changes")
			return nil
		}
		if err := sandbox.Commit(s, repo, ctx); err != nil {
			return err
		}
		fmt.Println("sandbox committed")
		return nil
	},
}

func init() {
	simulateCmd.PersistentFlags().StringVar(&simulateAuditID, "audit", "", "Audit ID")
	simulateCmd.AddCommand(simulateRunCmd, simulateStatusCmd, simulateRollbackCmd, simulateCommitCmd)
	rootCmd.AddCommand(simulateCmd)
}
