package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/branch"
	"github.com/phaser-dev/phaser/internal/config"
)

var (
	branchesAuditID  string
	branchesSlug     string
	branchesBase     string
	branchesStrategy string
	branchesTarget   string
	branchesMessage  string
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Branch-per-phase execution",
	Long: `Begin branch mode, check its status, merge the linearly-chained
phase branches back into the base, and clean them up (spec.md §4.F).

Commands:
  enable    Begin branch mode over the current working tree
  status    Show the active branch context, if any
  merge     Merge the phase-branch chain into the target
  cleanup   Delete the phase branches`,
}

var branchesEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Begin branch mode over the current working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		repo, err := currentRepo()
		if err != nil {
			return err
		}
		if branchesAuditID == "" {
			return fmt.Errorf("--audit is required")
		}
		slug := branchesSlug
		if slug == "" {
			slug = branchesAuditID
		}

		if dryRun {
			fmt.Printf("[dry-run] would begin branch mode for audit %s (slug=%s)\n", branchesAuditID, slug)
			return nil
		}
		ctx, err := branch.Begin(s, repo, branchesAuditID, slug, branchesBase)
		if err != nil {
			return err
		}
		fmt.Printf("branch mode active: slug=%s base=%s\n", ctx.Slug, ctx.BaseBranch)
		return nil
	},
}

var branchesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active branch context, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		ctx, err := branch.Load(s)
		if err != nil {
			fmt.Println("no active branch mode")
			return nil
		}
		fmt.Printf("slug: %s\n", ctx.Slug)
		fmt.Printf("base: %s\n", ctx.BaseBranch)
		fmt.Printf("active: %v\n", ctx.Active)
		for _, b := range ctx.Branches {
			merged := ""
			if b.Merged {
				merged = " (merged)"
			}
			hash := "(no commit)"
			if b.CommitHash != nil {
				hash = *b.CommitHash
			}
			fmt.Printf("  phase %d: %s -> %s%s\n", b.Phase, b.BranchName, hash, merged)
		}
		return nil
	},
}

var branchesMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the phase-branch chain into the target",
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
		ctx, err := branch.Load(s)
		if err != nil {
			return fmt.Errorf("no active branch mode")
		}

		strategy := branch.MergeStrategy(branchesStrategy)
		if strategy == "" {
			strategy = branch.MergeStrategy(cfg.Branch.MergeStrategy)
		}

		if dryRun {
			fmt.Printf("[dry-run] would merge %d phase branches into %s via %s\n", len(ctx.Branches), branchesTarget, strategy)
			return nil
		}
		if err := branch.Merge(s, repo, ctx, strategy, branchesTarget, branchesMessage); err != nil {
			return err
		}
		fmt.Printf("merged %d phase branches via %s\n", len(ctx.Branches), strategy)
		return nil
	},
}

var branchesCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete the phase branches and end branch mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		repo, err := currentRepo()
		if err != nil {
			return err
		}
		ctx, err := branch.Load(s)
		if err != nil {
			return fmt.Errorf("no active branch mode")
		}

		if dryRun {
			fmt.Printf("[dry-run] would delete %d phase branches\n", len(ctx.Branches))
			return nil
		}
		if err := branch.Cleanup(repo, ctx); err != nil {
			return err
		}
		if err := branch.End(s, ctx); err != nil {
			return err
		}
		fmt.Printf("deleted %d phase branches\n", len(ctx.Branches))
		return nil
	},
}

func init() {
	branchesCmd.PersistentFlags().StringVar(&branchesAuditID, "audit", "", "Audit ID")
	branchesEnableCmd.Flags().StringVar(&branchesSlug, "slug", "", "Audit slug (defaults to audit id)")
	branchesEnableCmd.Flags().StringVar(&branchesBase, "base", "", "Base branch override (defaults to current branch)")

	branchesMergeCmd.Flags().StringVar(&branchesStrategy, "strategy", "", "squash|rebase|merge (defaults to config)")
	branchesMergeCmd.Flags().StringVar(&branchesTarget, "target", "", "Merge target (defaults to base branch)")
	branchesMergeCmd.Flags().StringVar(&branchesMessage, "message", "", "Merge commit message override")

	branchesCmd.AddCommand(branchesEnableCmd, branchesStatusCmd, branchesMergeCmd, branchesCleanupCmd)
	rootCmd.AddCommand(branchesCmd)
}
