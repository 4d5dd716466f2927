package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/config"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved store root and effective config",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		cfg, err := config.Load(s.Root)
		if err != nil {
			return err
		}

		fmt.Printf("store root: %s\n", s.Root)
		fmt.Printf("manifest.diff_size_limit_bytes: %d\n", cfg.Manifest.DiffSizeLimit)
		fmt.Printf("contracts.max_pattern_file_size_bytes: %d\n", cfg.Contracts.MaxPatternFileSize)
		fmt.Printf("sandbox.stash_message_prefix: %s\n", cfg.Sandbox.StashMessagePrefix)
		fmt.Printf("branch.merge_strategy: %s\n", cfg.Branch.MergeStrategy)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
