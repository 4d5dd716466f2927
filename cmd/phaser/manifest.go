package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/config"
	"github.com/phaser-dev/phaser/internal/manifest"
)

// manifestCmd is a shortcut for "diff capture" that writes straight to
// stdout instead of the store, per spec.md §6 ("manifest <path>
// (shortcut for diff-capture)").
var manifestCmd = &cobra.Command{
	Use:   "manifest <path>",
	Short: "Capture a directory tree and print its manifest YAML",
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

		m, err := manifest.Capture(args[0], manifest.CaptureOptions{
			Excludes:         cfg.Manifest.ExcludeDirs,
			BinaryExtensions: cfg.Manifest.BinaryExtensions,
		})
		if err != nil {
			return err
		}

		fmt.Print(manifest.Encode(m))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
