package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/contract"
)

var (
	checkFailOnError bool
	checkFormat      string
	checkTree        string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Batch-check a tree against all enabled contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		tree := checkTree
		if tree == "" {
			tree, err = os.Getwd()
			if err != nil {
				return err
			}
		}

		result := contract.Load(s.ContractsDir(), userContractsDir())
		results, err := contract.BatchCheck(tree, result.Contracts, false)
		if err != nil {
			return err
		}

		format := checkFormat
		if format == "" {
			format = GetOutput()
		}
		if err := printCheckResults(results, format); err != nil {
			return err
		}

		if checkFailOnError {
			for _, r := range results {
				if !r.Passed {
					return fmt.Errorf("contract check failed")
				}
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkFailOnError, "fail-on-error", false, "Exit non-zero if any contract fails")
	checkCmd.Flags().StringVar(&checkFormat, "format", "", "Output format (json|text), overrides --output")
	checkCmd.Flags().StringVar(&checkTree, "tree", "", "Root to check (default: cwd)")
	rootCmd.AddCommand(checkCmd)
}
