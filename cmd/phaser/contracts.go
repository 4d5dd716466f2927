package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phaser-dev/phaser/internal/contract"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Author and check contract rules",
	Long: `Create, list, enable/disable, and check the contract rules
loaded from the project-local and user-home contracts directories.

Commands:
  create    Write a new contract rule YAML
  list      List loaded contracts
  check     Check one rule (or all) against a tree
  enable    Enable a persisted contract
  disable   Disable a persisted contract`,
}

var (
	contractID        string
	contractType       string
	contractSeverity   string
	contractPattern    string
	contractGlob       string
	contractMessage    string
	contractRationale  string
	contractAuditID    string
	contractAuditSlug  string
	contractAuditDate  string
	contractAuditPhase int
	contractsCheckTree string
	contractsCheckFailFast bool
)

var contractsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create and persist a new contract rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}

		rule := contract.Rule{
			ID:        contractID,
			Type:      contract.RuleType(contractType),
			Severity:  contract.Severity(contractSeverity),
			FileGlob:  contractGlob,
			Message:   contractMessage,
			Rationale: contractRationale,
		}
		if contractPattern != "" {
			p := contractPattern
			rule.Pattern = &p
		}
		if err := rule.Validate(); err != nil {
			return err
		}

		c := contract.Contract{
			Version:   1,
			Enabled:   true,
			CreatedAt: time.Now().UTC(),
			AuditSource: contract.AuditSource{
				ID:    contractAuditID,
				Slug:  contractAuditSlug,
				Date:  contractAuditDate,
				Phase: contractAuditPhase,
			},
			Rule: rule,
		}

		path := s.ContractPath(rule.ID)
		if dryRun {
			fmt.Printf("[dry-run] would write contract %s to %s\n", rule.ID, path)
			return nil
		}
		if err := contract.Save(path, c, func(p string, data []byte) error {
			return writeFile(p, data)
		}); err != nil {
			return err
		}
		fmt.Printf("created contract %s (%s, %s)\n", rule.ID, rule.Type, rule.Severity)
		return nil
	},
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contracts loaded from project and user-home sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		result := contract.Load(s.ContractsDir(), userContractsDir())

		if GetOutput() == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result.Contracts)
		}

		for _, c := range result.Contracts {
			status := "enabled"
			if !c.Enabled {
				status = "disabled"
			}
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n", c.Rule.ID, c.Rule.Type, c.Rule.Severity, status, c.Rule.FileGlob)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", w.Path, w.Err)
		}
		return nil
	},
}

var contractsCheckCmd = &cobra.Command{
	Use:   "check [rule-id]",
	Short: "Check one rule (or all enabled rules) against a tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolvedStore()
		if err != nil {
			return err
		}
		tree := contractsCheckTree
		if tree == "" {
			tree, err = os.Getwd()
			if err != nil {
				return err
			}
		}

		result := contract.Load(s.ContractsDir(), userContractsDir())
		contracts := result.Contracts
		if len(args) == 1 {
			contracts = filterByID(contracts, args[0])
			if len(contracts) == 0 {
				return fmt.Errorf("no contract with id %q", args[0])
			}
		}

		results, err := contract.BatchCheck(tree, contracts, contractsCheckFailFast)
		if err != nil {
			return err
		}
		return printCheckResults(results, GetOutput())
	},
}

var contractsEnableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Enable a persisted contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setContractEnabled(args[0], true)
	},
}

var contractsDisableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Disable a persisted contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setContractEnabled(args[0], false)
	},
}

func setContractEnabled(ruleID string, enabled bool) error {
	s, err := resolvedStore()
	if err != nil {
		return err
	}
	path := s.ContractPath(ruleID)
	c, err := contract.LoadFile(path)
	if err != nil {
		return err
	}
	c.Enabled = enabled
	if dryRun {
		fmt.Printf("[dry-run] would set %s enabled=%v\n", ruleID, enabled)
		return nil
	}
	if err := contract.Save(path, c, func(p string, data []byte) error {
		return writeFile(p, data)
	}); err != nil {
		return err
	}
	fmt.Printf("%s: enabled=%v\n", ruleID, enabled)
	return nil
}

func filterByID(contracts []contract.Contract, id string) []contract.Contract {
	var out []contract.Contract
	for _, c := range contracts {
		if c.Rule.ID == id {
			out = append(out, c)
		}
	}
	return out
}

func printCheckResults(results []contract.CheckResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, r.RuleID)
		for _, v := range r.Violations {
			if v.Line != nil {
				fmt.Printf("  %s:%d: %s (%q)\n", v.Path, *v.Line, v.Message, v.Matched)
			} else {
				fmt.Printf("  %s: %s\n", v.Path, v.Message)
			}
		}
	}
	fmt.Printf("%d/%d contracts passed\n", len(results)-failed, len(results))
	return nil
}

func init() {
	contractsCreateCmd.Flags().StringVar(&contractID, "id", "", "Rule id")
	contractsCreateCmd.Flags().StringVar(&contractType, "type", "", "Rule type")
	contractsCreateCmd.Flags().StringVar(&contractSeverity, "severity", "error", "error|warning")
	contractsCreateCmd.Flags().StringVar(&contractPattern, "pattern", "", "Regex or literal pattern")
	contractsCreateCmd.Flags().StringVar(&contractGlob, "glob", "", "Path glob")
	contractsCreateCmd.Flags().StringVar(&contractMessage, "message", "", "Human-readable violation message")
	contractsCreateCmd.Flags().StringVar(&contractRationale, "rationale", "", "Why this rule exists")
	contractsCreateCmd.Flags().StringVar(&contractAuditID, "audit-id", "", "Originating audit id")
	contractsCreateCmd.Flags().StringVar(&contractAuditSlug, "audit-slug", "", "Originating audit slug")
	contractsCreateCmd.Flags().StringVar(&contractAuditDate, "audit-date", "", "Originating audit date")
	contractsCreateCmd.Flags().IntVar(&contractAuditPhase, "audit-phase", 0, "Originating audit phase")

	contractsCheckCmd.Flags().StringVar(&contractsCheckTree, "tree", "", "Root to check (default: cwd)")
	contractsCheckCmd.Flags().BoolVar(&contractsCheckFailFast, "fail-fast", false, "Stop at the first failing contract")

	contractsCmd.AddCommand(contractsCreateCmd, contractsListCmd, contractsCheckCmd, contractsEnableCmd, contractsDisableCmd)
	rootCmd.AddCommand(contractsCmd)
}
