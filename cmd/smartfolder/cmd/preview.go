package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastgtd/smartfolder/internal/types"
)

var previewCmd = &cobra.Command{
	Use:   "preview [rule.json]",
	Short: "Preview the records a rule matches",
	Long: `Preview validates the rule, evaluates it against the owner's records
and prints the first matches in storage order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("owner", "", "owner scope (user id, required)")
	previewCmd.Flags().Int("limit", 0, "maximum matches to return (default from config)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ownerArg, _ := cmd.Flags().GetString("owner")
	if ownerArg == "" {
		return fmt.Errorf("--owner required")
	}
	owner, err := types.ParseUserID(ownerArg)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}

	raw, err := readRuleInput(args)
	if err != nil {
		return err
	}
	rule, err := types.ParseRuleData(raw)
	if err != nil {
		return fmt.Errorf("malformed rule document: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit := cfg.PreviewLimit
	if cmd.Flags().Changed("limit") {
		limit, _ = cmd.Flags().GetInt("limit")
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	matches, err := engine.Preview(cmd.Context(), rule, owner, limit)
	if err != nil {
		return err
	}

	printNodes(cmd, matches)
	return nil
}

// printNodes writes one line per match in evaluation order.
func printNodes(cmd *cobra.Command, matches []types.Node) {
	out := cmd.OutOrStdout()
	for _, n := range matches {
		fmt.Fprintf(out, "%s  %-12s  %s\n", n.ID, n.Type, n.Title)
	}
	fmt.Fprintf(out, "%d match(es)\n", len(matches))
}
