package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fastgtd/smartfolder/internal/nodes"
	"github.com/fastgtd/smartfolder/internal/rules"
	"github.com/fastgtd/smartfolder/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [rule.json]",
	Short: "Validate a filter rule",
	Long: `Validate reads a rule document from the given file (or stdin when
omitted) and reports every structural problem it finds. With a database
configured, saved filter references are resolved against stored rules;
without one they are checked for shape only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := readRuleInput(args)
	if err != nil {
		return err
	}

	rule, err := types.ParseRuleData(raw)
	if err != nil {
		return fmt.Errorf("malformed rule document: %w", err)
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := engine.Validate(cmd.Context(), rule); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rule valid: %s over %d condition(s)\n", rule.Logic, len(rule.Conditions))
	return nil
}

// readRuleInput reads the rule document from the file argument or stdin.
func readRuleInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file: %w", err)
		}
		return raw, nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule from stdin: %w", err)
	}
	return raw, nil
}

// buildEngine wires an engine over the configured database, or over an
// empty in-memory store when no --db-url is set so validation works
// offline.
func buildEngine() (*rules.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cfg)

	if dbURL == "" {
		store := nodes.NewMemStore()
		return rules.NewEngine(store, store, rules.WithLogger(log)), func() {}, nil
	}

	conn, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := nodes.NewStore(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	engine := rules.NewEngine(store, store, rules.WithLogger(log))
	return engine, func() { conn.Close() }, nil
}
