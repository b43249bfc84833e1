package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastgtd/smartfolder/internal/types"
)

var contentsCmd = &cobra.Command{
	Use:   "contents <smart-folder-id>",
	Short: "List the live contents of a smart folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runContents,
}

func init() {
	rootCmd.AddCommand(contentsCmd)
}

func runContents(cmd *cobra.Command, args []string) error {
	folderID, err := types.ParseNodeID(args[0])
	if err != nil {
		return fmt.Errorf("invalid smart folder id: %w", err)
	}

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	matches, err := engine.ContentsOf(cmd.Context(), folderID)
	if err != nil {
		return err
	}

	printNodes(cmd, matches)
	return nil
}
