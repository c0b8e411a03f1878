package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the vector index",
}

var indexCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Drop tombstoned vectors and rewrite the snapshot",
	Args:  cobra.NoArgs,
	RunE:  runIndexCompact,
}

func init() {
	indexCmd.AddCommand(indexCompactCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexCompact(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document")
	}

	dropped, err := documentService.Compact(cmd.Context())
	if err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	cmd.Printf("Compacted index: %d tombstoned vectors removed\n", dropped)
	return nil
}
