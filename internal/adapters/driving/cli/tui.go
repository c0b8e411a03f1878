package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui"
	"github.com/custodia-labs/docuquery/internal/core/domain"
)

var tuiTopK int

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Ask questions, follow cited sources into the documents they came from, and
browse or delete ingested documents.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Select
  n        - New question
  Esc      - Back
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "number of chunks to retrieve (default from retrieval.top_k)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Recover so a rendering bug leaves a stack trace instead of a wrecked terminal
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if queryService == nil {
		return unavailable("query")
	}
	topK := resolveTopK(cmd, tuiTopK)
	if topK <= 0 {
		return fmt.Errorf("%w: --top-k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}

	app, err := tui.NewApp(tui.NewPorts(queryService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context()).WithTopK(topK)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
