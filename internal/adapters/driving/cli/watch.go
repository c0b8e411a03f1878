package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/connectors/filesystem"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/logger"
)

var watchSkipInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the index in sync with a directory",
	Long: `Ingests every supported file below dir, then watches it for changes until
interrupted. Created and modified files are re-ingested; deleted files are
removed from the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "do not ingest existing files before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return unavailable("ingest")
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx := cmd.Context()

	if !watchSkipInitial {
		var tally ingestTally
		if err := ingestDir(ctx, cmd, dir, &tally); err != nil {
			return err
		}
		cmd.Printf("Initial sync: %d files (%d chunks), skipped %d, failed %d\n",
			tally.ingested, tally.chunks, tally.skipped, tally.failed)
	}

	conn := filesystem.New(dir)
	defer conn.Close()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	for change := range changes {
		applyChange(ctx, cmd, change)
	}
	return nil
}

// applyChange mirrors one file system change into the index.
func applyChange(ctx context.Context, cmd *cobra.Command, change domain.RawDocumentChange) {
	path := filesystem.ResolvePath(change.Document.URI)

	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		result, err := ingestService.IngestFile(ctx, path)
		switch {
		case err == nil:
			cmd.Printf("  %s %s (%d chunks)\n", change.Type, path, result.ChunkCount)
		case errors.Is(err, domain.ErrUnsupportedFormat):
			logger.Debug("watch: skipping %s: unsupported format", path)
		default:
			cmd.Printf("  failed  %s: %v\n", path, err)
		}
	case domain.ChangeDeleted:
		removed, err := ingestService.RemoveFile(ctx, path)
		switch {
		case err == nil:
			cmd.Printf("  deleted %s (%d chunks removed)\n", path, removed)
		case errors.Is(err, domain.ErrNotFound):
			logger.Debug("watch: %s was not indexed", path)
		default:
			cmd.Printf("  failed  %s: %v\n", path, err)
		}
	}
}
