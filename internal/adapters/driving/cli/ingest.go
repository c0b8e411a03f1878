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
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

var (
	ingestText string
	ingestName string
	ingestID   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest files, directories or text",
	Long: `Extracts text from files, splits it into overlapping chunks, embeds each
chunk and adds it to the index.

Directories are walked recursively; hidden files and unsupported formats are
skipped. Re-ingesting a file replaces the document previously created from it.

Examples:
  docuquery ingest report.pdf notes/
  docuquery ingest --text "The office closes at 6pm on Fridays." --name hours.txt`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest this text instead of files")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "filename shown in citations for --text")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID for --text (generated when empty)")
	rootCmd.AddCommand(ingestCmd)
}

// ingestTally counts outcomes across a run.
type ingestTally struct {
	ingested int
	skipped  int
	failed   int
	chunks   int
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return unavailable("ingest")
	}
	ctx := cmd.Context()

	if ingestText != "" {
		if len(args) > 0 {
			return errors.New("use either --text or paths, not both")
		}
		result, err := ingestService.Ingest(ctx, driving.IngestRequest{
			DocumentID: ingestID,
			Text:       ingestText,
			Filename:   ingestName,
		})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("Ingested %s (%d chunks)\n", result.DocumentID, result.ChunkCount)
		return nil
	}

	if len(args) == 0 {
		return errors.New("nothing to ingest: pass one or more paths or --text")
	}

	var tally ingestTally
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", arg, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			cmd.Printf("  failed  %s: %v\n", arg, err)
			tally.failed++
			continue
		}
		if info.IsDir() {
			if err := ingestDir(ctx, cmd, path, &tally); err != nil {
				return err
			}
			continue
		}
		ingestOne(ctx, cmd, path, false, &tally)
	}

	cmd.Printf("\nIngested %d files (%d chunks), skipped %d, failed %d\n",
		tally.ingested, tally.chunks, tally.skipped, tally.failed)
	if tally.failed > 0 {
		return fmt.Errorf("%d files failed to ingest", tally.failed)
	}
	return nil
}

// ingestDir ingests every visible file below dir.
func ingestDir(ctx context.Context, cmd *cobra.Command, dir string, tally *ingestTally) error {
	conn := filesystem.New(dir)
	defer conn.Close()

	docs, errs := conn.FullSync(ctx)
	for doc := range docs {
		ingestOne(ctx, cmd, filesystem.ResolvePath(doc.URI), true, tally)
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	return ctx.Err()
}

// ingestOne ingests a single file. When walking a directory, unsupported
// formats are counted as skipped rather than failed.
func ingestOne(ctx context.Context, cmd *cobra.Command, path string, walking bool, tally *ingestTally) {
	result, err := ingestService.IngestFile(ctx, path)
	switch {
	case err == nil:
		tally.ingested++
		tally.chunks += result.ChunkCount
		cmd.Printf("  ingested %s (%d chunks)\n", path, result.ChunkCount)
	case walking && errors.Is(err, domain.ErrUnsupportedFormat):
		tally.skipped++
		cmd.Printf("  skipped  %s: unsupported format\n", path)
	default:
		tally.failed++
		cmd.Printf("  failed   %s: %v\n", path, err)
	}
}
