package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// defaultTopK is used when neither -k nor retrieval.top_k is set.
const defaultTopK = 3

var (
	queryTopK     int
	queryJSON     bool
	queryRetrieve bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Embeds the question, retrieves the most similar chunks and asks the
configured LLM to answer using only those chunks, citing them as [Source N].

Use --retrieve-only to see the ranked chunks without generating an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from retrieval.top_k)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryRetrieve, "retrieve-only", false, "show retrieved chunks without generating an answer")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return unavailable("query")
	}

	question := strings.Join(args, " ")
	topK := resolveTopK(cmd, queryTopK)
	ctx := cmd.Context()

	if queryRetrieve {
		result, err := queryService.Retrieve(ctx, question, topK)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		if queryJSON {
			return printJSON(cmd, retrievalJSON(result))
		}
		printRetrieval(cmd, result)
		return nil
	}

	answer, err := queryService.Query(ctx, question, topK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if queryJSON {
		return printJSON(cmd, answerJSON(answer))
	}
	printAnswer(cmd, answer)
	return nil
}

// resolveTopK returns the -k value whenever it was given, so that a
// non-positive count is rejected downstream instead of replaced.
// Otherwise it falls back to retrieval.top_k, then the built-in default.
func resolveTopK(cmd *cobra.Command, flag int) int {
	if cmd.Flags().Changed("top-k") {
		return flag
	}
	return configuredTopK()
}

// configuredTopK returns retrieval.top_k, or defaultTopK when unset.
func configuredTopK() int {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Retrieval.TopK > 0 {
			return s.Retrieval.TopK
		}
	}
	return defaultTopK
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		cmd.Printf("  [Source %d] %s, Section %d (%.2f)\n", i+1, src.Filename, src.Position+1, src.Score)
		if src.Preview != "" {
			cmd.Printf("      %s\n", strings.Join(strings.Fields(src.Preview), " "))
		}
	}
	cmd.Println()
	cmd.Printf("Confidence: %.0f%%\n", answer.Confidence*100)
}

func printRetrieval(cmd *cobra.Command, result domain.RetrievalResult) {
	if result.IsEmpty() {
		cmd.Println("No matching chunks.")
		return
	}
	for i, sc := range result.Chunks {
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, sc.Chunk.DocumentID, sc.Chunk.Position, sc.Score)
		cmd.Printf("      %s\n", strings.Join(strings.Fields(sc.Chunk.Content), " "))
	}
}

type sourceJSON struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
}

type answerOutput struct {
	Question   string       `json:"question"`
	Answer     string       `json:"answer"`
	Confidence float64      `json:"confidence"`
	Sources    []sourceJSON `json:"sources"`
}

func answerJSON(a *domain.Answer) answerOutput {
	out := answerOutput{
		Question:   a.Question,
		Answer:     a.Text,
		Confidence: a.Confidence,
		Sources:    make([]sourceJSON, len(a.Sources)),
	}
	for i, s := range a.Sources {
		out.Sources[i] = sourceJSON(s)
	}
	return out
}

type chunkJSON struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

type retrievalOutput struct {
	Query  string      `json:"query"`
	Chunks []chunkJSON `json:"chunks"`
}

func retrievalJSON(r domain.RetrievalResult) retrievalOutput {
	out := retrievalOutput{Query: r.Query, Chunks: make([]chunkJSON, len(r.Chunks))}
	for i, sc := range r.Chunks {
		out.Chunks[i] = chunkJSON{
			ChunkID:    sc.Chunk.ID,
			DocumentID: sc.Chunk.DocumentID,
			Position:   sc.Chunk.Position,
			Score:      sc.Score,
			Content:    sc.Chunk.Content,
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
