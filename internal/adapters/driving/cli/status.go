package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and provider health",
	Long: `Reports document and vector counts for the index and checks that the
configured embedding and LLM providers are reachable.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

type providerJSON struct {
	Kind     string `json:"kind"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

type statusOutput struct {
	Documents         map[string]int `json:"documents"`
	TotalDocuments    int            `json:"total_documents"`
	Chunks            int            `json:"chunks"`
	LiveVectors       int            `json:"live_vectors"`
	TombstonedVectors int            `json:"tombstoned_vectors"`
	Dimensions        int            `json:"dimensions"`
	Providers         []providerJSON `json:"providers"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document")
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get index stats: %w", err)
	}

	var providers []providerJSON
	if providerCheck != nil {
		for _, p := range providerCheck(cmd.Context()) {
			pj := providerJSON{Kind: p.Kind, Provider: string(p.Provider), Model: p.Model, OK: p.OK()}
			if p.Err != nil {
				pj.Error = p.Err.Error()
			}
			providers = append(providers, pj)
		}
	}

	if statusJSON {
		out := statusOutput{
			Documents:         make(map[string]int, len(stats.Documents)),
			TotalDocuments:    stats.TotalDocuments(),
			Chunks:            stats.Chunks,
			LiveVectors:       stats.LiveVectors,
			TombstonedVectors: stats.TombstonedVectors,
			Dimensions:        stats.Dimensions,
			Providers:         providers,
		}
		for status, n := range stats.Documents {
			out.Documents[string(status)] = n
		}
		return printJSON(cmd, out)
	}

	cmd.Println("Index:")
	cmd.Printf("  Documents:   %d (%d processed, %d failed, %d processing)\n",
		stats.TotalDocuments(),
		stats.Documents[domain.StatusProcessed],
		stats.Documents[domain.StatusFailed],
		stats.Documents[domain.StatusProcessing])
	cmd.Printf("  Chunks:      %d\n", stats.Chunks)
	cmd.Printf("  Vectors:     %d live, %d tombstoned\n", stats.LiveVectors, stats.TombstonedVectors)
	if stats.Dimensions > 0 {
		cmd.Printf("  Dimensions:  %d\n", stats.Dimensions)
	}

	cmd.Println()
	cmd.Println("Providers:")
	if len(providers) == 0 {
		if startupErr != nil {
			cmd.Printf("  unavailable: %v\n", startupErr)
		} else {
			cmd.Println("  none configured")
		}
		return nil
	}
	for _, p := range providers {
		state := "OK"
		if !p.OK {
			state = "FAILED: " + p.Error
		}
		cmd.Printf("  %-9s %s (%s): %s\n", p.Kind, p.Provider, p.Model, state)
	}
	return nil
}
