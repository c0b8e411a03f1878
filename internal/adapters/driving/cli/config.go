package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Manage application settings",
	Long: `View and change chunking, provider, retrieval and storage settings.

Settings live in ~/.docuquery/config.toml. API keys left empty there are read
from OPENAI_API_KEY or ANTHROPIC_API_KEY.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Sets a single key, for example:

  docuquery config set chunking.chunk_size 800
  docuquery config set llm.provider anthropic

When setting an *.api_key without a value, the key is read from the terminal
without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return unavailable("settings")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Chunking:")
	cmd.Printf("  chunk_size:          %d\n", s.Chunking.Size)
	cmd.Printf("  overlap:             %d\n", s.Chunking.Overlap)

	cmd.Println("\nEmbedding:")
	cmd.Printf("  provider:            %s (%s)\n", s.Embedding.Provider, s.Embedding.Provider.Description())
	cmd.Printf("  model:               %s\n", s.Embedding.Model)
	printOptional(cmd, "  base_url:            ", s.Embedding.BaseURL)
	printAPIKey(cmd, s.Embedding.Provider, s.Embedding.APIKey)
	cmd.Printf("  batch_size:          %d\n", s.Embedding.BatchSize)
	cmd.Printf("  max_retries:         %d\n", s.Embedding.MaxRetries)
	cmd.Printf("  timeout:             %s\n", s.Embedding.Timeout)
	cmd.Printf("  requests_per_second: %g\n", s.Embedding.RequestsPerSecond)

	cmd.Println("\nLLM:")
	cmd.Printf("  provider:            %s (%s)\n", s.LLM.Provider, s.LLM.Provider.Description())
	cmd.Printf("  model:               %s\n", s.LLM.Model)
	printOptional(cmd, "  base_url:            ", s.LLM.BaseURL)
	printAPIKey(cmd, s.LLM.Provider, s.LLM.APIKey)
	cmd.Printf("  temperature:         %g\n", s.LLM.Temperature)
	cmd.Printf("  max_tokens:          %d\n", s.LLM.MaxTokens)
	cmd.Printf("  max_retries:         %d\n", s.LLM.MaxRetries)
	cmd.Printf("  timeout:             %s\n", s.LLM.Timeout)

	cmd.Println("\nRetrieval:")
	cmd.Printf("  top_k:               %d\n", s.Retrieval.TopK)
	cmd.Printf("  margin:              %d\n", s.Retrieval.Margin)
	cmd.Printf("  max_context_chars:   %d\n", s.Answer.MaxContextChars)

	cmd.Println("\nStorage:")
	dataDir := s.Storage.DataDir
	if dataDir == "" {
		dataDir = "(default)"
	}
	cmd.Printf("  data_dir:            %s\n", dataDir)
	cmd.Printf("  log format:          %s\n", s.Logging.Format)

	if err := s.Validate(); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func printOptional(cmd *cobra.Command, label, value string) {
	if value != "" {
		cmd.Printf("%s%s\n", label, value)
	}
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Println("  api_key:             (not set)")
		return
	}
	cmd.Printf("  api_key:             %s\n", maskAPIKey(key))
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return unavailable("settings")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case strings.HasSuffix(key, ".api_key"):
		cmd.Printf("Enter %s: ", key)
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
		if value == "" {
			return errors.New("no API key entered")
		}
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	if strings.HasSuffix(key, ".api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return unavailable("settings")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

// readPassword reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
