// Package cli implements the docuquery command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/adapters/driven/ai"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
	"github.com/custodia-labs/docuquery/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services wired by main. Commands check for nil before use.
var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	documentService driving.DocumentService
	settingsService driving.SettingsService

	// providerCheck pings the configured AI providers.
	providerCheck func(ctx context.Context) []ai.ProviderStatus

	// startupErr records why AI-backed services could not be built,
	// so that commands needing them can say why.
	startupErr error
)

var rootCmd = &cobra.Command{
	Use:   "docuquery",
	Short: "Ask questions about your own documents",
	Long: `docuquery ingests local documents, indexes them as embedded chunks and
answers questions grounded in the most relevant passages, citing its sources.

Get started:
  docuquery ingest ~/notes
  docuquery query "what did we decide about pricing?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices wires the core services used by commands. Any may be nil.
func SetServices(
	ingest driving.IngestService,
	query driving.QueryService,
	documents driving.DocumentService,
	settings driving.SettingsService,
) {
	ingestService = ingest
	queryService = query
	documentService = documents
	settingsService = settings
}

// SetProviderCheck sets the function used by the status command to
// test AI provider connectivity.
func SetProviderCheck(check func(ctx context.Context) []ai.ProviderStatus) {
	providerCheck = check
}

// SetStartupError records a failure building the AI-backed services.
func SetStartupError(err error) {
	startupErr = err
}

// unavailable explains why a service is missing.
func unavailable(name string) error {
	if startupErr != nil {
		return fmt.Errorf("%s service unavailable: %w", name, startupErr)
	}
	return errors.New(name + " service not configured")
}
