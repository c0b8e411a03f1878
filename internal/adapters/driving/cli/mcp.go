package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query,
ingest and browse your documents.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead. It serves the MCP endpoint at /mcp,
Prometheus metrics at /metrics and index health at /health.

Examples:
  # Stdio mode (default, for desktop assistants)
  docuquery mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docuquery mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "docuquery": {
        "command": "/path/to/docuquery",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "localhost", "HTTP listen host")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}

	if queryService == nil {
		return unavailable("query")
	}

	ports := &mcp.Ports{
		Query:    queryService,
		Ingest:   ingestService,
		Document: documentService,
		Settings: settingsService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("%s:%d", host, port)
		cmd.Printf("MCP server listening on http://%s/mcp\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
