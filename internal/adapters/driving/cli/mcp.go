package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query the
documents. Tools: ask, index_stats. Resource: ragchat://indexes.

By default the server communicates over stdio using JSON-RPC. Use --http
to serve streamable HTTP instead (e.g. for MCP Inspector).

Examples:
  ragchat mcp
  ragchat mcp --http :8090

Client configuration:
  {
    "mcpServers": {
      "ragchat": {
        "command": "/path/to/ragchat",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	app, err := loadApplication(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	server, err := mcp.NewServer(&mcp.Ports{Chat: app.chat, Index: app.index}, version)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
