package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools: ask, sync_status, index_stats.
Resources: the aggregate table schema and the most recent exchange.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start a streamable HTTP server at /mcp instead. The config watcher and, when
enabled, the scheduler run alongside the server.

Examples:
  # Stdio mode (default, for desktop assistants)
  justask mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  justask mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "justask": {
        "command": "/path/to/justask",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "127.0.0.1", "interface to bind in HTTP mode")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Query: s.Query,
		Index: s.Index,
		Stats: s.Stats,
	})
	if err != nil {
		return err
	}

	stop := startBackground(cmd.Context(), s)
	defer stop()

	if port > 0 {
		host, _ := cmd.Flags().GetString("host")
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s/mcp\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	// stdout carries JSON-RPC; nothing else may be written to it.
	return server.Run(cmd.Context())
}
