package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP question-answering API.

Endpoints:
  GET  /          health check
  POST /query     {"question": "...", "filters": {"city": "ames"}}
  GET  /query     most recent question and response
  GET  /metrics   Prometheus metrics

The scheduler runs alongside the API when scheduler.enabled is set, and
edits to config.toml or the prompt files are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}

	var origins []string
	if s.Settings != nil {
		settings, err := s.Settings.Get()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if addr == "" {
			addr = settings.Server.Addr
		}
		origins = settings.Server.CORSOrigins
	}
	if addr == "" {
		addr = ":8000"
	}

	server, err := httpapi.NewServer(s.Query, origins)
	if err != nil {
		return err
	}

	stop := startBackground(cmd.Context(), s)
	defer stop()

	titleColor.Fprintf(cmd.OutOrStdout(), "justask API listening on %s\n", addr)
	return server.ListenAndServe(cmd.Context(), addr)
}
