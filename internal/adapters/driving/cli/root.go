// Package cli implements the justask command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// dataDirEnv overrides the default data directory when --data-dir is unset.
const dataDirEnv = "JUSTASK_DATA_DIR"

// ErrNotConfigured is returned when a command runs before services are wired.
var ErrNotConfigured = errors.New("justask is not configured: no service builder set")

// Watcher reloads configuration and prompts while a long-running command is up.
type Watcher interface {
	Start(ctx context.Context) error
	Close() error
}

// Services bundles everything the commands drive.
type Services struct {
	Query     driving.QueryService
	Index     driving.IndexService
	Import    driving.ImportService
	Stats     driving.StatsService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	SchedulerConfig domain.SchedulerConfig

	// Watcher is nil for ephemeral runs.
	Watcher Watcher

	// CheckProviders pings the configured embedding and LLM providers.
	CheckProviders func() error

	// Close releases stores and provider clients.
	Close func() error
}

// BuildOptions carries the global flags that affect wiring.
type BuildOptions struct {
	DataDir   string
	Ephemeral bool
}

// Builder constructs Services. It is called at most once per process,
// by the first command that needs a service.
type Builder func(ctx context.Context, opts BuildOptions) (*Services, error)

var (
	builder  Builder
	services *Services

	verbose   bool
	dataDir   string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "justask",
	Short: "Ask questions about Iowa liquor sales",
	Long: `justask answers natural-language questions over the Iowa liquor sales dataset.

Aggregate questions (totals, counts, rankings) are answered by generating and
running a SQL query against the local store. Everything else is answered from
a semantic index of monthly per-store, per-item summaries.

Typical first run:
  justask import --limit 200000   # load raw transactions
  justask sync                    # build the semantic index
  justask ask "top 5 vendors by bottles sold"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"data directory (default $"+dataDirEnv+" or ~/.justask)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"use a temporary data directory and in-memory settings")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBuilder registers the function that wires services on first use.
func SetBuilder(b Builder) {
	builder = b
}

// SetServices installs already-built services, bypassing the builder.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command until it returns or the process is
// interrupted, then releases services.
func Execute() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeServices(); closeErr != nil {
		logger.Warn("closing services: %v", closeErr)
	}
	return err
}

// loadServices returns the installed services, building them on first use.
func loadServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if builder == nil {
		return nil, ErrNotConfigured
	}

	built, err := builder(cmd.Context(), buildOptions())
	if err != nil {
		return nil, err
	}
	services = built
	return services, nil
}

func buildOptions() BuildOptions {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv(dataDirEnv)
	}
	return BuildOptions{DataDir: dir, Ephemeral: ephemeral}
}

func closeServices() error {
	if services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services = nil
	return err
}

// requireQuery returns the query service or a configuration error.
func requireQuery(cmd *cobra.Command) (driving.QueryService, error) {
	s, err := loadServices(cmd)
	if err != nil {
		return nil, err
	}
	if s.Query == nil {
		return nil, errors.New("query service not available")
	}
	return s.Query, nil
}
