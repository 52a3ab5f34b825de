package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for justask.

The TUI lets you ask questions in a scrolling transcript and check the state
of the index.

Controls:
  Enter    - Ask / Select
  ↑        - Previous question
  PgUp/Dn  - Scroll transcript
  Ctrl+L   - Clear transcript
  Esc      - Back / Cancel
  ?        - Toggle help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Query: s.Query,
		Index: s.Index,
		Stats: s.Stats,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	// TUI is long-running, so background tasks run while it is open.
	stop := startBackground(cmd.Context(), s)
	defer stop()

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
