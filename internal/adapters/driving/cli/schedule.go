package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled import and sync in the foreground",
	Long: `Runs the background scheduler until interrupted.

Two tasks are scheduled: dataset import and index sync. Their intervals come
from scheduler.dataset_import.interval and sync.interval (or
scheduler.index_sync.interval). Task state is stored in the
local database, so a restarted scheduler keeps the same cadence.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}
	if s.Scheduler == nil {
		return errors.New("scheduler not available")
	}

	out := cmd.OutOrStdout()
	titleColor.Fprintln(out, "Scheduler running (Ctrl+C to stop)")
	for _, id := range []string{domain.TaskIDDatasetImport, domain.TaskIDIndexSync} {
		cfg := s.SchedulerConfig.Task(id)
		state := "disabled"
		if cfg.Enabled {
			state = "every " + cfg.Interval.String()
		}
		dimColor.Fprintf(out, "  %-16s %s\n", id, state)
	}

	// The foreground command always runs, whatever scheduler.enabled says.
	cfg := *s
	cfg.SchedulerConfig.Enabled = true
	stop := startBackground(cmd.Context(), &cfg)
	<-cmd.Context().Done()
	stop()

	fmt.Fprintln(out, "Scheduler stopped.")
	return nil
}
