package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the stores and index hold",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if s.Stats != nil {
		stats, err := s.Stats.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		titleColor.Fprintln(out, "Stores")
		fmt.Fprintf(out, "  Table:          %s\n", stats.Table)
		fmt.Fprintf(out, "  Transactions:   %s\n", humanize.Comma(int64(stats.Transactions)))
		fmt.Fprintf(out, "  Documents:      %s\n", humanize.Comma(int64(stats.Documents)))
	}

	if s.Index == nil {
		return nil
	}

	status := s.Index.Status()
	fmt.Fprintln(out)
	titleColor.Fprintln(out, "Index sync")
	switch {
	case status.Running:
		warnColor.Fprintln(out, "  A sync is running")
	case status.LastReport == nil:
		dimColor.Fprintln(out, "  No sync has run in this process")
	}

	if r := status.LastReport; r != nil {
		fmt.Fprintf(out, "  Last run:       %s (%s)\n", humanize.Time(r.StartedAt), r.Duration().Round(time.Second))
		fmt.Fprintf(out, "  Submitted:      %s documents\n", humanize.Comma(int64(r.DocumentsSubmitted)))
		fmt.Fprintf(out, "  Final offset:   %s\n", humanize.Comma(int64(r.FinalOffset)))
	}
	if status.LastError != "" {
		warnColor.Fprintf(out, "  Last error:     %s\n", status.LastError)
	}
	return nil
}
