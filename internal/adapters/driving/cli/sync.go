package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise the semantic index",
	Long: `Runs one incremental index synchronisation.

Monthly per-store, per-item aggregates are read from the local store page by
page, turned into summary documents and submitted to the semantic index in
batches. Documents whose record id is already indexed are skipped, so an
interrupted run can simply be repeated.

Flags override the sync.* settings for this run only.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Int("max-rows", 0, "stop once this many aggregate groups were read (0 = unbounded)")
	syncCmd.Flags().Int("page-size", 0, "aggregate groups read per page")
	syncCmd.Flags().Int("batch-size", 0, "documents submitted per index call")
	syncCmd.Flags().Duration("delay", 0, "pause between batch submissions")
	syncCmd.Flags().Int("offset", 0, "resume pagination from this offset")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}
	if s.Index == nil {
		return errors.New("index service not available")
	}

	opts, err := syncOptions(cmd, s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	titleColor.Fprintln(out, "Synchronising semantic index")

	var bar *progressbar.ProgressBar
	if isTerminal(cmd.ErrOrStderr()) {
		total := int64(-1)
		if opts.MaxRows > 0 {
			total = int64(opts.MaxRows)
		}
		bar = newProgressBar(cmd.ErrOrStderr(), total, "Indexing")
		opts.Progress = func(p domain.SyncProgress) {
			bar.Describe(fmt.Sprintf("Indexing (%s new)", humanize.Comma(int64(p.Submitted))))
			_ = bar.Set64(int64(p.Offset))
		}
	}

	report, err := s.Index.Sync(cmd.Context(), opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if report != nil {
		printSyncReport(out, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// syncOptions starts from the stored settings and applies explicit flags.
func syncOptions(cmd *cobra.Command, s *Services) (domain.SyncOptions, error) {
	defaults := domain.DefaultAppSettings().Sync
	if s.Settings != nil {
		settings, err := s.Settings.Get()
		if err != nil {
			return domain.SyncOptions{}, fmt.Errorf("loading settings: %w", err)
		}
		defaults = settings.Sync
	}

	opts := domain.SyncOptions{
		PageSize:   defaults.PageSize,
		BatchSize:  defaults.BatchSize,
		MaxRows:    defaults.MaxRows,
		BatchDelay: defaults.BatchDelay,
	}

	flags := cmd.Flags()
	if flags.Changed("max-rows") {
		v, _ := flags.GetInt("max-rows")
		opts.MaxRows = v
	}
	if flags.Changed("page-size") {
		v, _ := flags.GetInt("page-size")
		opts.PageSize = v
	}
	if flags.Changed("batch-size") {
		v, _ := flags.GetInt("batch-size")
		opts.BatchSize = v
	}
	if flags.Changed("delay") {
		v, _ := flags.GetDuration("delay")
		opts.BatchDelay = v
	}
	if flags.Changed("offset") {
		v, _ := flags.GetInt("offset")
		opts.StartOffset = v
	}

	switch {
	case opts.MaxRows < 0:
		return opts, fmt.Errorf("%w: --max-rows must not be negative", domain.ErrInvalidInput)
	case opts.PageSize < 0, opts.BatchSize < 0:
		return opts, fmt.Errorf("%w: sizes must be positive", domain.ErrInvalidInput)
	case opts.BatchDelay < 0:
		return opts, fmt.Errorf("%w: --delay must not be negative", domain.ErrInvalidInput)
	case opts.StartOffset < 0:
		return opts, fmt.Errorf("%w: --offset must not be negative", domain.ErrInvalidInput)
	}
	return opts, nil
}

func printSyncReport(out io.Writer, r *domain.SyncReport) {
	fmt.Fprintf(out, "  Pages fetched:       %s\n", humanize.Comma(int64(r.PagesFetched)))
	fmt.Fprintf(out, "  Groups read:         %s\n", humanize.Comma(int64(r.GroupsRead)))
	fmt.Fprintf(out, "  Already indexed:     %s\n", humanize.Comma(int64(r.AlreadyIndexed)))
	fmt.Fprintf(out, "  Documents skipped:   %s\n", humanize.Comma(int64(r.DocumentsSkipped)))
	fmt.Fprintf(out, "  Documents submitted: %s\n", humanize.Comma(int64(r.DocumentsSubmitted)))
	fmt.Fprintf(out, "  Batches submitted:   %d\n", r.BatchesSubmitted)
	fmt.Fprintf(out, "  Final offset:        %s\n", humanize.Comma(int64(r.FinalOffset)))
	if d := r.Duration(); d > 0 {
		dimColor.Fprintf(out, "  Took %s\n", d.Round(time.Millisecond))
	}

	if r.BatchesFailed > 0 {
		warnColor.Fprintf(out, "  %d batch(es) failed; rerun sync to retry them\n", r.BatchesFailed)
		return
	}
	successColor.Fprintln(out, "Index is up to date.")
}
