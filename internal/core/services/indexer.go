package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
	"github.com/just-ask-ai/justask/internal/metrics"
)

// Ensure IndexUpdater implements the interface.
var _ driving.IndexService = (*IndexUpdater)(nil)

// IndexUpdater synchronises the semantic index with the aggregate store.
// Each run pages through the source, synthesizes documents, skips ids the
// index already holds, and submits the rest in paced batches.
type IndexUpdater struct {
	source      driven.AggregateSource
	index       driven.SemanticIndex
	synthesizer *DocumentSynthesizer
	defaults    domain.SyncSettings

	mu     sync.RWMutex
	status domain.SyncStatus
}

// NewIndexUpdater creates a new index updater.
// defaults supply any SyncOptions field left at zero.
func NewIndexUpdater(
	source driven.AggregateSource,
	index driven.SemanticIndex,
	synthesizer *DocumentSynthesizer,
	defaults domain.SyncSettings,
) *IndexUpdater {
	if synthesizer == nil {
		synthesizer = NewDocumentSynthesizer()
	}
	return &IndexUpdater{
		source:      source,
		index:       index,
		synthesizer: synthesizer,
		defaults:    defaults,
	}
}

// Sync runs one incremental synchronisation.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (u *IndexUpdater) Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncReport, error) {
	opts = u.withDefaults(opts)
	if opts.PageSize <= 0 || opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: page size and batch size must be positive", domain.ErrInvalidInput)
	}
	if !u.begin() {
		return nil, domain.ErrSyncInProgress
	}

	report := &domain.SyncReport{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		FinalOffset: opts.StartOffset,
	}
	var runErr error
	defer func() { u.finish(report, runErr) }()

	logger.Info("Starting index sync %s (page size %d, batch size %d)", report.RunID, opts.PageSize, opts.BatchSize)

	// 1. Load the indexed set once for the whole run
	tracker := NewIdentityTracker(u.index)
	if err := tracker.Load(ctx); err != nil {
		report.FinishedAt = time.Now()
		runErr = err
		return report, err
	}
	report.AlreadyIndexed = tracker.Len()
	logger.Debug("Index already holds %d documents", tracker.Len())

	pacer := newPacer(opts.BatchDelay)
	offset := opts.StartOffset

	for opts.MaxRows <= 0 || offset-opts.StartOffset < opts.MaxRows {
		// 2. Fetch the next page of aggregate groups
		groups, err := u.source.FetchGroups(ctx, opts.PageSize, offset)
		report.PagesFetched++
		metrics.SyncPage()
		if err != nil {
			report.FinishedAt = time.Now()
			runErr = errors.Join(append(report.Errors, fmt.Errorf("fetch page at offset %d: %w", offset, err))...)
			return report, runErr
		}
		if len(groups) == 0 {
			break
		}
		report.GroupsRead += len(groups)

		// 3. Synthesize and drop documents the index already holds
		pending, skipped := pendingDocuments(tracker, u.synthesizer.Synthesize(groups))
		report.DocumentsSkipped += skipped
		metrics.SyncDocuments("skipped", skipped)

		// 4. Submit in bounded, paced batches
		for _, batch := range chunk(pending, opts.BatchSize) {
			if err := pacer.Wait(ctx); err != nil {
				report.FinishedAt = time.Now()
				runErr = errors.Join(append(report.Errors, err)...)
				return report, runErr
			}
			u.submit(ctx, tracker, batch, report)
		}

		// 5. Advance by the page size whether or not anything was new
		offset += opts.PageSize
		report.FinalOffset = offset
		logger.Debug("Page %d done: offset=%d submitted=%d skipped=%d",
			report.PagesFetched, offset, report.DocumentsSubmitted, report.DocumentsSkipped)

		if opts.Progress != nil {
			opts.Progress(domain.SyncProgress{
				Page:      report.PagesFetched,
				Offset:    offset,
				Submitted: report.DocumentsSubmitted,
				Skipped:   report.DocumentsSkipped,
			})
		}
	}

	report.FinishedAt = time.Now()
	runErr = errors.Join(report.Errors...)

	logger.Info("Index sync %s finished in %s: %d submitted, %d skipped, %d failed batches",
		report.RunID, report.Duration().Round(time.Millisecond),
		report.DocumentsSubmitted, report.DocumentsSkipped, report.BatchesFailed)

	return report, runErr
}

// Status returns the state of the current or most recent run.
func (u *IndexUpdater) Status() domain.SyncStatus {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// submit indexes one batch and records its ids only on success.
func (u *IndexUpdater) submit(
	ctx context.Context,
	tracker *IdentityTracker,
	batch []domain.Document,
	report *domain.SyncReport,
) {
	err := u.index.AddDocuments(ctx, batch)
	metrics.SyncBatch(err)
	if err != nil {
		ids := make([]string, len(batch))
		for i := range batch {
			ids[i] = batch[i].RecordID
		}
		report.BatchesFailed++
		report.Errors = append(report.Errors, &domain.SubmissionError{RecordIDs: ids, Err: err})
		metrics.SyncDocuments("failed", len(batch))
		logger.Warn("Batch of %d documents failed: %v", len(batch), err)
		return
	}

	for i := range batch {
		tracker.Record(batch[i].RecordID)
	}
	report.BatchesSubmitted++
	report.DocumentsSubmitted += len(batch)
	metrics.SyncDocuments("submitted", len(batch))
}

func (u *IndexUpdater) withDefaults(opts domain.SyncOptions) domain.SyncOptions {
	if opts.PageSize == 0 {
		opts.PageSize = u.defaults.PageSize
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = u.defaults.BatchSize
	}
	if opts.MaxRows == 0 {
		opts.MaxRows = u.defaults.MaxRows
	}
	if opts.BatchDelay == 0 {
		opts.BatchDelay = u.defaults.BatchDelay
	}
	return opts
}

func (u *IndexUpdater) begin() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.status.Running {
		return false
	}
	u.status.Running = true
	return true
}

func (u *IndexUpdater) finish(report *domain.SyncReport, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status.Running = false
	u.status.LastReport = report
	u.status.LastError = ""
	if err != nil {
		u.status.LastError = err.Error()
	}
}

// pendingDocuments drops documents already tracked and repeated ids within
// the page, keeping the first occurrence.
func pendingDocuments(tracker *IdentityTracker, docs []domain.Document) ([]domain.Document, int) {
	seen := make(map[string]bool, len(docs))
	pending := make([]domain.Document, 0, len(docs))
	skipped := 0
	for _, d := range docs {
		if tracker.Contains(d.RecordID) || seen[d.RecordID] {
			skipped++
			continue
		}
		seen[d.RecordID] = true
		pending = append(pending, d)
	}
	return pending, skipped
}

// newPacer allows one submission immediately and then one per delay.
// A non-positive delay disables pacing.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
