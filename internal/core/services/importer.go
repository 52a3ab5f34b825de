package services

import (
	"context"
	"fmt"
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
)

// Ensure DatasetImporter implements the interface.
var _ driving.ImportService = (*DatasetImporter)(nil)

// DatasetImporter copies raw sale rows from the upstream dataset into the
// transaction store, one page at a time.
type DatasetImporter struct {
	source   driven.DatasetSource
	store    driven.TransactionStore
	pageSize int
	delay    time.Duration
}

// NewDatasetImporter creates a new importer. delay is enforced between
// page requests.
func NewDatasetImporter(
	source driven.DatasetSource,
	store driven.TransactionStore,
	pageSize int,
	delay time.Duration,
) *DatasetImporter {
	if pageSize <= 0 {
		pageSize = domain.DefaultAppSettings().Dataset.PageSize
	}
	return &DatasetImporter{
		source:   source,
		store:    store,
		pageSize: pageSize,
		delay:    delay,
	}
}

// Import resumes paging at the number of rows already stored, which is
// stable because the dataset is read in :id order. It stops when a page
// comes back empty or limit rows have been read by this run. Rows already
// stored are ignored by the store.
func (i *DatasetImporter) Import(ctx context.Context, limit int) (int, error) {
	start, err := i.store.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count stored transactions: %w", err)
	}
	if start > 0 {
		logger.Debug("Resuming dataset import at offset %d", start)
	}

	pacer := newPacer(i.delay)
	inserted := 0

	for offset := start; limit <= 0 || offset-start < limit; offset += i.pageSize {
		size := i.pageSize
		if limit > 0 {
			size = min(size, limit-(offset-start))
		}

		if err := pacer.Wait(ctx); err != nil {
			return inserted, err
		}
		rows, err := i.source.FetchPage(ctx, size, offset)
		if err != nil {
			return inserted, fmt.Errorf("fetch dataset page at offset %d: %w", offset, err)
		}
		if len(rows) == 0 {
			break
		}

		n, err := i.store.InsertTransactions(ctx, rows)
		if err != nil {
			return inserted, fmt.Errorf("store dataset page at offset %d: %w", offset, err)
		}
		inserted += n
		logger.Debug("Imported page at offset %d: %d rows, %d new", offset, len(rows), n)
	}

	logger.Info("Dataset import finished: %d new rows", inserted)
	return inserted, nil
}
