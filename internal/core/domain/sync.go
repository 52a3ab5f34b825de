package domain

import "time"

// SyncOptions tunes one index synchronisation run.
// Zero values fall back to the configured sync settings.
type SyncOptions struct {
	// PageSize is the number of aggregate groups read per page.
	PageSize int

	// BatchSize is the number of documents submitted per index call.
	BatchSize int

	// MaxRows stops the run once this many groups past StartOffset were read.
	// Zero means unbounded.
	MaxRows int

	// BatchDelay is the pause enforced between submissions.
	BatchDelay time.Duration

	// StartOffset resumes pagination from a known offset.
	StartOffset int

	// Progress, when set, is called after every page.
	Progress func(SyncProgress)
}

// SyncProgress is reported after each page of a run.
type SyncProgress struct {
	Page      int
	Offset    int
	Submitted int
	Skipped   int
}

// SyncReport summarises a synchronisation run.
type SyncReport struct {
	RunID string

	PagesFetched       int
	GroupsRead         int
	DocumentsSkipped   int
	DocumentsSubmitted int
	BatchesSubmitted   int
	BatchesFailed      int
	AlreadyIndexed     int
	FinalOffset        int

	StartedAt  time.Time
	FinishedAt time.Time

	// Errors holds every per-batch failure of the run.
	Errors []error
}

// Duration returns how long the run took.
func (r *SyncReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncStatus describes the state of the synchroniser.
type SyncStatus struct {
	Running    bool
	LastReport *SyncReport
	LastError  string
}

// IndexStats describes the current contents of the stores.
type IndexStats struct {
	// Table is the aggregate table name.
	Table string

	// Transactions is the number of raw rows in the aggregate store.
	Transactions int

	// Documents is the number of documents in the semantic index.
	Documents int
}
