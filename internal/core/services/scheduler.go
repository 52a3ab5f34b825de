package services

import (
	"context"
	"sync"
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// Scheduler runs dataset import and index synchronisation on an interval.
// Task state is persisted so a restarted daemon resumes the same cadence.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	importer driving.ImportService
	indexer  driving.IndexService
	tick     time.Duration

	mu       sync.Mutex
	running  bool
	inflight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
// importer may be nil when dataset import is not configured.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	importer driving.ImportService,
	indexer driving.IndexService,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		importer: importer,
		indexer:  indexer,
		tick:     time.Minute,
		inflight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	// Run the main scheduler loop
	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	tasks := []struct {
		id, name string
	}{
		{domain.TaskIDDatasetImport, "Dataset Import"},
		{domain.TaskIDIndexSync, "Index Sync"},
	}
	for _, t := range tasks {
		taskCfg := s.config.Task(t.id)
		if t.id == domain.TaskIDDatasetImport && s.importer == nil {
			taskCfg.Enabled = false
		}
		if err := s.ensureTask(ctx, t.id, t.name, taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates the task or brings a stored one in line with cfg.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	switch {
	case task == nil:
		task = &domain.ScheduledTask{ID: id, Name: name}
		task.Reschedule(cfg.Interval, now)
	case task.Interval != cfg.Interval:
		task.Reschedule(cfg.Interval, now)
	}
	task.Enabled = cfg.Enabled

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes a single task unless a previous run is still going.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	var work func(context.Context) (int, error)
	switch task.ID {
	case domain.TaskIDDatasetImport:
		work = s.runDatasetImport
	case domain.TaskIDIndexSync:
		work = s.runIndexSync
	default:
		logger.Warn("scheduler: unknown task ID: %s", task.ID)
		return
	}

	s.mu.Lock()
	if s.inflight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inflight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, task.ID)
			s.mu.Unlock()
		}()

		logger.Info("scheduler: running %s", task.ID)
		result := &domain.TaskResult{TaskID: task.ID, StartedAt: time.Now()}
		items, err := work(ctx)
		result.End(items, err, time.Now())
		task.Finish(result)

		if err != nil {
			logger.Warn("scheduler: %s failed after %s: %v", task.ID, result.Duration().Round(time.Second), err)
		} else {
			logger.Info("scheduler: %s processed %d items in %s", task.ID, items, result.Duration().Round(time.Second))
		}

		if err := s.store.SaveTask(ctx, task); err != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
		}
		if err := s.store.RecordResult(ctx, result); err != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, err)
		}
		if err := s.store.PruneHistory(ctx, historyRetention); err != nil {
			logger.Warn("scheduler: failed to prune history: %v", err)
		}
	}()
}

// runDatasetImport pulls new rows from the upstream dataset.
func (s *Scheduler) runDatasetImport(ctx context.Context) (int, error) {
	if s.importer == nil {
		return 0, nil
	}
	return s.importer.Import(ctx, 0)
}

// runIndexSync indexes any aggregate groups not yet in the index.
// Partial progress is kept even when some batches fail.
func (s *Scheduler) runIndexSync(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}
	report, err := s.indexer.Sync(ctx, domain.SyncOptions{})
	if report == nil {
		return 0, err
	}
	return report.DocumentsSubmitted, err
}
