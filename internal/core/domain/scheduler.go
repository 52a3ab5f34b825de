package domain

import "time"

// Built-in task IDs.
const (
	TaskIDDatasetImport = "dataset-import"
	TaskIDIndexSync     = "index-sync"
)

// ScheduledTask is the persisted state of one recurring job.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	LastError   string // cleared by the next successful run
}

// Due reports whether an enabled task should run at now.
// A task with no NextRun is due immediately.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Reschedule changes the interval and restarts the countdown from now.
func (t *ScheduledTask) Reschedule(interval time.Duration, now time.Time) {
	t.Interval = interval
	t.NextRun = now.Add(interval)
}

// Finish folds a completed run into the task and schedules the next one.
func (t *ScheduledTask) Finish(result *TaskResult) {
	t.LastRun = result.StartedAt
	t.NextRun = result.EndedAt.Add(t.Interval)
	if result.Success {
		t.LastError = ""
		t.LastSuccess = result.EndedAt
		return
	}
	t.LastError = result.Error
}

// TaskResult is one entry of task history.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts rows imported or documents submitted.
	ItemsProcessed int
}

// End closes the result at the given time. A run that processed items and
// then failed keeps its count.
func (r *TaskResult) End(items int, err error, at time.Time) {
	r.EndedAt = at
	r.ItemsProcessed = items
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is the wall time of the run.
func (r *TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig controls background work.
type SchedulerConfig struct {
	// Enabled is the master switch. Individual tasks still need their own flag.
	Enabled bool
	Tasks   map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Task returns the configuration for taskID, or the zero value.
func (c *SchedulerConfig) Task(taskID string) TaskConfig {
	return c.Tasks[taskID]
}

// DefaultSchedulerConfig syncs the index daily. Dataset import is opt-in
// because it pulls from a public API.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		Tasks: map[string]TaskConfig{
			TaskIDDatasetImport: {Enabled: false, Interval: 24 * time.Hour},
			TaskIDIndexSync:     {Enabled: true, Interval: 24 * time.Hour},
		},
	}
}
