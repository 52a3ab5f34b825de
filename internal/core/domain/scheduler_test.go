package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.Tasks, 2)
	assert.Equal(t, TaskConfig{Enabled: true, Interval: 24 * time.Hour}, config.Task(TaskIDIndexSync))
	assert.False(t, config.Task(TaskIDDatasetImport).Enabled)
}

func TestSchedulerConfig_TaskUnknownOrNil(t *testing.T) {
	config := DefaultSchedulerConfig()
	assert.Equal(t, TaskConfig{}, config.Task("unknown-task"))

	var empty SchedulerConfig
	assert.Equal(t, TaskConfig{}, empty.Task(TaskIDIndexSync))
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task ScheduledTask
		want bool
	}{
		{"never scheduled", ScheduledTask{Enabled: true}, true},
		{"exactly now", ScheduledTask{Enabled: true, NextRun: now}, true},
		{"overdue", ScheduledTask{Enabled: true, NextRun: now.Add(-time.Hour)}, true},
		{"future", ScheduledTask{Enabled: true, NextRun: now.Add(time.Minute)}, false},
		{"disabled", ScheduledTask{NextRun: now.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}

func TestScheduledTask_Reschedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := ScheduledTask{Interval: time.Hour, NextRun: now.Add(time.Hour)}

	task.Reschedule(6*time.Hour, now)

	assert.Equal(t, 6*time.Hour, task.Interval)
	assert.Equal(t, now.Add(6*time.Hour), task.NextRun)
}

func TestScheduledTask_Finish(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)
	task := ScheduledTask{Interval: time.Hour, LastError: "old failure"}

	ok := &TaskResult{StartedAt: start}
	ok.End(42, nil, end)
	task.Finish(ok)

	assert.Equal(t, start, task.LastRun)
	assert.Equal(t, end.Add(time.Hour), task.NextRun)
	assert.Equal(t, end, task.LastSuccess)
	assert.Empty(t, task.LastError)

	failed := &TaskResult{StartedAt: end}
	failed.End(7, errors.New("upstream 503"), end.Add(time.Minute))
	task.Finish(failed)

	assert.Equal(t, "upstream 503", task.LastError)
	assert.Equal(t, end, task.LastSuccess)
	assert.False(t, failed.Success)
	assert.Equal(t, 7, failed.ItemsProcessed)
}

func TestTaskResult_Duration(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := TaskResult{StartedAt: start, EndedAt: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, r.Duration())

	r = TaskResult{StartedAt: start}
	assert.Zero(t, r.Duration())
}
