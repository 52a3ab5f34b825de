package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/just-ask-ai/justask/internal/logger"
)

// startBackground starts the config watcher and, when enabled, the
// scheduler for long-running commands. The returned stop function cancels
// both and waits for the scheduler to drain.
func startBackground(ctx context.Context, s *Services) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	if s.Watcher != nil {
		if err := s.Watcher.Start(ctx); err != nil {
			logger.Warn("config watcher not started: %v", err)
		}
	}

	var wg sync.WaitGroup
	if s.SchedulerConfig.Enabled && s.Scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped: %v", err)
			}
		}()
	}

	return func() {
		cancel()
		if s.SchedulerConfig.Enabled && s.Scheduler != nil {
			if err := s.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}
		wg.Wait()
		if s.Watcher != nil {
			if err := s.Watcher.Close(); err != nil {
				logger.Warn("config watcher close error: %v", err)
			}
		}
	}
}
