package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/just-ask-ai/justask/internal/logger"
)

// defaultDebounce coalesces the bursts of events editors emit on save.
const defaultDebounce = 200 * time.Millisecond

// Watcher reloads a ConfigStore and a PromptStore when their files change.
// Directories are watched rather than files because editors commonly save
// by renaming a temporary file over the original.
type Watcher struct {
	watcher  *fsnotify.Watcher
	config   *ConfigStore
	prompts  *PromptStore
	debounce time.Duration

	// OnReload, if set, is called after each reload with what changed.
	OnReload func(configChanged, promptsChanged bool)

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewWatcher creates a watcher. Either store may be nil.
func NewWatcher(config *ConfigStore, prompts *PromptStore) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{
		watcher:  w,
		config:   config,
		prompts:  prompts,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directories are registered;
// events are handled in a goroutine until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if w.config != nil {
		if err := w.watcher.Add(filepath.Dir(w.config.Path())); err != nil {
			return fmt.Errorf("watching config directory: %w", err)
		}
	}
	if w.prompts != nil {
		if err := os.MkdirAll(w.prompts.Dir(), 0700); err != nil {
			return fmt.Errorf("creating prompt directory: %w", err)
		}
		if err := w.watcher.Add(w.prompts.Dir()); err != nil {
			return fmt.Errorf("watching prompt directory: %w", err)
		}
	}

	w.running = true
	go w.run(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	err := w.watcher.Close()
	if running {
		<-w.done
	}
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var (
		timer          *time.Timer
		fire           <-chan time.Time
		configChanged  bool
		promptsChanged bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			c, p := w.classify(event)
			if !c && !p {
				continue
			}
			configChanged = configChanged || c
			promptsChanged = promptsChanged || p
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher: %v", err)

		case <-fire:
			fire = nil
			w.reload(configChanged, promptsChanged)
			configChanged, promptsChanged = false, false
		}
	}
}

// classify reports whether event touches the config file or a prompt.
func (w *Watcher) classify(event fsnotify.Event) (configChanged, promptsChanged bool) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false, false
	}

	name := filepath.Clean(event.Name)
	if w.config != nil && name == filepath.Clean(w.config.Path()) {
		configChanged = true
	}
	if w.prompts != nil && filepath.Dir(name) == filepath.Clean(w.prompts.Dir()) &&
		strings.HasSuffix(name, promptExt) {
		promptsChanged = true
	}
	return configChanged, promptsChanged
}

func (w *Watcher) reload(configChanged, promptsChanged bool) {
	if configChanged {
		if err := w.config.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("config watcher: reloading %s: %v", w.config.Path(), err)
		} else {
			logger.Info("Reloaded %s", w.config.Path())
		}
	}
	if promptsChanged {
		w.prompts.Reload()
		logger.Info("Reloaded prompts from %s", w.prompts.Dir())
	}
	if w.OnReload != nil {
		w.OnReload(configChanged, promptsChanged)
	}
}
