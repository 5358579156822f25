package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/sflens/internal/logger"
)

// DefaultAuthDebounce coalesces the burst of writes `sf org login` produces.
const DefaultAuthDebounce = 750 * time.Millisecond

// AuthWatcher watches the CLI's auth directory (one JSON file per
// authorized org plus alias.json) and calls onChange once per burst of
// changes.
type AuthWatcher struct {
	dir      string
	debounce time.Duration
	onChange func()
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
	started  bool
}

// NewAuthWatcher returns nil, nil when dir does not exist: there is nothing
// to watch until the CLI has logged in once, and a restart picks it up.
func NewAuthWatcher(dir string, debounce time.Duration, onChange func(), log logger.Logger) (*AuthWatcher, error) {
	if dir == "" {
		return nil, nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Warn("auth directory not found, not watching",
			logger.String("dir", dir))
		return nil, nil
	}
	if debounce <= 0 {
		debounce = DefaultAuthDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &AuthWatcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   log,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the watch loop until ctx ends or Stop is called.
func (w *AuthWatcher) Start(ctx context.Context) {
	w.logger.Info("watching auth directory", logger.String("dir", w.dir))
	w.started = true
	go w.loop(ctx)
}

func (w *AuthWatcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("auth file changed",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			authChangesTotal.Inc()
			w.logger.Info("authorized orgs changed on disk")
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("auth watcher error", logger.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

// Stop closes the watcher and waits for the loop to exit.
func (w *AuthWatcher) Stop() error {
	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	return err
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".json")
}
