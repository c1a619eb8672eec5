package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of editor writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	logger    *slog.Logger
	updates   chan *Config
	done      chan struct{}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsWatcher: fsw,
		path:      filepath.Clean(path),
		debounce:  debounce,
		logger:    logger,
		updates:   make(chan *Config, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the file's directory, so editors that replace the file
// by rename are still seen. Each delivered config has passed Validate.
func (w *Watcher) Start() (<-chan *Config, error) {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	go w.loop()
	return w.updates, nil
}

// Stop terminates the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "path", w.path, "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		w.logger.Warn("config reload rejected", "path", w.path, "error", err)
		return
	}

	// Keep only the newest config if the consumer is behind.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- cfg:
	case <-w.done:
	}
}
