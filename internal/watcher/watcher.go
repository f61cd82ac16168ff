package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/liveserve-dev/liveserve/internal/errors"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeCSS ChangeType = iota
	ChangeMarkup
	ChangeAsset
)

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// Config configures the file watcher.
type Config struct {
	// Paths are the directories to watch (recursively).
	Paths []string

	// Ignore patterns to skip (names, globs, or path segments).
	Ignore []string

	// Debounce is the quiet window before a batch of changes is reported.
	Debounce time.Duration

	// Logger receives watch diagnostics.
	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".DS_Store",
	"*.tmp",
	"*.swp",
	"*~",
	"4913", // vim write test file
}

// Watcher monitors directories for changes using fsnotify and reports them
// in debounced batches.
type Watcher struct {
	config   Config
	onChange func([]Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	log      *slog.Logger
}

// New creates a new file watcher.
func New(config Config) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		config: config,
		log:    log,
	}
}

// OnChange sets the callback for change batches.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching. It blocks until the context is canceled, Stop is
// called, or the underlying watcher fails.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("E050").Wrap(err)
	}
	defer fsw.Close()

	for _, root := range w.config.Paths {
		if err := w.addRecursive(fsw, root); err != nil {
			return err
		}
	}

	timer := time.NewTimer(w.config.Debounce)
	defer timer.Stop()
	pending := make(map[string]Change)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-w.stopCh:
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.shouldIgnore(ev.Name) {
				continue
			}
			// New directories need explicit registration; fsnotify
			// does not watch recursively.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, ev.Name); err != nil {
						w.log.Debug("failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			pending[ev.Name] = Change{Path: ev.Name, Type: classifyChange(ev.Name)}
			timer.Reset(w.config.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changes := make([]Change, 0, len(pending))
			for _, c := range pending {
				changes = append(changes, c)
			}
			pending = make(map[string]Change)

			w.mu.Lock()
			callback := w.onChange
			w.mu.Unlock()
			if callback != nil {
				callback(changes)
			}
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addRecursive registers a directory tree with the fsnotify watcher.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.New("E051").WithDetail("Cannot access " + root).Wrap(err)
	}
	if !info.IsDir() {
		return fsw.Add(root)
	}

	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			w.log.Debug("failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}

// shouldIgnore checks if a path matches an ignore pattern. Patterns match
// the base name directly, as a glob against the base name, as a glob
// against the full slash path, or as a path segment.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		if strings.ContainsAny(pattern, "*?[") {
			if strings.Contains(pattern, "/") {
				if matched, _ := filepath.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		for _, seg := range strings.Split(normalized, "/") {
			if seg != "" && seg == pattern {
				return true
			}
		}
	}

	return false
}

// classifyChange determines the type of change based on file extension.
func classifyChange(path string) ChangeType {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".css", ".scss", ".sass", ".less":
		return ChangeCSS
	case ".html", ".htm", ".xhtml":
		return ChangeMarkup
	default:
		return ChangeAsset
	}
}
