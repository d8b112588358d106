// Package watch reloads a scene document into a Dispatcher whenever the file
// changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phanxgames/junctionbox"
	"github.com/phanxgames/junctionbox/codec"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
	log      *slog.Logger
}

// New creates a new file watcher. A nil logger uses slog.Default().
func New(path string, onChange func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: defaultDebounce,
		log:      logger.With("component", "watch", "path", path),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch starts watching the file for changes. It blocks until ctx is done
// and then returns ctx.Err().
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching for changes")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.log.Debug("file changed")
				w.onChange()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Restorer applies a decoded document. *junctionbox.Dispatcher implements it.
type Restorer interface {
	Restore(doc junctionbox.Document) error
}

// LoadScene decodes the document at path, choosing the codec by extension,
// and restores it into r. Nothing is applied when reading or decoding fails.
func LoadScene(path string, r Restorer) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	doc, err := c.Parse(f)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", path, err)
	}
	if err := r.Restore(doc); err != nil {
		return fmt.Errorf("restore scene %s: %w", path, err)
	}
	return nil
}

// Reloader returns a change callback that reloads path into r and logs
// failures instead of returning them.
func Reloader(path string, r Restorer, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	return func() {
		if err := LoadScene(path, r); err != nil {
			logger.Warn("scene reload failed", "path", path, "error", err)
			return
		}
		logger.Info("scene reloaded", "path", path)
	}
}
