// Package watcher imports CSV files dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/types"
	"github.com/Project-Sylos/Tabula/internal/workspace"
)

// DefaultDebounce is how long a file must stay quiet before it is imported
const DefaultDebounce = 250 * time.Millisecond

// Importer stores an imported document
type Importer interface {
	ImportCSV(ctx context.Context, source, name, text string) (*types.Node, error)
}

// Watcher imports every .csv file written to dir and removes it afterwards.
// Files that fail to import are left in place.
type Watcher struct {
	dir      string
	imp      Importer
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir
func New(dir string, imp Importer, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		imp:      imp,
		debounce: debounce,
		logger:   logging.Named("watcher"),
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches the directory until ctx is done. Files already present are
// imported first.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create watch dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.importExisting(ctx)
	w.logger.Info("watching for csv files", zap.String("dir", w.dir))

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isCSV(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// importExisting imports the files present before the watch started
func (w *Watcher) importExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list watch dir", zap.Error(err))
		return
	}
	for _, e := range entries {
		if !e.IsDir() && isCSV(e.Name()) {
			if err := w.ImportFile(ctx, filepath.Join(w.dir, e.Name())); err != nil {
				w.logger.Warn("import failed", zap.String("file", e.Name()), zap.Error(err))
			}
		}
	}
}

// schedule (re)arms the debounce timer of one path
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if err := w.ImportFile(ctx, path); err != nil {
			w.logger.Warn("import failed", zap.String("file", path), zap.Error(err))
		}
	})
}

// stop cancels pending timers and waits for running imports
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// ImportFile imports one file, named after its base name, and removes it
func (w *Watcher) ImportFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	node, err := w.imp.ImportCSV(ctx, workspace.SourceWatcher, name, string(data))
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove imported file: %w", err)
	}
	w.logger.Info("file imported", zap.String("file", base), zap.String("id", node.ID))
	return nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
