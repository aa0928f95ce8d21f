package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/syncgate/core/schema"
)

// ReloadRecorder observes catalogue reload attempts, successful or not.
// adapters/metrics provides a Prometheus implementation.
type ReloadRecorder interface {
	RecordReload(err error)
}

// Holder provides thread-safe access to a loaded catalogue with hot reload
// support. A reload that fails to parse or meta-validate keeps the old
// catalogue.
type Holder struct {
	mu       sync.RWMutex
	catalog  schema.Catalog
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(schema.Catalog)
	recorder ReloadRecorder
	stopCh   chan struct{}
}

// NewHolder loads and meta-validates the initial catalogue.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	catalog, err := loadValidated(path)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		catalog: catalog,
		path:    absPath,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

func loadValidated(path string) (schema.Catalog, error) {
	catalog, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	if problems := ValidateCatalog(catalog); len(problems) > 0 {
		return nil, fmt.Errorf("invalid catalogue: %s", strings.Join(problems, "; "))
	}
	return catalog, nil
}

// Get returns the current catalogue (thread-safe).
func (h *Holder) Get() schema.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

// Reload reloads the catalogue from disk. Returns an error if loading or
// meta-validation fails (keeps the old catalogue). Every attempt is reported
// to the reload recorder, when one is registered.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading catalogue")

	newCatalog, err := loadValidated(h.path)
	h.recordReload(err)
	if err != nil {
		h.logger.Error().Err(err).Msg("catalogue reload failed, keeping old catalogue")
		return fmt.Errorf("reload catalogue: %w", err)
	}

	h.mu.Lock()
	oldCatalog := h.catalog
	h.catalog = newCatalog
	h.mu.Unlock()

	if len(oldCatalog) != len(newCatalog) {
		h.logger.Info().
			Int("old", len(oldCatalog)).
			Int("new", len(newCatalog)).
			Msg("document type count changed")
	}

	for _, fn := range h.onChange {
		fn(newCatalog)
	}

	h.logger.Info().Msg("catalogue reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when the catalogue changes.
func (h *Holder) OnChange(fn func(schema.Catalog)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// SetReloadRecorder registers a recorder for reload attempts. Unlike
// OnChange callbacks, the recorder also observes failed reloads.
func (h *Holder) SetReloadRecorder(recorder ReloadRecorder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recorder = recorder
}

func (h *Holder) recordReload(err error) {
	h.mu.RLock()
	recorder := h.recorder
	h.mu.RUnlock()
	if recorder != nil {
		recorder.RecordReload(err)
	}
}

// WatchFile starts watching the catalogue file for changes. Changes trigger
// automatic reload.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory (more reliable for editors that do atomic saves)
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching catalogue file for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading catalogue")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload catalogue")
}

// Stop stops watching for file changes and signals.
func (h *Holder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			// Only react to our catalogue file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("catalogue file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}
