package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Loader parses a Document from path, selected by Watch's caller
// (LoadJSON or LoadYAML) so Watch stays format-agnostic.
type Loader func(path string) (Document, error)

// Watcher watches a config file for changes and invokes onReload with
// the freshly parsed Document whenever the file is written. Grounded
// on gastrolog's dependency on github.com/fsnotify/fsnotify: this is
// the reload plumbing spec.md keeps in scope even though the file
// format's own parsing is named an out-of-scope external collaborator.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	logger  *slog.Logger
}

// Watch starts watching path's parent directory (editors commonly
// replace the file via rename-then-create, which only a directory
// watch reliably observes) and calls onReload after every Write/Create
// event targeting path. Parse errors are logged via logger (defaulting
// to slog.Default()) rather than propagated, since a transient
// half-written file must not crash the watcher.
func Watch(path string, load Loader, onReload func(Document), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, done: make(chan struct{}), logger: logger}
	go w.loop(path, load, onReload)
	return w, nil
}

func (w *Watcher) loop(path string, load Loader, onReload func(Document)) {
	target := filepath.Clean(path)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			doc, err := load(path)
			if err != nil {
				w.logger.Warn("config: reload failed", "path", path, "error", err)
				continue
			}
			if err := Validate(doc); err != nil {
				w.logger.Warn("config: reloaded document invalid", "path", path, "error", err)
				continue
			}
			onReload(doc)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config: watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
