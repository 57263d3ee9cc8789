// Package fswatch turns saved files into document-changed events, so a
// plain terminal session can verify modification challenges without an
// editor plugin.
package fswatch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/editor"
)

// ErrNothingWatched is returned by Run when no root directory could be
// watched.
var ErrNothingWatched = errors.New("no directory could be watched")

// Publisher receives document events.
type Publisher interface {
	PublishDocument(ev editor.DocumentEvent)
}

// Watcher watches directory trees and publishes the new content of every
// written or created regular file.
type Watcher struct {
	roots   []string
	ignored map[string]bool
	pub     Publisher
	log     zerolog.Logger

	watcher  *fsnotify.Watcher
	add      func(path string) error
	stopOnce sync.Once
}

// New creates a Watcher over roots. Directories whose base name is in
// ignoredDirs are not watched.
func New(roots []string, ignoredDirs []string, pub Publisher, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ignored := make(map[string]bool, len(ignoredDirs))
	for _, d := range ignoredDirs {
		ignored[d] = true
	}
	return &Watcher{
		roots:   roots,
		ignored: ignored,
		pub:     pub,
		log:     log.With().Str("component", "fswatch").Logger(),
		watcher: fw,
		add:     fw.Add,
	}, nil
}

// Run watches until ctx is canceled or Close is called. Directories that
// cannot be watched are logged and skipped; Run fails only with
// ErrNothingWatched when none could be.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	watched := 0
	for _, root := range w.roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			w.log.Warn().Err(err).Str("root", root).Msg("skip root")
			continue
		}
		watched += w.addRecursive(abs)
	}
	if watched == 0 {
		return ErrNothingWatched
	}
	w.log.Debug().Int("dirs", watched).Msg("watching")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() {
	w.stopOnce.Do(func() {
		w.watcher.Close()
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.ignored[filepath.Base(event.Name)] {
			w.addRecursive(event.Name)
		}
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	data, err := os.ReadFile(event.Name)
	if err != nil {
		w.log.Debug().Err(err).Str("path", event.Name).Msg("read changed file")
		return
	}
	w.pub.PublishDocument(editor.DocumentEvent{Path: event.Name, Text: string(data)})
}

// addRecursive adds a directory and all non-ignored subdirectories and
// returns how many were added. A directory that cannot be added (no
// permission, inotify watch limit) is skipped along with its subtree.
func (w *Watcher) addRecursive(root string) int {
	added := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.ignored[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.add(path); err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("cannot watch directory")
			return filepath.SkipDir
		}
		added++
		return nil
	})
	return added
}
