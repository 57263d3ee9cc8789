package fswatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/codehunt/internal/editor"
)

type chanPublisher chan editor.DocumentEvent

func (c chanPublisher) PublishDocument(ev editor.DocumentEvent) {
	select {
	case c <- ev:
	default:
	}
}

func TestWatcher_PublishesWrittenFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	target := filepath.Join(root, "src", "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	events := make(chanPublisher, 16)
	w, err := New([]string{root}, []string{"node_modules"}, events, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher a moment to register directories.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			require.NotContains(t, ev.Path, "node_modules")
			if ev.Path == target && ev.Text == "package main\n\nfunc main() {}\n" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for document event")
		}
	}
}

func TestWatcher_SkipsDirectoriesThatCannotBeWatched(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "locked", "deep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	target := filepath.Join(root, "src", "main.go")

	events := make(chanPublisher, 16)
	w, err := New([]string{root}, nil, events, zerolog.Nop())
	require.NoError(t, err)

	var attempted []string
	add := w.add
	w.add = func(path string) error {
		attempted = append(attempted, path)
		if filepath.Base(path) == "locked" {
			return os.ErrPermission
		}
		return add(path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	deadline := time.After(3 * time.Second)
wait:
	for {
		select {
		case ev := <-events:
			if ev.Path == target {
				break wait
			}
		case err := <-done:
			t.Fatalf("watcher stopped early: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for document event")
		}
	}

	cancel()
	require.NoError(t, <-done)
	assert.NotContains(t, attempted, filepath.Join(root, "locked", "deep"), "subtree of a failed directory is skipped")
}

func TestWatcher_NothingToWatch(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	w, err := New([]string{missing}, nil, make(chanPublisher, 1), zerolog.Nop())
	require.NoError(t, err)

	err = w.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNothingWatched))
}
