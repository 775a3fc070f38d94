package articlefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600)
		_ = os.WriteFile(filepath.Join(dir, "batch.json"), []byte(`[{"title":"A","source":"x"}]`), 0o600)
	}()

	select {
	case change := <-changes:
		require.NoError(t, change.Err)
		assert.Equal(t, "batch.json", filepath.Base(change.Path))
		assert.Len(t, change.Articles, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for article file")
	}

	cancel()
	for range changes {
	}
	assert.NoError(t, w.Close())
}

func TestWatcher_RejectsMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0)

	_, err := w.Watch(context.Background())

	assert.Error(t, err)
}

func TestWatcher_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "batch.jsonl")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))
	sub := filepath.Join(dir, "nested.json")
	require.NoError(t, os.Mkdir(sub, 0o700))

	w := NewWatcher(dir, 0)
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create", fsnotify.Event{Name: file, Op: fsnotify.Create}, true},
		{"write with chmod", fsnotify.Event{Name: file, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: file, Op: fsnotify.Remove}, false},
		{"directory", fsnotify.Event{Name: sub, Op: fsnotify.Create}, false},
		{"gone", fsnotify.Event{Name: filepath.Join(dir, "gone.json"), Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := w.handleFsEvent(tt.event)
			assert.Equal(t, tt.want, ok)
		})
	}
}
