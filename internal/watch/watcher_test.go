package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWatched(t *testing.T) (string, *FileWatcher) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bubbles.csv")
	require.NoError(t, os.WriteFile(path, []byte("diameter_um,time\n10,0\n"), 0644))

	fw, err := NewFileWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { fw.Close() })
	return path, fw
}

func TestRelevant(t *testing.T) {
	path, fw := newWatched(t)
	other := filepath.Join(filepath.Dir(path), "other.csv")

	assert.True(t, fw.relevant(fsnotify.Event{Name: path, Op: fsnotify.Write}))
	assert.True(t, fw.relevant(fsnotify.Event{Name: path, Op: fsnotify.Create}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: path, Op: fsnotify.Chmod}))
	assert.False(t, fw.relevant(fsnotify.Event{Name: other, Op: fsnotify.Write}))
}

func TestRunDebouncesWrites(t *testing.T) {
	path, fw := newWatched(t)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- fw.Run(ctx, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("diameter_um,time\n20,5\n"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestRunIgnoresOtherFiles(t *testing.T) {
	path, fw := newWatched(t)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	other := filepath.Join(filepath.Dir(path), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestRunContinuesAfterFailure(t *testing.T) {
	path, fw := newWatched(t)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx, func(context.Context) error {
		runs.Add(1)
		return errors.New("bad input")
	})

	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0644))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("b\n"), 0644))
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRunSkipsUnchangedContent(t *testing.T) {
	path, fw := newWatched(t)

	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("diameter_um,time\n10,0\n"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())

	require.NoError(t, os.WriteFile(path, []byte("diameter_um,time\n10,0\n60,0\n"), 0644))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewFileWatcherMissingDir(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "bubbles.csv"), 0)
	assert.Error(t, err)
}
