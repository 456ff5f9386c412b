package trigger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *changeRecorder) record(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *changeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcherReportsTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "a.ts")
	other := filepath.Join(dir, "b.ts")
	require.NoError(t, os.WriteFile(tracked, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("b"), 0644))

	rec := &changeRecorder{}
	w, err := NewWatcher(50*time.Millisecond, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Track(tracked))
	w.Start(context.Background())
	defer w.Close()

	// several quick writes settle into one notification
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(tracked, []byte("a2"), 0644))
	}
	require.NoError(t, os.WriteFile(other, []byte("b2"), 0644))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	paths := rec.snapshot()
	assert.Equal(t, []string{tracked}, paths)
}

func TestWatcherUntrack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	rec := &changeRecorder{}
	w, err := NewWatcher(20*time.Millisecond, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Track(path))
	require.NoError(t, w.Track(path))
	w.Untrack(path)
	w.Start(context.Background())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
