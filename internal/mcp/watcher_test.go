package mcp

// Test Plan for StoreWatcher:
// - Creation fails when the store's directory is missing
// - A write to the store file triggers one debounced reload
// - A burst of store and sidecar writes collapses into one reload
// - Unrelated files in the store directory never trigger reloads
// - A failing reload does not stop the watcher
// - Stop is idempotent and safe without Start
// - Context cancellation stops the loop

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReloadable implements Reloadable for testing. Each reload bumps the
// counter and pings the channel so tests can wait without polling.
type mockReloadable struct {
	reloadCount atomic.Int32
	reloadErr   error
	reloadedCh  chan struct{}
}

func newMockReloadable() *mockReloadable {
	return &mockReloadable{reloadedCh: make(chan struct{}, 8)}
}

func (m *mockReloadable) Reload(ctx context.Context) error {
	m.reloadCount.Add(1)
	select {
	case m.reloadedCh <- struct{}{}:
	default:
	}
	return m.reloadErr
}

func (m *mockReloadable) getReloadCount() int {
	return int(m.reloadCount.Load())
}

// waitForReload blocks until the mock reloads or the timeout passes.
func waitForReload(t *testing.T, mock *mockReloadable) {
	t.Helper()
	select {
	case <-mock.reloadedCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func touchFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStoreWatcher_MissingDirectory(t *testing.T) {
	t.Parallel()

	mock := newMockReloadable()
	watcher, err := NewStoreWatcher(mock, filepath.Join(t.TempDir(), "absent", "sigmap.db"))
	require.Error(t, err)
	assert.Nil(t, watcher)
}

func TestStoreWatcher_ReloadsOnStoreWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "sigmap.db")
	mock := newMockReloadable()

	watcher, err := NewStoreWatcher(mock, storePath)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.Start(context.Background())
	time.Sleep(100 * time.Millisecond) // Let the watch loop initialize

	touchFile(t, storePath, "v1")
	waitForReload(t, mock)
	assert.Equal(t, 1, mock.getReloadCount())
}

func TestStoreWatcher_BatchesBursts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "sigmap.db")
	mock := newMockReloadable()

	watcher, err := NewStoreWatcher(mock, storePath)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	// SQLite touches the database and its sidecars in quick succession.
	touchFile(t, storePath, "v1")
	touchFile(t, storePath+"-journal", "j")
	touchFile(t, storePath, "v2")

	waitForReload(t, mock)

	// The debounce window has passed; a settled burst means no stragglers.
	time.Sleep(700 * time.Millisecond)
	assert.Equal(t, 1, mock.getReloadCount())
}

func TestStoreWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "sigmap.db")
	mock := newMockReloadable()

	watcher, err := NewStoreWatcher(mock, storePath)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	touchFile(t, filepath.Join(dir, "config.yml"), "scan: {}")
	time.Sleep(800 * time.Millisecond) // Past the debounce window
	assert.Equal(t, 0, mock.getReloadCount())

	// The store itself still triggers
	touchFile(t, storePath, "v1")
	waitForReload(t, mock)
	assert.Equal(t, 1, mock.getReloadCount())
}

func TestStoreWatcher_KeepsWatchingAfterFailedReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "sigmap.db")
	mock := newMockReloadable()
	mock.reloadErr = assert.AnError

	watcher, err := NewStoreWatcher(mock, storePath)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	touchFile(t, storePath, "v1")
	waitForReload(t, mock)

	// The reload failed; the next change must still be seen.
	touchFile(t, storePath, "v2")
	waitForReload(t, mock)
	assert.Equal(t, 2, mock.getReloadCount())
}

func TestStoreWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mock := newMockReloadable()

	watcher, err := NewStoreWatcher(mock, filepath.Join(dir, "sigmap.db"))
	require.NoError(t, err)

	watcher.Start(context.Background())
	watcher.Stop()
	watcher.Stop() // Second call should not panic
}

func TestStoreWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mock := newMockReloadable()

	watcher, err := NewStoreWatcher(mock, filepath.Join(dir, "sigmap.db"))
	require.NoError(t, err)

	watcher.Stop() // Must not block waiting for a loop that never ran
}

func TestStoreWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "sigmap.db")
	mock := newMockReloadable()

	watcher, err := NewStoreWatcher(mock, storePath)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	watcher.Start(ctx)
	cancel()
	time.Sleep(100 * time.Millisecond)

	// The loop exited; store writes go unnoticed.
	touchFile(t, storePath, "v1")
	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, 0, mock.getReloadCount())
}
