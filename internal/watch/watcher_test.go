package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delta/internal/hashing"
	"delta/internal/ignore"
	"delta/internal/repo"
)

func testWatcher(t *testing.T) (*Watcher, *repo.Repository, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	r, err := repo.Init(t.TempDir(), repo.Options{
		Output: out,
		Ignore: ignore.FromPatterns("*.log", "node_modules"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	w, err := New(r, zap.NewNop(), out)
	require.NoError(t, err)
	t.Cleanup(func() { w.watcher.Close() })

	out.Reset()
	return w, r, out
}

func writeFile(t *testing.T, r *repo.Repository, rel, content string) string {
	t.Helper()
	path := filepath.Join(r.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewWatchesWorkingTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0755))

	out := &bytes.Buffer{}
	r, err := repo.Init(root, repo.Options{
		Output: out,
		Ignore: ignore.FromPatterns("node_modules"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	w, err := New(r, zap.NewNop(), out)
	require.NoError(t, err)
	t.Cleanup(func() { w.watcher.Close() })

	list := w.watcher.WatchList()
	assert.Contains(t, list, r.Root())
	assert.Contains(t, list, filepath.Join(r.Root(), "sub"))
	assert.NotContains(t, list, filepath.Join(r.Root(), "node_modules"))
	assert.NotContains(t, list, filepath.Join(r.Root(), ".delta"))
}

func TestHandleEventRestagesChangedFile(t *testing.T) {
	w, r, out := testWatcher(t)

	path := writeFile(t, r, "a.txt", "alpha")
	require.NoError(t, r.Add([]string{"a.txt"}))
	out.Reset()

	writeFile(t, r, "a.txt", "alpha v2")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.Contains(t, out.String(), "Restaged a.txt.")

	entries, err := r.Status()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, hashing.HashBytes([]byte("alpha v2")), entries[0].Fingerprint)
}

func TestHandleEventLeavesUnstagedFilesAlone(t *testing.T) {
	w, r, out := testWatcher(t)

	path := writeFile(t, r, "b.txt", "beta")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.Empty(t, out.String())

	entries, err := r.Status()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleEventSkipsIgnoredPaths(t *testing.T) {
	w, r, out := testWatcher(t)

	path := writeFile(t, r, "x.log", "noise")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.Empty(t, out.String())
}

func TestHandleEventKeepsEntryOfRemovedFile(t *testing.T) {
	w, r, out := testWatcher(t)

	path := writeFile(t, r, "a.txt", "alpha")
	require.NoError(t, r.Add([]string{"a.txt"}))
	out.Reset()

	require.NoError(t, os.Remove(path))
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})

	assert.Contains(t, out.String(), "kept until commit")

	staged, err := r.IsStaged("a.txt")
	require.NoError(t, err)
	assert.True(t, staged)
}

func TestHandleEventWatchesCreatedDirectories(t *testing.T) {
	w, r, _ := testWatcher(t)

	dir := filepath.Join(r.Root(), "newdir")
	require.NoError(t, os.Mkdir(dir, 0755))
	w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	assert.Contains(t, w.watcher.WatchList(), dir)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	w, _, _ := testWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestHandleEventRestagesRecreatedFile(t *testing.T) {
	w, r, out := testWatcher(t)

	path := writeFile(t, r, "a.txt", "alpha")
	require.NoError(t, r.Add([]string{"a.txt"}))
	out.Reset()

	require.NoError(t, os.Remove(path))
	writeFile(t, r, "a.txt", "alpha reborn")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

	assert.Contains(t, out.String(), "Restaged a.txt.")

	entries, err := r.Status()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, hashing.HashBytes([]byte("alpha reborn")), entries[0].Fingerprint)
}
