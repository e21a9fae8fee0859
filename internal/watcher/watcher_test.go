package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))

	file := filepath.Join(dir, "world.yml")
	require.NoError(t, os.WriteFile(file, []byte("world: {}"), 0o644))
	assert.NoError(t, watcher.AddPath(file), "a file adds its directory")

	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
}

// collect starts w and returns a function that waits for the first batch.
func collect(t *testing.T, w *FileWatcher) func() []ChangeEvent {
	t.Helper()
	var (
		mu      sync.Mutex
		batches [][]ChangeEvent
	)
	w.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	return func() []ChangeEvent {
		var got []ChangeEvent
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			if len(batches) == 0 {
				return false
			}
			got = batches[0]
			return true
		}, 2*time.Second, 20*time.Millisecond)
		return got
	}
}

func TestWatchFilesReportsOnlyListedFiles(t *testing.T) {
	dir := t.TempDir()
	worldFile := filepath.Join(dir, "world.yml")
	offsets := filepath.Join(dir, "offsets1.csv")
	for _, f := range []string{worldFile, offsets} {
		require.NoError(t, os.WriteFile(f, []byte("0"), 0o644))
	}

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	require.NoError(t, watcher.WatchFiles(worldFile, offsets))
	wait := collect(t, watcher)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.csv"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(offsets, []byte("5"), 0o644))

	events := wait()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, offsets, e.Path)
	}
}

func TestHandlerErrorsDoNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddHandler(func([]ChangeEvent) error { return errors.New("boom") })
	wait := collect(t, watcher)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("1"), 0o644))
	assert.NotEmpty(t, wait())
}

func TestDebouncer(t *testing.T) {
	debouncer := newDebouncer(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "b.csv", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "b.csv", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "a.csv", Type: EventTypeModified}

	select {
	case events := <-debouncer.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.csv", events[0].Path)
		assert.Equal(t, "b.csv", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type, "last event per path wins")
	case <-time.After(time.Second):
		t.Fatal("no debounced batch")
	}
}

func TestFilters(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "world.yml")
	filter, err := PathSetFilter(keep)
	require.NoError(t, err)
	assert.True(t, filter(keep))
	assert.True(t, filter(filepath.Join(dir, ".", "world.yml")))
	assert.False(t, filter(filepath.Join(dir, "other.yml")))

	testCases := []struct {
		path      string
		worldData bool
		notHidden bool
	}{
		{"world.yml", true, true},
		{"dir/world.YAML", true, true},
		{"offsets.csv", true, true},
		{"notes.txt", false, true},
		{".world.yml.swp", false, false},
		{"dir/.offsets.csv", true, false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.worldData, WorldDataFilter(tc.path))
			assert.Equal(t, tc.notHidden, NoHiddenFilter(tc.path))
		})
	}
}

func TestAcceptsRequiresEveryFilter(t *testing.T) {
	watcher, err := NewFileWatcher(time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.accepts("anything"))
	watcher.AddFilter(WorldDataFilter)
	watcher.AddFilter(NoHiddenFilter)
	assert.True(t, watcher.accepts("world.yml"))
	assert.False(t, watcher.accepts(".world.yml"))
	assert.False(t, watcher.accepts("world.txt"))
}
