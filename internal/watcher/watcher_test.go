package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
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

func TestEventTypeOf(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventTypeOf(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventTypeOf(fsnotify.Rename))
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create|fsnotify.Write))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestStopTwice(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

func TestFilters(t *testing.T) {
	assert.True(t, ManifestFilter("fab.yml"))
	assert.True(t, ManifestFilter("/a/b/FAB.YAML"))
	assert.False(t, ManifestFilter("index.html"))

	assert.True(t, DocumentFilter("index.html"))
	assert.True(t, DocumentFilter("page.htm"))
	assert.False(t, DocumentFilter("fab.yml"))

	assert.True(t, NoHiddenFilter("/a/fab.yml"))
	assert.False(t, NoHiddenFilter("/a/.fab.yml.swp"))
	assert.False(t, NoHiddenFilter("/a/fab.yml~"))
	assert.False(t, NoHiddenFilter("/a/4913.swp"))

	only := FileNameFilter("/a/b/../b/fab.yml")
	assert.True(t, only("/a/b/fab.yml"))
	assert.False(t, only("/a/b/other.yml"))

	either := AnyFilter(ManifestFilter, DocumentFilter)
	assert.True(t, either("x.yml"))
	assert.True(t, either("x.html"))
	assert.False(t, either("x.go"))
}

func TestValidatePath(t *testing.T) {
	abs, err := validatePath("some/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = validatePath("../outside")
	assert.Error(t, err)
}

func TestDebouncerBatchesAndDeduplicates(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "b.yml"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.yml"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.yml"})

	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		assert.Equal(t, "a.yml", batch[0].Path)
		assert.Equal(t, "b.yml", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestFileWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "fab.yml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(manifest, []byte("blueprints: []\n"), 0o644))

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	var mu sync.Mutex
	var seen []ChangeEvent
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, events...)
		return nil
	})
	require.NoError(t, watcher.AddFile(manifest))
	assert.NotEmpty(t, watcher.WatchList())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(manifest, []byte("blueprints: [{name: a}]\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, ev := range seen {
		assert.Equal(t, filepath.Base(manifest), filepath.Base(ev.Path))
	}
}

