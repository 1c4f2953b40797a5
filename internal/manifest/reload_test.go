package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/fab/internal/watcher"
)

func TestReloaderRegistersChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fab.yml")
	require.NoError(t, os.WriteFile(path, []byte("blueprints:\n  - name: a\n"), 0o644))

	f := newFactory(t)
	r := NewReloader(path, f, nil)

	require.NoError(t, r.Handle([]watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: path}}))
	assert.Equal(t, []string{"a"}, f.Registry().Names())

	require.NoError(t, os.WriteFile(path, []byte("blueprints:\n  - name: a\n  - name: b\n"), 0o644))
	require.NoError(t, r.Handle([]watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: path}}))
	assert.Equal(t, []string{"a", "b"}, f.Registry().Names())
	assert.Equal(t, uint64(2), r.Reloads())
}

func TestReloaderKeepsBlueprintsOnBadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fab.yml")
	require.NoError(t, os.WriteFile(path, []byte("blueprints:\n  - name: a\n"), 0o644))

	f := newFactory(t)
	r := NewReloader(path, f, nil)
	require.NoError(t, r.Handle(nil))

	require.NoError(t, os.WriteFile(path, []byte("blueprints:\n  - name: \"\"\n"), 0o644))
	require.Error(t, r.Handle(nil))
	assert.Equal(t, []string{"a"}, f.Registry().Names())
	assert.Equal(t, uint64(1), r.Reloads())
}

func TestReloaderIgnoresDeletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fab.yml")
	f := newFactory(t)
	r := NewReloader(path, f, nil)

	require.NoError(t, r.Handle([]watcher.ChangeEvent{{Type: watcher.EventTypeDeleted, Path: path}}))
	assert.Equal(t, uint64(0), r.Reloads())
}
