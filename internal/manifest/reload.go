package manifest

import (
	"context"
	"sync/atomic"

	"github.com/conneroisu/fab/internal/controller"
	"github.com/conneroisu/fab/internal/logging"
	"github.com/conneroisu/fab/internal/watcher"
)

// Reloader re-registers a manifest file whenever it changes on disk. A
// manifest that fails to load leaves the previous registrations in place.
type Reloader struct {
	path    string
	factory *controller.Factory
	logger  logging.Logger
	reloads atomic.Uint64
}

// NewReloader creates a reloader for the manifest at path.
func NewReloader(path string, f *controller.Factory, logger logging.Logger) *Reloader {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Reloader{
		path:    path,
		factory: f,
		logger:  logger.WithComponent("reload"),
	}
}

// Handle is a watcher.ChangeHandler.
func (r *Reloader) Handle(events []watcher.ChangeEvent) error {
	ctx := context.Background()

	for _, ev := range events {
		if ev.Type == watcher.EventTypeDeleted {
			r.logger.Info(ctx, "Manifest removed, keeping registered blueprints", "path", ev.Path)
			return nil
		}
	}

	m, err := Load(r.path)
	if err != nil {
		return err
	}
	if _, err := m.Register(r.factory, r.logger); err != nil {
		return err
	}

	r.reloads.Add(1)
	r.logger.Info(ctx, "Manifest reloaded", "path", r.path, "blueprints", len(m.Blueprints))
	return nil
}

// Reloads returns how many reloads succeeded.
func (r *Reloader) Reloads() uint64 {
	return r.reloads.Load()
}
