package manifest

import (
	"context"
	"maps"

	"github.com/conneroisu/fab/internal/controller"
	"github.com/conneroisu/fab/internal/dom"
	"github.com/conneroisu/fab/internal/logging"
)

// Register makes one named constructor per blueprint. Blueprints already
// registered under the same name are replaced.
func (m *Manifest) Register(f *controller.Factory, logger logging.Logger) ([]*controller.Constructor, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	logger = logger.WithComponent("manifest")

	ctors := make([]*controller.Constructor, 0, len(m.Blueprints))
	for _, bp := range m.Blueprints {
		opts, err := bp.Options(logger)
		if err != nil {
			return ctors, err
		}
		ctors = append(ctors, f.Make(bp.Name, &opts))
	}

	logger.Info(context.Background(), "Manifest registered",
		"path", m.path,
		"blueprints", len(ctors))
	return ctors, nil
}

// Options turns the blueprint into controller defaults.
func (bp Blueprint) Options(logger logging.Logger) (controller.Options, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	opts := controller.Options{
		Attrs: controller.Attrs(maps.Clone(bp.Attrs)),
	}
	if bp.El != "" {
		opts.Element = controller.Selector(bp.El)
	}
	if bp.Model != nil {
		opts.Model = controller.ModelData(maps.Clone(bp.Model))
	}

	if len(bp.Init) > 0 {
		actions := make([]Action, 0, len(bp.Init))
		for _, raw := range bp.Init {
			a, err := ParseAction(raw)
			if err != nil {
				return controller.Options{}, err
			}
			actions = append(actions, a)
		}
		opts.Init = func(c *controller.Controller, _ ...any) error {
			ctx := context.Background()
			for _, a := range actions {
				if err := a.Apply(ctx, c, c.Element, logger); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if len(bp.Events) > 0 {
		opts.Events = make(controller.EventMap, len(bp.Events))
		for key, raw := range bp.Events {
			a, err := ParseAction(raw)
			if err != nil {
				return controller.Options{}, err
			}
			opts.Events[key] = func(c *controller.Controller, ev *dom.Event) error {
				return a.Apply(context.Background(), c, ev.CurrentTarget, logger)
			}
		}
	}

	return opts, nil
}
