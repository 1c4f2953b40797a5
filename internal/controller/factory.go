package controller

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/conneroisu/fab/internal/dom"
	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/logging"
	"github.com/conneroisu/fab/internal/model"
	"github.com/conneroisu/fab/internal/registry"
)

// Factory registers blueprints and builds controllers from them.
type Factory struct {
	blueprints *registry.Registry[*Constructor]
	doc        *dom.Document
	models     model.Subsystem
	tracker    *Tracker
	logger     logging.Logger
	seq        atomic.Uint64
}

// Option configures a Factory.
type Option func(*Factory)

// WithRegistry shares a blueprint registry between factories.
func WithRegistry(r *registry.Registry[*Constructor]) Option {
	return func(f *Factory) {
		f.blueprints = r
	}
}

// WithModels enables model binding. Without it model data is kept as given.
func WithModels(s model.Subsystem) Option {
	return func(f *Factory) {
		f.models = s
	}
}

// WithTracker records every controller built by Construct.
func WithTracker(t *Tracker) Option {
	return func(f *Factory) {
		f.tracker = t
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// NewFactory creates a factory resolving elements against doc.
func NewFactory(doc *dom.Document, opts ...Option) *Factory {
	f := &Factory{doc: doc}
	for _, opt := range opts {
		opt(f)
	}
	if f.blueprints == nil {
		f.blueprints = registry.New[*Constructor]()
	}
	if f.doc == nil {
		f.doc = dom.NewDocument()
	}
	if f.logger == nil {
		f.logger = logging.NewDiscardLogger()
	}
	f.logger = f.logger.WithComponent("factory")
	return f
}

// Document returns the document elements are resolved against.
func (f *Factory) Document() *dom.Document {
	return f.doc
}

// Registry returns the blueprint registry.
func (f *Factory) Registry() *registry.Registry[*Constructor] {
	return f.blueprints
}

// Tracker returns the tracker, or nil when tracking is off.
func (f *Factory) Tracker() *Tracker {
	return f.tracker
}

// Make creates a constructor from defaults. A non-empty name also
// registers it, replacing any earlier blueprint of that name; an empty
// name yields an anonymous constructor. nil defaults means no defaults.
func (f *Factory) Make(name string, defaults *Options) *Constructor {
	ctor := &Constructor{name: name, factory: f}
	if defaults != nil {
		ctor.defaults = defaults.clone()
	}

	if name != "" {
		f.blueprints.Register(name, ctor)
		f.logger.Debug(context.Background(), "Blueprint registered",
			"blueprint", name,
			"attrs", len(ctor.defaults.Attrs),
			"events", len(ctor.defaults.Events))
	}
	return ctor
}

// MakeFrom is Make for loosely typed arguments; see Normalize. The only
// error is an el default that is not absent, a selector or a selection.
func (f *Factory) MakeFrom(args ...any) (*Constructor, error) {
	name, defaults, err := Normalize(args...)
	if err != nil {
		return nil, err
	}
	return f.Make(name, &defaults), nil
}

// Construct builds a controller from the blueprint registered as name
// and tracks it. opts overrides the blueprint defaults and args go to the
// initializer. An unknown name yields ERR_BLUEPRINT_NOT_FOUND and
// nothing is tracked.
func (f *Factory) Construct(name string, opts *Options, args ...any) (*Controller, error) {
	ctor, ok := f.blueprints.Get(name)
	if !ok || ctor == nil {
		f.logger.Debug(context.Background(), "Unknown blueprint", "blueprint", name)
		return nil, fabErrors.ErrBlueprintNotFound(name)
	}

	c, err := ctor.New(opts, args...)
	if err != nil {
		return nil, err
	}

	if f.tracker != nil {
		f.tracker.Track(c)
	}
	return c, nil
}

// ConstructFrom is Construct with the options given as a dynamic map.
func (f *Factory) ConstructFrom(name string, attrs map[string]any, args ...any) (*Controller, error) {
	opts, err := OptionsFromMap(attrs)
	if err != nil {
		return nil, fabErrors.Wrap(err, fabErrors.ErrorTypeValidation, fabErrors.ErrCodeValidationFailed, "invalid options").
			WithBlueprint(name)
	}
	return f.Construct(name, &opts, args...)
}

// Constructor builds controllers for one blueprint.
type Constructor struct {
	name     string
	defaults Options
	factory  *Factory
}

// Name returns the registered name, empty for anonymous constructors.
func (c *Constructor) Name() string {
	return c.name
}

// Defaults returns a copy of the blueprint defaults.
func (c *Constructor) Defaults() Options {
	return c.defaults.clone()
}

// EventKeys lists the event-map keys of the defaults, sorted.
func (c *Constructor) EventKeys() []string {
	return slices.Sorted(maps.Keys(c.defaults.Events))
}

// New builds a controller without tracking it.
func (c *Constructor) New(opts *Options, args ...any) (*Controller, error) {
	f := c.factory
	ctx := context.Background()
	op := logging.StartOperation(f.logger.With("blueprint", c.name), "construct")

	ctrl := &Controller{
		Name:  c.name,
		Attrs: make(Attrs, len(c.defaults.Attrs)),
		id:    f.nextID(c.name),
	}
	ctrl.advance(StateCreated)

	ctrl.merge(c.defaults)
	ctrl.advance(StateDefaultsMerged)

	if opts != nil {
		ctrl.merge(*opts)
	}
	ctrl.advance(StateOverridesMerged)

	if err := f.resolveElement(ctrl); err != nil {
		err = withBlueprint(err, c.name)
		op.EndWithError(ctx, err)
		return nil, err
	}
	ctrl.advance(StateElementResolved)
	f.logger.Debug(ctx, "Element resolved", "blueprint", c.name, "element", describe(ctrl.element))

	if f.bindModel(ctx, ctrl) {
		ctrl.advance(StateModelBound)
	}

	if ctrl.Init != nil {
		if err := ctrl.Init(ctrl, args...); err != nil {
			wrapped := fabErrors.ErrInitFailed(c.name, err)
			op.EndWithError(ctx, wrapped)
			return nil, wrapped
		}
		ctrl.advance(StateInitialized)
	}

	if ctrl.Events != nil {
		if err := f.wireEvents(ctx, ctrl); err != nil {
			err = withBlueprint(err, c.name)
			op.EndWithError(ctx, err)
			return nil, err
		}
		ctrl.advance(StateEventsWired)
	}

	ctrl.advance(StateReady)
	op.End(ctx)
	return ctrl, nil
}

// NewFrom is New with the options given as a dynamic map.
func (c *Constructor) NewFrom(attrs map[string]any, args ...any) (*Controller, error) {
	opts, err := OptionsFromMap(attrs)
	if err != nil {
		return nil, withBlueprint(err, c.name)
	}
	return c.New(&opts, args...)
}

func (f *Factory) nextID(name string) string {
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("%s-%d", name, f.seq.Add(1))
}

func (f *Factory) resolveElement(c *Controller) error {
	switch spec := c.element.(type) {
	case nil, Absent:
		c.Selection = f.doc.CreateContainer()
	case Selector:
		sel, err := f.doc.Query(string(spec))
		if err != nil {
			return err
		}
		if sel.Len() == 0 {
			return fabErrors.ErrElementNotFound(string(spec))
		}
		c.Selection = sel
	case Handle:
		if spec.Selection.Len() == 0 {
			return fabErrors.ErrElementNotFound("<empty selection>")
		}
		c.Selection = spec.Selection
	default:
		return fabErrors.ErrAmbiguousElement(spec)
	}

	c.Element = c.Selection.Get(0)
	return nil
}

// bindModel reports whether the model subsystem attached a model.
func (f *Factory) bindModel(ctx context.Context, c *Controller) bool {
	switch spec := c.model.(type) {
	case nil, NoModel:
		c.Model = nil
		return false

	case ModelRef:
		c.Model = spec.Model
		if f.models == nil || spec.Model == nil {
			return false
		}
		if !f.models.ValidateGuid(spec.Model.Guid()) {
			c.Model = f.models.Make(spec.Model.Data()).New()
			f.logger.Debug(ctx, "Rebound model with unrecognised guid",
				"blueprint", c.Name,
				"class", c.Model.Class().Name())
		}
		return true

	case ModelData:
		if f.models == nil {
			c.Data = maps.Clone(spec)
			return false
		}
		if guid, ok := spec[model.GuidKey].(string); ok && f.models.ValidateGuid(guid) {
			// already model data, leave it alone
			c.Data = maps.Clone(spec)
			return false
		}
		c.Model = f.models.Make(spec).New()
		f.logger.Debug(ctx, "Generated model class",
			"blueprint", c.Name,
			"class", c.Model.Class().Name())
		return true
	}

	return false
}

func withBlueprint(err error, name string) error {
	var fe *fabErrors.FabError
	if errors.As(err, &fe) && fe.Blueprint == "" {
		fe.Blueprint = name
	}
	return err
}

// describe is used in log lines.
func describe(spec ElementSpec) string {
	switch s := spec.(type) {
	case nil, Absent:
		return "container"
	case Selector:
		return "selector " + strings.TrimSpace(string(s))
	case Handle:
		return fmt.Sprintf("selection of %d", s.Selection.Len())
	default:
		return "unknown"
	}
}
