package controller

import (
	"maps"

	"github.com/conneroisu/fab/internal/dom"
	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/model"
)

// Reserved keys lifted out of dynamic option maps into typed fields.
const (
	KeyElement = "el"
	KeyModel   = "model"
	KeyInit    = "init"
	KeyEvents  = "events"
)

// Attrs holds free-form controller attributes.
type Attrs map[string]any

// InitFunc runs once after the element and model are in place. args are
// the construction arguments that follow the options.
type InitFunc func(c *Controller, args ...any) error

// EventHandler is an event-map callback; c is the controller the map belongs to.
type EventHandler func(c *Controller, ev *dom.Event) error

// EventMap maps "<event-type> [<selector>]" to a handler.
type EventMap map[string]EventHandler

// Options is both a blueprint's defaults and the per-call overrides.
// Unset fields (nil) leave the other side's value in place.
type Options struct {
	Element ElementSpec
	Model   ModelSpec
	Init    InitFunc
	Events  EventMap
	Attrs   Attrs
}

// ElementSpec says how a controller gets its element. It is one of
// Absent, Selector or Handle.
type ElementSpec interface {
	elementSpec()
}

// Absent asks for a fresh, empty container element.
type Absent struct{}

// Selector resolves the element through a document query.
type Selector string

// Handle reuses an existing selection; its first element becomes the raw element.
type Handle struct {
	Selection *dom.Selection
}

func (Absent) elementSpec()   {}
func (Selector) elementSpec() {}
func (Handle) elementSpec()   {}

// ModelSpec is the model slot: raw ModelData, an existing model in
// ModelRef, or NoModel to clear a default.
type ModelSpec interface {
	modelSpec()
}

// ModelData is plain data that still needs a model class.
type ModelData map[string]any

// ModelRef points at an existing model instance.
type ModelRef struct {
	Model *model.Model
}

// NoModel explicitly leaves the controller without a model.
type NoModel struct{}

func (ModelData) modelSpec() {}
func (ModelRef) modelSpec()  {}
func (NoModel) modelSpec()   {}

// ElementSpecFrom converts a dynamically typed el value. Anything other
// than nil, a string, a selection or an ElementSpec is rejected.
func ElementSpecFrom(v any) (ElementSpec, error) {
	switch t := v.(type) {
	case nil:
		return Absent{}, nil
	case ElementSpec:
		return t, nil
	case string:
		if t == "" {
			return Absent{}, nil
		}
		return Selector(t), nil
	case *dom.Selection:
		if t == nil {
			return Absent{}, nil
		}
		return Handle{Selection: t}, nil
	default:
		return nil, fabErrors.ErrAmbiguousElement(v)
	}
}

// ModelSpecFrom converts a dynamically typed model value. Values that are
// neither data nor a model become NoModel, so a present model key always
// overrides the default.
func ModelSpecFrom(v any) ModelSpec {
	switch t := v.(type) {
	case ModelSpec:
		return t
	case map[string]any:
		return ModelData(t)
	case *model.Model:
		if t == nil {
			return NoModel{}
		}
		return ModelRef{Model: t}
	default:
		return NoModel{}
	}
}

// OptionsFromMap splits a dynamic attribute map into typed fields and
// plain attributes. Non-callable init and non-map events stay attributes;
// non-callable event-map entries are dropped.
func OptionsFromMap(m map[string]any) (Options, error) {
	var opts Options
	if len(m) == 0 {
		return opts, nil
	}

	for key, value := range m {
		switch key {
		case KeyElement:
			spec, err := ElementSpecFrom(value)
			if err != nil {
				return Options{}, err
			}
			opts.Element = spec
		case KeyModel:
			opts.Model = ModelSpecFrom(value)
		case KeyInit:
			if fn := initFuncFrom(value); fn != nil {
				opts.Init = fn
			} else {
				opts.setAttr(key, value)
			}
		case KeyEvents:
			if events, ok := eventMapFrom(value); ok {
				opts.Events = events
			} else {
				opts.setAttr(key, value)
			}
		default:
			opts.setAttr(key, value)
		}
	}
	return opts, nil
}

// Normalize interprets loosely typed registration arguments:
//
//	(name string, defaults)  named blueprint
//	(defaults)               anonymous blueprint
//	()                       anonymous, empty defaults
//	(anything else)          anonymous, empty defaults
//
// Defaults may be Options, *Options, Attrs or map[string]any; other
// defaults values count as empty.
func Normalize(args ...any) (string, Options, error) {
	if len(args) == 0 {
		return "", Options{}, nil
	}

	switch first := args[0].(type) {
	case string:
		if len(args) < 2 {
			return first, Options{}, nil
		}
		defaults, err := optionsFrom(args[1])
		return first, defaults, err
	default:
		defaults, err := optionsFrom(first)
		return "", defaults, err
	}
}

func optionsFrom(v any) (Options, error) {
	switch t := v.(type) {
	case Options:
		return t.clone(), nil
	case *Options:
		if t == nil {
			return Options{}, nil
		}
		return t.clone(), nil
	case Attrs:
		return OptionsFromMap(t)
	case map[string]any:
		return OptionsFromMap(t)
	default:
		return Options{}, nil
	}
}

func initFuncFrom(v any) InitFunc {
	switch fn := v.(type) {
	case InitFunc:
		return fn
	case func(*Controller, ...any) error:
		return fn
	default:
		return nil
	}
}

func eventMapFrom(v any) (EventMap, bool) {
	switch t := v.(type) {
	case EventMap:
		return t, true
	case map[string]EventHandler:
		return t, true
	case map[string]any:
		events := make(EventMap, len(t))
		for key, value := range t {
			switch fn := value.(type) {
			case EventHandler:
				events[key] = fn
			case func(*Controller, *dom.Event) error:
				events[key] = fn
			}
		}
		return events, true
	default:
		return nil, false
	}
}

func (o *Options) setAttr(key string, value any) {
	if o.Attrs == nil {
		o.Attrs = make(Attrs)
	}
	o.Attrs[key] = value
}

// clone copies the attribute and event maps; values are shared.
func (o Options) clone() Options {
	out := o
	if o.Attrs != nil {
		out.Attrs = maps.Clone(o.Attrs)
	}
	if o.Events != nil {
		out.Events = maps.Clone(o.Events)
	}
	return out
}
