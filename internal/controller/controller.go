package controller

import (
	"fmt"
	"maps"

	"github.com/conneroisu/fab/internal/dom"
	"github.com/conneroisu/fab/internal/model"
)

// State is a construction stage.
type State int

const (
	StateCreated State = iota
	StateDefaultsMerged
	StateOverridesMerged
	StateElementResolved
	StateModelBound
	StateInitialized
	StateEventsWired
	StateReady
)

// String returns the string representation of the State
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDefaultsMerged:
		return "defaults-merged"
	case StateOverridesMerged:
		return "overrides-merged"
	case StateElementResolved:
		return "element-resolved"
	case StateModelBound:
		return "model-bound"
	case StateInitialized:
		return "initialized"
	case StateEventsWired:
		return "events-wired"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Controller is a live instance of a blueprint.
type Controller struct {
	// Name is the blueprint name, empty for anonymous blueprints.
	Name string
	// Attrs is the union of blueprint defaults and call-time overrides.
	Attrs Attrs

	// Element is the raw element and Selection its wrapped form;
	// Selection.Get(0) == Element once construction succeeded.
	Element   *dom.Element
	Selection *dom.Selection

	// Model is the bound model, if any. Data holds model data verbatim
	// when no model subsystem was available to turn it into a model.
	Model *model.Model
	Data  map[string]any

	Init   InitFunc
	Events EventMap

	id      string
	element ElementSpec
	model   ModelSpec
	state   State
	reached uint16
}

// ID identifies the controller within its factory.
func (c *Controller) ID() string {
	return c.id
}

// State returns the last construction stage reached.
func (c *Controller) State() State {
	return c.state
}

// Reached reports whether construction passed through s. Optional stages
// are skipped when their attribute is absent.
func (c *Controller) Reached(s State) bool {
	return c.reached&(1<<uint(s)) != 0
}

// ElementSpec returns the element spec the controller was resolved from.
func (c *Controller) ElementSpec() ElementSpec {
	return c.element
}

// Get reads an attribute.
func (c *Controller) Get(key string) (any, bool) {
	v, ok := c.Attrs[key]
	return v, ok
}

// Set writes an attribute.
func (c *Controller) Set(key string, value any) {
	if c.Attrs == nil {
		c.Attrs = make(Attrs)
	}
	c.Attrs[key] = value
}

// String reads an attribute formatted with %v, or "" when unset.
func (c *Controller) String(key string) string {
	v, ok := c.Attrs[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Trigger dispatches an event at the first element matching selector
// inside the controller's element, or at the element itself when
// selector is empty.
func (c *Controller) Trigger(eventType, selector string, args ...any) error {
	target := c.Element
	if selector != "" {
		found, err := c.Selection.Find(selector)
		if err != nil {
			return err
		}
		if found.Len() == 0 {
			return nil
		}
		target = found.Get(0)
	}
	return target.Trigger(eventType, args...)
}

func (c *Controller) advance(s State) {
	c.state = s
	c.reached |= 1 << uint(s)
}

// merge copies every set field of opts over the controller.
func (c *Controller) merge(opts Options) {
	for k, v := range opts.Attrs {
		c.Attrs[k] = v
	}
	if opts.Element != nil {
		c.element = opts.Element
	}
	if opts.Model != nil {
		c.model = opts.Model
	}
	if opts.Init != nil {
		c.Init = opts.Init
	}
	if opts.Events != nil {
		c.Events = maps.Clone(opts.Events)
	}
}
