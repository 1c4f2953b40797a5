package controller

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/conneroisu/fab/internal/dom"
)

// ParseEventKey splits an event-map key into the event type and the
// delegation selector. Everything after the first whitespace-separated
// token is the selector, so descendant selectors such as
// "click .list .item" keep working. ok is false for blank keys.
func ParseEventKey(key string) (eventType, selector string, ok bool) {
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return "", "", false
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

type binding struct {
	eventType string
	selector  string
	handler   EventHandler
}

// wireEvents attaches one listener per event-map entry to the controller's
// selection. Keys are wired in sorted order so listener order is stable.
// Every key is checked before the first listener is attached, so a bad
// key leaves the element untouched.
func (f *Factory) wireEvents(ctx context.Context, c *Controller) error {
	bindings := make([]binding, 0, len(c.Events))
	for _, key := range slices.Sorted(maps.Keys(c.Events)) {
		handler := c.Events[key]
		if handler == nil {
			continue
		}

		eventType, selector, ok := ParseEventKey(key)
		if !ok {
			f.logger.Debug(ctx, "Skipping blank event key", "blueprint", c.Name)
			continue
		}
		if selector != "" {
			if err := c.Selection.Document().ValidateSelector(selector); err != nil {
				return err
			}
		}
		bindings = append(bindings, binding{eventType: eventType, selector: selector, handler: handler})
	}

	for _, b := range bindings {
		listener := func(ev *dom.Event) error {
			return b.handler(c, ev)
		}

		if b.selector == "" {
			c.Selection.On(b.eventType, listener)
			continue
		}
		if err := c.Selection.OnDelegated(b.eventType, b.selector, listener); err != nil {
			return err
		}
	}
	return nil
}
