package dom

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	fabErrors "github.com/conneroisu/fab/internal/errors"
)

// Handler receives a dispatched event. A returned error stops dispatch
// and is handed back to whoever triggered the event.
type Handler func(ev *Event) error

type listener struct {
	eventType string
	selector  string
	matcher   cascadia.Matcher // nil for direct listeners
	handler   Handler
}

// Event describes one dispatch.
type Event struct {
	Type string
	// Target is the element the event was triggered on.
	Target *Element
	// CurrentTarget is the element the handler runs for: the listening
	// element for direct listeners, the matching descendant for delegated ones.
	CurrentTarget *Element
	// DelegateTarget is the element the listener was attached to.
	DelegateTarget *Element
	Args           []any

	stopped bool
}

// StopPropagation prevents the event from bubbling further up.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// IsPropagationStopped reports whether StopPropagation was called.
func (e *Event) IsPropagationStopped() bool {
	return e.stopped
}

// Dispatch fires eventType at target and bubbles it towards the root.
// At each element on the way delegated listeners run first, once per
// matching element between the target and the listener, deepest first;
// direct listeners run after them. StopPropagation takes effect once the
// handlers for the current element have run.
func (d *Document) Dispatch(target *Element, eventType string, args ...any) error {
	if target == nil {
		return nil
	}

	var path []*html.Node
	for n := target.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			path = append(path, n)
		}
	}

	ev := &Event{Type: eventType, Target: target, Args: args}

	for i, node := range path {
		delegated, direct := d.listenersFor(node, eventType)
		if len(delegated) == 0 && len(direct) == 0 {
			continue
		}
		ev.DelegateTarget = d.wrap(node)

		for _, cand := range path[:i] {
			for _, l := range delegated {
				if !l.matcher.Match(cand) {
					continue
				}
				ev.CurrentTarget = d.wrap(cand)
				if err := l.handler(ev); err != nil {
					return fabErrors.ErrCallbackFailed(eventType, err).
						WithContext("selector", l.selector)
				}
			}
			// handlers for the same matched element still all run
			if ev.stopped {
				return nil
			}
		}

		for _, l := range direct {
			ev.CurrentTarget = ev.DelegateTarget
			if err := l.handler(ev); err != nil {
				return fabErrors.ErrCallbackFailed(eventType, err)
			}
		}

		if ev.stopped {
			break
		}
	}

	return nil
}
