package dom

import (
	"golang.org/x/net/html"
)

// Selection is an ordered set of elements from one document, the wrapped
// form of an Element.
type Selection struct {
	doc   *Document
	nodes []*html.Node
}

// Document returns the owning document.
func (s *Selection) Document() *Document {
	return s.doc
}

// Len returns the number of elements.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// Get returns the i-th element, or nil when out of range.
func (s *Selection) Get(i int) *Element {
	if s == nil || i < 0 || i >= len(s.nodes) {
		return nil
	}
	return s.doc.wrap(s.nodes[i])
}

// Elements returns every element in order.
func (s *Selection) Elements() []*Element {
	out := make([]*Element, 0, s.Len())
	for i := range s.Len() {
		out = append(out, s.Get(i))
	}
	return out
}

// Find returns the descendants of every element that match selector.
func (s *Selection) Find(selector string) (*Selection, error) {
	m, err := s.doc.compile(selector)
	if err != nil {
		return nil, err
	}

	seen := make(map[*html.Node]bool)
	var nodes []*html.Node
	for _, n := range s.nodes {
		for _, match := range collect(n, m, false) {
			if !seen[match] {
				seen[match] = true
				nodes = append(nodes, match)
			}
		}
	}
	return &Selection{doc: s.doc, nodes: nodes}, nil
}

// On attaches a direct listener for eventType to every element.
func (s *Selection) On(eventType string, h Handler) *Selection {
	for _, n := range s.nodes {
		s.doc.addListener(n, &listener{eventType: eventType, handler: h})
	}
	return s
}

// OnDelegated attaches a listener to every element that fires only for
// events whose path from the target contains a descendant matching selector.
func (s *Selection) OnDelegated(eventType, selector string, h Handler) error {
	m, err := s.doc.compile(selector)
	if err != nil {
		return err
	}
	for _, n := range s.nodes {
		s.doc.addListener(n, &listener{
			eventType: eventType,
			selector:  selector,
			matcher:   m,
			handler:   h,
		})
	}
	return nil
}

// Trigger dispatches eventType with each element in turn as the target.
func (s *Selection) Trigger(eventType string, args ...any) error {
	for i := range s.Len() {
		if err := s.doc.Dispatch(s.Get(i), eventType, args...); err != nil {
			return err
		}
	}
	return nil
}

// HTML renders the first element.
func (s *Selection) HTML() string {
	if el := s.Get(0); el != nil {
		return el.OuterHTML()
	}
	return ""
}
