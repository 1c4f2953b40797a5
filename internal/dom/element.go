package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Element is the raw element behind a Selection. There is exactly one
// Element per node, so pointer equality means node equality.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node exposes the underlying html.Node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Selection wraps e in a single-element selection.
func (e *Element) Selection() *Selection {
	return &Selection{doc: e.doc, nodes: []*html.Node{e.node}}
}

// TagName returns the lower-case tag name.
func (e *Element) TagName() string {
	return e.node.Data
}

// ID returns the id attribute.
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, attr := range e.node.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) {
	for i, attr := range e.node.Attr {
		if attr.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Key == name
	})
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	class, _ := e.Attr("class")
	return strings.Fields(class)
}

// HasClass reports whether the class list contains className.
func (e *Element) HasClass(className string) bool {
	return slices.Contains(e.Classes(), className)
}

// AddClass appends className unless present.
func (e *Element) AddClass(className string) {
	classes := e.Classes()
	if slices.Contains(classes, className) {
		return
	}
	e.SetAttr("class", strings.Join(append(classes, className), " "))
}

// RemoveClass drops className from the class list.
func (e *Element) RemoveClass(className string) {
	classes := slices.DeleteFunc(e.Classes(), func(c string) bool { return c == className })
	if len(classes) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(classes, " "))
}

// ToggleClass flips className and reports whether it is now present.
func (e *Element) ToggleClass(className string) bool {
	if e.HasClass(className) {
		e.RemoveClass(className)
		return false
	}
	e.AddClass(className)
	return true
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var text strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(e.node)
	return text.String()
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(s string) {
	e.clear()
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// SetInnerHTML replaces all children with the parsed fragment.
func (e *Element) SetInnerHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return err
	}
	e.clear()
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return nil
}

// InnerHTML renders the children.
func (e *Element) InnerHTML() string {
	var result strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&result, c)
	}
	return result.String()
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() string {
	var result strings.Builder
	_ = html.Render(&result, e.node)
	return result.String()
}

// Parent returns the parent element, or nil at the top of the tree or of
// a detached container.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// Matches reports whether e matches selector.
func (e *Element) Matches(selector string) (bool, error) {
	m, err := e.doc.compile(selector)
	if err != nil {
		return false, err
	}
	return m.Match(e.node), nil
}

// Trigger dispatches an event with e as the target.
func (e *Element) Trigger(eventType string, args ...any) error {
	return e.doc.Dispatch(e, eventType, args...)
}

func (e *Element) clear() {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
}
