package dom

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	fabErrors "github.com/conneroisu/fab/internal/errors"
)

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document owns an HTML tree plus the listeners attached to its nodes.
// Nodes created with CreateContainer belong to the document even though
// they are not attached to the tree.
type Document struct {
	root      *html.Node
	elements  map[*html.Node]*Element
	listeners map[*html.Node][]*listener
	matchers  map[string]cascadia.SelectorGroup
	mu        sync.Mutex
}

// NewDocument returns a document with an empty body.
func NewDocument() *Document {
	doc, err := ParseDocument(strings.NewReader(emptyDocument))
	if err != nil {
		// the literal above always parses
		panic(err)
	}
	return doc
}

// ParseDocument parses r as an HTML document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fabErrors.WrapIO(err, fabErrors.ErrCodeInternalError, "failed to parse HTML")
	}

	return &Document{
		root:      root,
		elements:  make(map[*html.Node]*Element),
		listeners: make(map[*html.Node][]*listener),
		matchers:  make(map[string]cascadia.SelectorGroup),
	}, nil
}

// LoadDocument parses the HTML file at path.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fabErrors.ErrFileNotFound(path, err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return nil, fabErrors.WrapIO(err, fabErrors.ErrCodeInternalError, "failed to load document").WithFile(path)
	}
	return doc, nil
}

// CreateContainer creates a new, detached, empty <div>.
func (d *Document) CreateContainer() *Selection {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Div.String(),
		DataAtom: atom.Div,
	}
	return &Selection{doc: d, nodes: []*html.Node{node}}
}

// Query returns every element in the tree matching selector, in document order.
func (d *Document) Query(selector string) (*Selection, error) {
	m, err := d.compile(selector)
	if err != nil {
		return nil, err
	}

	return &Selection{doc: d, nodes: collect(d.root, m, false)}, nil
}

// Body returns the <body> element, or nil for documents without one.
func (d *Document) Body() *Element {
	sel, err := d.Query("body")
	if err != nil || sel.Len() == 0 {
		return nil
	}
	return sel.Get(0)
}

// Render writes the whole tree as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// HTML returns the rendered document.
func (d *Document) HTML() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

// ListenerCount reports how many listeners are attached to el.
func (d *Document) ListenerCount(el *Element) int {
	if el == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[el.node])
}

// wrap returns the canonical Element for node.
func (d *Document) wrap(node *html.Node) *Element {
	if node == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.elements[node]; ok {
		return el
	}
	el := &Element{doc: d, node: node}
	d.elements[node] = el
	return el
}

// ValidateSelector reports ERR_INVALID_SELECTOR for selectors that do
// not parse. Valid selectors are cached for later queries.
func (d *Document) ValidateSelector(selector string) error {
	_, err := d.compile(selector)
	return err
}

func (d *Document) compile(selector string) (cascadia.SelectorGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if m, ok := d.matchers[selector]; ok {
		return m, nil
	}

	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fabErrors.ErrInvalidSelector(selector, err)
	}
	d.matchers[selector] = m
	return m, nil
}

func (d *Document) addListener(node *html.Node, l *listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[node] = append(d.listeners[node], l)
}

// listenersFor snapshots the listeners for eventType so handlers may
// attach further listeners while an event is being dispatched.
func (d *Document) listenersFor(node *html.Node, eventType string) (delegated, direct []*listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, l := range d.listeners[node] {
		if l.eventType != eventType {
			continue
		}
		if l.matcher != nil {
			delegated = append(delegated, l)
		} else {
			direct = append(direct, l)
		}
	}
	return delegated, direct
}

// collect walks the subtree under n in document order. n itself is only
// considered when includeSelf is set.
func collect(n *html.Node, m cascadia.Matcher, includeSelf bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && m.Match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}

	if includeSelf && n.Type == html.ElementNode && m.Match(n) {
		out = append(out, n)
	}
	walk(n)
	return out
}
