// Package dom is the element layer controllers are bound to.
//
// A Document holds an HTML tree parsed with golang.org/x/net/html. Elements
// are selected with CSS selectors into a Selection, the wrapped form of an
// element, and the raw Element is obtained with Selection.Get. Listeners are
// attached either directly (Selection.On) or delegated to descendants
// matching a selector (Selection.OnDelegated); Document.Dispatch bubbles an
// event from its target towards the root and runs the listeners on the way.
//
// Execution is single-threaded: tree mutation is not synchronized, and only
// the listener table and selector cache are guarded.
package dom
