// Package controller builds UI controllers from registered blueprints.
//
// A blueprint is a set of default Options: free-form attributes, an element
// spec, a model slot, an initializer and an event map. Factory.Make turns
// defaults into a Constructor and, when named, registers it; Factory.Construct
// looks a blueprint up by name and builds a Controller from it.
//
// Construction runs these steps in order:
//
//  1. copy the blueprint defaults
//  2. copy the call-time overrides over them
//  3. resolve the element: a fresh container, a selector query, or an
//     existing selection
//  4. bind the model through the model subsystem, if one is configured
//  5. run the initializer
//  6. wire the event map; "click .btn" delegates clicks on .btn
//     descendants, "click" listens on the element itself
//
// Unknown blueprint names, unresolvable elements and initializer failures
// come back as *errors.FabError values. Handlers run with the controller as
// their first argument, and their errors are returned from dispatch.
package controller
