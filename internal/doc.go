// Package internal contains the packages behind the fab CLI.
//
// # Package Organization
//
//   - registry: generic name to value store with change notifications
//   - controller: blueprints, the controller factory and the instance tracker
//   - dom: HTML page model with CSS selector queries and delegated events
//   - model: model classes and instances bound to controllers
//   - manifest: YAML blueprint declarations and their actions
//   - watcher: debounced file watching used to reload manifests
//   - server: websocket bridge to a factory
//   - config: viper-backed settings
//   - errors: typed errors with codes and context
//   - logging: slog-backed structured logging
//   - version: build information
//
// # Inter-Package Communication
//
//   - The factory registers constructors in a registry and builds
//     controllers against a dom document, binding models from the model store
//   - The manifest package turns declarations into factory registrations
//   - The watcher feeds manifest changes back into the factory
//   - The server subscribes to registry events and forwards them to clients
//
// Construction and event dispatch run to completion on the calling
// goroutine. The registry and tracker are safe for concurrent use; the
// server serializes everything else.
package internal
