// Package cmd implements the fab command-line interface.
//
// # Available Commands
//
//   - init: write a starter .fab.yml and blueprint manifest
//   - list: list the blueprints declared in the manifest
//   - validate: check a manifest without registering it
//   - construct: build one controller and print its element
//   - trigger: build a controller, dispatch an event at it and print the result
//   - serve: expose the factory over a websocket, reloading the manifest on change
//   - version: print build information
//
// # Examples
//
//	fab init
//	fab list -o yaml
//	fab construct counter --attrs '{"label":"Clicks"}'
//	fab trigger counter click --target .inc --times 3
//	fab serve --port 3000
//
// Configuration is read from .fab.yml, the file named by FAB_CONFIG_FILE
// or --config, and FAB_<SECTION>_<KEY> environment variables.
package cmd
