// Package driving defines the interfaces through which the outside world
// drives the application core.
//
// These are the use-case interfaces implemented by core services and
// consumed by the driving adapters (CLI, TUI, HTTP API). Adapters depend
// on these interfaces, never on the service structs directly.
package driving
