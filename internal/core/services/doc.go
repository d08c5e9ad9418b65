// Package services implements the application's use cases.
//
// Services orchestrate domain logic using the driven ports (stores, the
// vector index, AI capabilities, connectors) and expose the driving ports
// consumed by the CLI, TUI and HTTP adapters. They contain no
// infrastructure code: everything concrete is injected at construction.
package services
