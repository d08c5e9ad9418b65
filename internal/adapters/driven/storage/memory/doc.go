// Package memory provides in-memory implementations of the storage ports.
// Used in tests and as a fallback when no database path is configured.
package memory
