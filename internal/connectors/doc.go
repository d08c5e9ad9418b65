// Package connectors provides implementations of the Connector interface
// for document sources. Each connector knows how to fetch documents from a
// specific source type; filesystem directories are the only built-in type.
//
// The Factory maps stored source configurations to connector instances.
package connectors
