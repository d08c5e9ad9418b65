// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type, detect its language, and derive the
// content-hash document ID used for change detection.
//
// Normalisers are registered with the Registry at startup; the registry
// dispatches by MIME type, preferring the highest-priority match.
package normalisers
