// Package app wires the application together: logger, operator registry,
// flow loading, graph construction and execution.
package app
