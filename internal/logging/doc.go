// Package logging assembles the structured slog loggers used across
// linkmute.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers plus standardized field keys so
// every component emits log lines with the same shape. The console handler
// writes each record as a single `[timestamp] message key=value` line and
// flushes it immediately.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
