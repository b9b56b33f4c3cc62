// Package logging assembles structured slog loggers and formatting helpers used
// across PrintFlow.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so engine and transport code can tag log
// lines with task ids, actor roles and correlation ids. A no-op logger is
// available for tests and for wiring code that cannot fail.
package logging
