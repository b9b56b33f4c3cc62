// Package logs reads the daemon log file for `printflow logs`.
//
// Read returns the last N lines or everything after a byte offset, keeping
// memory bounded by the requested line count. Follow polls for appended lines
// until its context is cancelled. Both accept a Match substring so callers can
// narrow output to a single task id.
package logs
