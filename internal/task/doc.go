// Package task defines the print job aggregate and the closed enumerations
// that describe it.
//
// Statuses, roles, teams, priorities, and note kinds are string-backed types
// with Parse helpers so every boundary (CLI flags, HTTP headers, database
// rows) converts free-form input exactly once. Code past the boundary works
// with the typed values and never compares raw strings.
//
// Task values are owned by the repository. The workflow engine reads a
// snapshot, mutates it through the helpers here (AppendNote, SetStatus), and
// writes it back; nothing else holds a long-lived copy.
package task
