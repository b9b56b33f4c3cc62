// Command printflow is the PrintFlow CLI.
//
// Task and notification commands act as the identity given by --as-id,
// --as-name and --as-role, falling back to the [actor] config section. When a
// daemon is running the commands go through its HTTP API; otherwise they open
// the store in-process and hold the single-writer lock while mutating.
//
// Output is a go-pretty table by default and JSON with --json.
package main
