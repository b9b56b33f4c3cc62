// Package daemon hosts the long-running PrintFlow process.
//
// OpenRuntime wires configuration, the SQLite store, the team directory, the
// notification dispatcher and outbox, and the workflow engine. The Daemon
// serves that runtime over a chi HTTP API and holds the shared flock lock so
// only one process writes to the store at a time. CLI commands reuse Lock and
// OpenRuntime when no daemon is running.
//
// Keep task semantics in the workflow package; handlers here only decode
// requests, resolve the caller from identity headers, and map error kinds to
// status codes.
package daemon
