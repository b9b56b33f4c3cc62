// Package store persists tasks, their audit notes, and the notification
// journal in SQLite.
//
// Tasks are upserted as a whole; notes are insert-only and ordered by an
// autoincrement sequence so the audit trail keeps acceptance order across
// restarts. Specifications and attachments are stored as JSON columns since
// nothing queries into them.
//
// Schema changes bump schemaVersion in schema.go; an existing database with a
// different version is rejected rather than migrated.
package store
