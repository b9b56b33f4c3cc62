// Package notifications renders task events into recipient-addressed
// notifications and keeps the per-process inbox.
//
// The Registry maps each Kind to a title, priority, and message builder. The
// Dispatcher renders once per event, stores one Notification per recipient
// (newest first) while keeping the unread counter consistent, and hands every
// stored record to an Outbox. The Outbox delivers on a background goroutine
// through pluggable Sinks (ntfy, structured log), so a slow or failing channel
// never reaches the caller.
//
// When a Journal is configured every state change is persisted before the
// in-memory view is touched; Load rebuilds the view at startup.
package notifications
