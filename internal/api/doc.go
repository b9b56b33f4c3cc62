// Package api defines wire-format types and services shared by the HTTP API
// and the CLI. It translates internal task, note and notification models into
// transport-friendly DTOs so consumers never depend on internal types.
//
// # Key Types
//
// Task: transport representation of a print job with its notes, attachments
// and specifications.
//
// StatusChangeResponse: the updated task, the appended note, and the
// notification effects that ran after commit.
//
// DaemonStatus: daemon running state, task counts by status and unread
// notification count.
//
// # Services
//
// TaskService wraps the workflow engine and parses caller input (status and
// role strings, due dates). NotificationService wraps the dispatcher inbox.
// Both are used in-process by the CLI and behind the daemon's HTTP handlers.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Enums are exposed as their lowercase string
// values alongside human-readable labels. Timestamps use RFC3339 with
// milliseconds.
package api
