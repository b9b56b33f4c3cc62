// Package workflow advances print jobs through their production lifecycle.
//
// The Engine is the only component that changes a task's status. Each request
// is checked against the static role policy, recorded as an append-only
// status-change note, saved in a single repository write, and then fanned out
// to the affected teams through the notification dispatcher. Mutations on the
// same task are serialized; different tasks proceed in parallel.
//
// Notification routing lives in routing.go. Add a new lifecycle status by
// extending the task enums, the policy table and the routing switch together.
package workflow
