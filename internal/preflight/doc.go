// Package preflight provides readiness checks for the filesystem paths and
// external services PrintFlow depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll before it takes the lock and refuses to start
//     when a required check fails.
//   - The CLI "printflow status" command uses individual check functions
//     (CheckDirectoryAccess, CheckNtfyFromConfig) to display health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
