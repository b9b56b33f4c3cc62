// Package services holds request-scoped helpers shared by the workflow engine
// and its transports.
//
// Context helpers stamp task ids, actor roles and correlation identifiers so
// the logging package can surface them on every line. The error helpers
// classify failures into kinds that the HTTP API and the CLI translate into
// status codes and exit codes.
package services
