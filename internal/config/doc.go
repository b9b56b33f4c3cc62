// Package config loads, normalizes, and validates PrintFlow configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as PRINTFLOW_API_TOKEN.
// Both the daemon and the CLI obtain settings here so downstream code receives
// absolute paths, canonical log formats, and a parsed default actor.
package config
