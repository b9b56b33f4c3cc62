// Package daemonctl lets CLI commands find, start, stop and talk to a running
// printflow daemon. Client speaks the daemon's HTTP API with the same method
// set the CLI uses in-process, so commands run unchanged in either mode.
package daemonctl
