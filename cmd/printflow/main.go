package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"printflow/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to distinct process exit codes so scripts can
// tell a rejected transition from a missing task.
func exitCode(err error) int {
	switch services.KindOf(err) {
	case "validation", "configuration":
		return 2
	case "forbidden":
		return 3
	case "not_found":
		return 4
	case "unavailable":
		return 5
	default:
		return 1
	}
}
