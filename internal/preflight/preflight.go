package preflight

import (
	"context"

	"printflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Required bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		required(CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)),
		required(CheckDirectoryAccess("Log directory", cfg.Paths.LogDir)),
	}

	if cfg.Paths.TeamDirectory != "" {
		results = append(results, required(CheckTeamDirectory(cfg.Paths.TeamDirectory)))
	}

	if cfg.Notifications.Enabled && cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if result.Required && !result.Passed {
			out = append(out, result)
		}
	}
	return out
}

func required(r Result) Result {
	r.Required = true
	return r
}
