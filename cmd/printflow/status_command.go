package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"printflow/internal/api"
	"printflow/internal/config"
	"printflow/internal/daemon"
	"printflow/internal/daemonctl"
	"printflow/internal/preflight"
	"printflow/internal/task"
)

type statusSnapshot struct {
	Daemon api.DaemonStatus `json:"daemon"`
	Checks []checkLine      `json:"checks"`
}

type checkLine struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state, task counts and health checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := buildStatusSnapshot(cmd.Context(), ctx, cfg)
			if err != nil {
				return err
			}
			return emit(ctx, cmd, snapshot, func() error {
				renderStatus(cmd, snapshot)
				return nil
			})
		},
	}
}

// buildStatusSnapshot asks the daemon when it is running and reads the store
// directly otherwise.
func buildStatusSnapshot(cmdCtx context.Context, ctx *commandContext, cfg *config.Config) (statusSnapshot, error) {
	var snapshot statusSnapshot
	running, _, err := daemonctl.ProcessInfo(cfg)
	if err != nil {
		return snapshot, err
	}
	if running {
		status, err := daemonctl.NewClient(cfg).Status(cmdCtx)
		if err != nil {
			return snapshot, err
		}
		snapshot.Daemon = status
	} else {
		logger, err := ctx.logger(cfg)
		if err != nil {
			return snapshot, err
		}
		rt, err := daemon.OpenRuntime(cmdCtx, cfg, logger)
		if err != nil {
			return snapshot, err
		}
		defer rt.Close(context.Background()) //nolint:errcheck
		counts, err := rt.Store.Stats(cmdCtx)
		if err != nil {
			return snapshot, err
		}
		snapshot.Daemon = api.DaemonStatus{
			DatabasePath:  cfg.DatabasePath(),
			LockFilePath:  cfg.LockPath(),
			APIBind:       cfg.Paths.APIBind,
			TaskCounts:    make(map[string]int, len(counts)),
			Unread:        rt.Dispatcher.UnreadCount(),
			Notifications: cfg.Notifications.Enabled,
		}
		for status, count := range counts {
			snapshot.Daemon.TaskCounts[string(status)] = count
		}
	}

	for _, result := range preflight.RunAll(cmdCtx, cfg) {
		if result.Name == "ntfy" {
			continue
		}
		snapshot.Checks = append(snapshot.Checks, checkLine{Name: result.Name, Passed: result.Passed, Detail: result.Detail})
	}
	ntfy := preflight.CheckNtfyFromConfig(cmdCtx, cfg)
	snapshot.Checks = append(snapshot.Checks, checkLine{Name: ntfy.Name, Passed: ntfy.Passed, Detail: ntfy.Detail})
	return snapshot, nil
}

func renderStatus(cmd *cobra.Command, snapshot statusSnapshot) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	status := snapshot.Daemon

	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, "running (pid "+strconv.Itoa(status.PID)+")", colorize))
		lines = append(lines, renderStatusLine("API", statusInfo, status.APIBind, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running; commands run in-process", colorize))
	}
	lines = append(lines, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	unreadKind := statusOK
	if status.Unread > 0 {
		unreadKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Unread", unreadKind, strconv.Itoa(status.Unread), colorize))
	lines = append(lines, renderStatusLine("Notifications", statusInfo, yesNo(status.Notifications), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, check := range snapshot.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	rows := buildStatusCountRows(status.TaskCounts)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}
	printTable(out, []string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

// buildStatusCountRows lists non-zero counts in workflow order.
func buildStatusCountRows(counts map[string]int) [][]string {
	var rows [][]string
	for _, status := range task.AllStatuses() {
		if count := counts[string(status)]; count > 0 {
			rows = append(rows, []string{status.Label(), strconv.Itoa(count)})
		}
	}
	return rows
}

