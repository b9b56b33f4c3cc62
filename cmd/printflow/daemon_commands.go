package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"printflow/internal/daemonctl"
	"printflow/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var serveLogLevel string
	var serveDevelopment bool
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the printflow daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    serveLogLevel,
				Development: serveDevelopment,
			})
		},
	}
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Override logging.level")
	serveCmd.Flags().BoolVar(&serveDevelopment, "dev", false, "Include source locations in logs")

	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the printflow daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			opts := daemonctl.LaunchOptions{
				ConfigPath: strings.TrimSpace(ctx.flags.config),
				LogLevel:   startLogLevel,
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), cfg, exe, opts, 10*time.Second)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override logging.level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the printflow daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cfg, 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	return []*cobra.Command{serveCmd, startCmd, stopCmd}
}
