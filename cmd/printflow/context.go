package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"printflow/internal/api"
	"printflow/internal/config"
	"printflow/internal/daemon"
	"printflow/internal/daemonctl"
	"printflow/internal/logging"
	"printflow/internal/services"
	"printflow/internal/task"
)

type globalFlags struct {
	config    string
	json      bool
	actorID   string
	actorName string
	actorRole string
}

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.flags.json
}

// actor resolves the acting identity: --as-* flags win over the [actor]
// config section.
func (c *commandContext) actor() (task.Actor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return task.Actor{}, err
	}
	id := firstNonEmpty(c.flags.actorID, cfg.Actor.ID)
	name := firstNonEmpty(c.flags.actorName, cfg.Actor.Name)
	role := firstNonEmpty(c.flags.actorRole, cfg.Actor.Role)
	if id == "" || role == "" {
		return task.Actor{}, services.Wrap(services.ErrValidation, "resolve actor",
			"set --as-id and --as-role or configure the [actor] section", nil)
	}
	return api.ParseActor(id, name, role)
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{Level: "warn", Format: cfg.Logging.Format})
}

// withBackend runs fn against the daemon API when a daemon holds the lock,
// and in-process otherwise. In-process mutations hold the lock for the
// duration of fn.
func (c *commandContext) withBackend(cmd *cobra.Command, mutating bool, fn func(backend) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	running, _, err := daemonctl.ProcessInfo(cfg)
	if err != nil {
		return err
	}
	if running {
		return fn(daemonctl.NewClient(cfg))
	}

	if mutating {
		lock, err := daemon.AcquireLock(cfg.LockPath())
		if err != nil {
			return err
		}
		defer lock.Release() //nolint:errcheck
	}

	logger, err := c.logger(cfg)
	if err != nil {
		return err
	}
	rt, err := daemon.OpenRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	b := &localBackend{rt: rt}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout()+5*time.Second)
		defer cancel()
		if err := b.Close(closeCtx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
		}
	}()
	return fn(b)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
