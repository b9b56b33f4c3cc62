package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"printflow/internal/api"
	"printflow/internal/config"
	"printflow/internal/logging"
	"printflow/internal/notifications"
	"printflow/internal/store"
	"printflow/internal/teams"
	"printflow/internal/workflow"
)

// Runtime holds the wired task engine and its collaborators. Both the daemon
// and in-process CLI commands build one.
type Runtime struct {
	Config     *config.Config
	Store      *store.Store
	Teams      *teams.Directory
	Dispatcher *notifications.Dispatcher
	Engine     *workflow.Engine
	Tasks      *api.TaskService
	Inbox      *api.NotificationService

	outbox *notifications.Outbox
	logger *slog.Logger
}

// OpenRuntime opens the store, loads the team directory and notification
// journal, and wires the workflow engine.
func OpenRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("runtime requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	directory, err := teams.LoadOrDefault(cfg.Paths.TeamDirectory)
	if err != nil {
		return nil, fmt.Errorf("load team directory: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	outbox := notifications.NewOutbox(
		cfg.Notifications.OutboxSize,
		cfg.RequestTimeout(),
		logger,
		DeliverySinks(cfg, logger)...,
	)
	dispatcher := notifications.NewDispatcher(
		logger,
		notifications.WithJournal(st),
		notifications.WithOutbox(outbox),
	)
	if err := dispatcher.Load(ctx); err != nil {
		_ = outbox.Close(ctx)
		_ = st.Close()
		return nil, err
	}

	engine := workflow.New(st, directory, dispatcher, workflow.WithLogger(logger))
	return &Runtime{
		Config:     cfg,
		Store:      st,
		Teams:      directory,
		Dispatcher: dispatcher,
		Engine:     engine,
		Tasks:      api.NewTaskService(engine),
		Inbox:      api.NewNotificationService(dispatcher),
		outbox:     outbox,
		logger:     logger,
	}, nil
}

// DeliverySinks returns the sinks enabled by cfg. The log sink is always
// present; ntfy is added when notifications are enabled and a topic is set.
func DeliverySinks(cfg *config.Config, logger *slog.Logger) []notifications.Sink {
	sinks := []notifications.Sink{notifications.NewLogSink(logger)}
	if cfg == nil || !cfg.Notifications.Enabled {
		return sinks
	}
	if ntfy := notifications.NewNtfySink(cfg.Notifications.NtfyTopic, cfg.RequestTimeout()); ntfy != nil {
		sinks = append(sinks, ntfy)
	}
	return sinks
}

// Close drains pending deliveries and closes the store.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.outbox != nil {
		if err := r.outbox.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain outbox: %w", err))
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
