package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"printflow/internal/logging"
	"printflow/internal/task"
)

// Daemon serves the HTTP API over a Runtime and enforces single-writer
// execution through the shared lock file.
type Daemon struct {
	runtime *Runtime
	logger  *slog.Logger
	lock    *Lock
	api     *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	DatabasePath  string
	LockFilePath  string
	APIBind       string
	TaskCounts    map[task.Status]int
	Unread        int
	Notifications bool
}

// New constructs a daemon around an opened runtime.
func New(rt *Runtime, logger *slog.Logger) (*Daemon, error) {
	if rt == nil || rt.Config == nil {
		return nil, errors.New("daemon requires an opened runtime")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		runtime: rt,
		logger:  logging.NewComponentLogger(logger, "daemon"),
		lock:    NewLock(rt.Config.LockPath()),
	}
	d.api = newAPIServer(rt.Config, d, logger)
	return d, nil
}

// Start acquires the lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.lock.TryAcquire(); err != nil {
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Release()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("printflow daemon started",
		logging.String("lock", d.lock.Path()),
		logging.String("api", d.api.address()),
	)
	return nil
}

// Stop stops the API server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Release(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("printflow daemon stopped")
}

// Close stops the daemon and closes the runtime.
func (d *Daemon) Close(ctx context.Context) error {
	d.Stop()
	return d.runtime.Close(ctx)
}

// Status reports running state, task counts and unread notifications.
func (d *Daemon) Status(ctx context.Context) Status {
	cfg := d.runtime.Config
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		DatabasePath:  cfg.DatabasePath(),
		LockFilePath:  d.lock.Path(),
		APIBind:       d.api.address(),
		Notifications: cfg.Notifications.Enabled && cfg.Notifications.NtfyTopic != "",
	}
	counts, err := d.runtime.Store.Stats(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "task stats unavailable", "task_stats_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status omits task counts"),
		)
	}
	status.TaskCounts = counts
	status.Unread = d.runtime.Dispatcher.UnreadCount()
	return status
}

// Handler exposes the API router, mainly for tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.server.Handler
}
