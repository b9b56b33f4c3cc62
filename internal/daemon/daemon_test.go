package daemon_test

import (
	"context"
	"errors"
	"testing"

	"printflow/internal/daemon"
	"printflow/internal/logging"
	"printflow/internal/services"
	"printflow/internal/testsupport"
)

func newDaemon(t *testing.T, opts ...testsupport.ConfigOption) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	rt, err := daemon.OpenRuntime(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	d, err := daemon.New(rt, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close(context.Background())
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.APIBind == "127.0.0.1:0" {
		t.Fatalf("expected resolved listen address, got %s", status.APIBind)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	held, err := daemon.LockHeld(status.LockFilePath)
	if err != nil || !held {
		t.Fatalf("expected lock to be held while running, held=%v err=%v", held, err)
	}
	if _, err := daemon.AcquireLock(status.LockFilePath); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error for contended lock, got %v", err)
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	held, err = daemon.LockHeld(status.LockFilePath)
	if err != nil || held {
		t.Fatalf("expected lock released after stop, held=%v err=%v", held, err)
	}
}

func TestLockAcquireRelease(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !lock.Held() {
		t.Fatal("expected lock to be held")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release should be a no-op: %v", err)
	}
	again, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	_ = again.Release()
}

func TestDeliverySinks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := len(daemon.DeliverySinks(cfg, nil)); got != 1 {
		t.Fatalf("expected log sink only when disabled, got %d", got)
	}
	cfg.Notifications.Enabled = true
	if got := len(daemon.DeliverySinks(cfg, nil)); got != 1 {
		t.Fatalf("expected log sink only without a topic, got %d", got)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.example/printflow"
	if got := len(daemon.DeliverySinks(cfg, nil)); got != 2 {
		t.Fatalf("expected log and ntfy sinks, got %d", got)
	}
}

func TestOpenRuntimeRejectsBadTeamFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTeamFile("teams:\n  printers: [p-1]\n"))
	if _, err := daemon.OpenRuntime(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected unknown team key to fail")
	}
}
