package daemonctl

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"printflow/internal/api"
	"printflow/internal/daemon"
	"printflow/internal/daemonrun"
	"printflow/internal/services"
	"printflow/internal/task"
	"printflow/internal/testsupport"
)

func newTestClient(t *testing.T, opts ...testsupport.ConfigOption) *Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	rt, err := daemon.OpenRuntime(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	d, err := daemon.New(rt, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = d.Close(context.Background())
	})
	client := NewClient(cfg)
	client.baseURL = srv.URL
	return client
}

func TestBaseURL(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:7480": "http://127.0.0.1:7480",
		"0.0.0.0:7480":   "http://127.0.0.1:7480",
		":7480":          "http://127.0.0.1:7480",
		"[::]:9000":      "http://127.0.0.1:9000",
	}
	for bind, want := range cases {
		if got := BaseURL(bind); got != want {
			t.Fatalf("BaseURL(%q) = %q, want %q", bind, got, want)
		}
	}
}

func TestClientRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	seller := task.Actor{ID: "sales-1", Name: "Sam", Role: task.RoleSalesTeam}
	designer := task.Actor{ID: "design-1", Role: task.RoleDesignTeam}

	created, err := client.Create(ctx, api.CreateTaskRequest{Title: "Flyers", AssignedTeam: "design-team"}, seller)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	next, err := client.Next(ctx, created.ID, task.RoleDesignTeam)
	if err != nil || len(next.Next) != 1 {
		t.Fatalf("Next: %+v %v", next, err)
	}

	moved, err := client.Move(ctx, created.ID, api.StatusChangeRequest{Status: "in-design"}, designer)
	if err != nil || moved.Task.Status != "in-design" {
		t.Fatalf("Move: %+v %v", moved, err)
	}

	if _, err := client.Comment(ctx, created.ID, api.CommentRequest{Message: "on it"}, designer); err != nil {
		t.Fatalf("Comment: %v", err)
	}

	items, err := client.ListTasks(ctx, api.TaskQuery{Statuses: []string{"in-design", "", "pending-design"}})
	if err != nil || len(items) != 1 {
		t.Fatalf("ListTasks: %d %v", len(items), err)
	}
	if items, err := client.ListTasks(ctx, api.TaskQuery{Teams: []string{"production-team"}}); err != nil || len(items) != 0 {
		t.Fatalf("ListTasks by team: %d %v", len(items), err)
	}

	priority := "urgent"
	edited, err := client.Update(ctx, created.ID, api.UpdateTaskRequest{Priority: &priority}, seller)
	if err != nil || edited.Priority != "urgent" || edited.Status != "in-design" {
		t.Fatalf("Update: %+v %v", edited, err)
	}
	status := "approved"
	if _, err := client.Update(ctx, created.ID, api.UpdateTaskRequest{Status: &status}, seller); services.KindOf(err) != "validation" {
		t.Fatalf("expected a refused status edit to come back as validation, got %v", err)
	}

	inbox, err := client.Notifications(ctx, "design-1")
	if err != nil || inbox.Unread != 2 {
		t.Fatalf("Notifications: %+v %v", inbox, err)
	}
	if err := client.MarkRead(ctx, inbox.Items[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := client.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if err := client.ClearNotifications(ctx); err != nil {
		t.Fatalf("ClearNotifications: %v", err)
	}

	daemonStatus, err := client.Status(ctx)
	if err != nil || daemonStatus.TaskCounts["in-design"] != 1 || daemonStatus.Unread != 0 {
		t.Fatalf("Status: %+v %v", daemonStatus, err)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestClientPreservesErrorKinds(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	seller := task.Actor{ID: "sales-1", Role: task.RoleSalesTeam}

	created, err := client.Create(ctx, api.CreateTaskRequest{Title: "Banners", AssignedTeam: "design-team"}, seller)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = client.Move(ctx, created.ID, api.StatusChangeRequest{Status: "approved"}, seller)
	if services.KindOf(err) != "forbidden" {
		t.Fatalf("expected forbidden kind, got %v", err)
	}
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.StatusCode != 403 {
		t.Fatalf("expected remote 403, got %v", err)
	}

	if _, err := client.Describe(ctx, "missing"); services.KindOf(err) != "not_found" {
		t.Fatalf("expected not_found kind, got %v", err)
	}
	if _, err := client.Create(ctx, api.CreateTaskRequest{Title: " "}, seller); services.KindOf(err) != "validation" {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestClientUnreachableDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := NewClient(cfg)
	client.baseURL = "http://127.0.0.1:1"
	_, err := client.Status(context.Background())
	if !errors.Is(err, ErrDaemonNotRunning) || !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected daemon-not-running unavailable error, got %v", err)
	}
}

func TestClientSendsToken(t *testing.T) {
	client := newTestClient(t, testsupport.WithAPIToken("tok"))
	if _, err := client.Status(context.Background()); err != nil {
		t.Fatalf("expected token accepted, got %v", err)
	}
	client.token = ""
	if _, err := client.Status(context.Background()); services.KindOf(err) != "unauthorized" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestProcessInfoWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	running, pid, err := ProcessInfo(cfg)
	if err != nil || running || pid != 0 {
		t.Fatalf("expected no daemon, got running=%v pid=%d err=%v", running, pid, err)
	}
	if _, err := StopAndTerminate(cfg, 0); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestProcessInfoLockWithoutPIDIsUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release() //nolint:errcheck

	running, pid, err := ProcessInfo(cfg)
	if !running || pid != 0 {
		t.Fatalf("expected held lock without pid, got running=%v pid=%d", running, pid)
	}
	if !errors.Is(err, services.ErrUnavailable) || !strings.Contains(err.Error(), "another printflow process holds") {
		t.Fatalf("expected unavailable lock error, got %v", err)
	}
	if _, err := StopAndTerminate(cfg, 0); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected stop to report unavailable, got %v", err)
	}

	if err := os.WriteFile(daemonrun.PIDPath(cfg), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	running, pid, err = ProcessInfo(cfg)
	if err != nil || !running || pid != os.Getpid() {
		t.Fatalf("expected daemon pid, got running=%v pid=%d err=%v", running, pid, err)
	}
}
