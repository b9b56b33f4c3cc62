package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"printflow/internal/notifications"
)

type recordingSink struct {
	mu    sync.Mutex
	items []notifications.Notification
}

func (s *recordingSink) Deliver(_ context.Context, n notifications.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func TestOutboxDeliversToEverySinkAndDrainsOnClose(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	failing := notifications.SinkFunc(func(context.Context, notifications.Notification) error {
		return errors.New("offline")
	})
	outbox := notifications.NewOutbox(8, time.Second, nil, failing, first, second)
	d := newTestDispatcher(notifications.WithOutbox(outbox))

	if _, err := d.Dispatch(context.Background(), notifications.KindTaskCompleted, []string{"a", "b", "c"}, notifications.Context{TaskTitle: "Posters"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := outbox.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if first.count() != 3 || second.count() != 3 {
		t.Fatalf("expected 3 deliveries per sink, got %d and %d", first.count(), second.count())
	}
	if outbox.Enqueue(notifications.Notification{ID: "late"}) {
		t.Fatal("expected enqueue after close to be refused")
	}
}

func TestOutboxDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	blocking := notifications.SinkFunc(func(ctx context.Context, _ notifications.Notification) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	outbox := notifications.NewOutbox(1, time.Second, nil, blocking)

	accepted := 0
	for i := 0; i < 5; i++ {
		if outbox.Enqueue(notifications.Notification{ID: "n"}) {
			accepted++
		}
	}
	close(release)
	if accepted >= 5 {
		t.Fatalf("expected some deliveries to be dropped, accepted %d", accepted)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := outbox.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewNtfySinkReturnsNilWithoutTopic(t *testing.T) {
	if sink := notifications.NewNtfySink("  ", time.Second); sink != nil {
		t.Fatal("expected nil sink for empty topic")
	}
}

func TestNtfySinkFormatsRequest(t *testing.T) {
	type captured struct {
		title, tags, priority, body string
	}
	got := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := notifications.NewNtfySink(server.URL, time.Second)
	err := sink.Deliver(context.Background(), notifications.Notification{
		RecipientID: "design-1",
		Title:       "Task rejected",
		Message:     "Task \"Flyers\" was sent back for design changes: missing logo",
		Kind:        notifications.KindTaskRejected,
		Priority:    notifications.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	req := <-got
	if req.title != "Task rejected" {
		t.Fatalf("unexpected title %q", req.title)
	}
	if req.tags != "printflow,task-rejected,rotating_light" {
		t.Fatalf("unexpected tags %q", req.tags)
	}
	if req.priority != "high" {
		t.Fatalf("unexpected priority %q", req.priority)
	}
	if !strings.HasPrefix(req.body, "@design-1 ") || !strings.Contains(req.body, "missing logo") {
		t.Fatalf("unexpected body %q", req.body)
	}
}

func TestNtfySinkOmitsPriorityForMedium(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("Priority")
	}))
	defer server.Close()

	sink := notifications.NewNtfySink(server.URL, time.Second)
	if err := sink.Deliver(context.Background(), notifications.Notification{Title: "x", Priority: notifications.PriorityMedium}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if p := <-got; p != "" {
		t.Fatalf("expected no priority header, got %q", p)
	}
}

func TestNtfySinkReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	sink := notifications.NewNtfySink(server.URL, time.Second)
	err := sink.Test(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
