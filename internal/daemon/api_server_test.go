package daemon_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"printflow/internal/api"
	"printflow/internal/daemon"
	"printflow/internal/task"
	"printflow/internal/testsupport"
)

type caller struct {
	id   string
	role string
}

var (
	seller   = caller{id: "sales-1", role: "sales-team"}
	designer = caller{id: "design-1", role: "design-team"}
)

func doRequest(t *testing.T, h http.Handler, method, path string, who *caller, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if who != nil {
		req.Header.Set(daemon.HeaderActorID, who.id)
		req.Header.Set(daemon.HeaderActorRole, who.role)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v (body %s)", out, err, w.Body.String())
	}
	return out
}

func createTask(t *testing.T, h http.Handler) api.Task {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/tasks", &seller, api.CreateTaskRequest{
		Title:        "Wedding invitations",
		AssignedTeam: "design-team",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[api.TaskResponse](t, w).Task
}

func TestAPITaskLifecycle(t *testing.T) {
	h := newDaemon(t).Handler()
	created := createTask(t, h)
	if created.Status != "pending-design" || created.CreatedBy != "sales-1" {
		t.Fatalf("unexpected created task %+v", created)
	}

	w := doRequest(t, h, http.MethodGet, "/api/tasks?status=pending-design", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	if items := decode[api.TaskListResponse](t, w).Items; len(items) != 1 {
		t.Fatalf("expected one task, got %d", len(items))
	}

	w = doRequest(t, h, http.MethodGet, "/api/tasks/"+created.ID+"/next-statuses", &designer, nil)
	next := decode[api.NextStatusesResponse](t, w)
	if w.Code != http.StatusOK || len(next.Next) != 1 || next.Next[0] != "in-design" {
		t.Fatalf("unexpected next statuses %d %+v", w.Code, next)
	}

	w = doRequest(t, h, http.MethodPost, "/api/tasks/"+created.ID+"/status", &designer, api.StatusChangeRequest{Status: "in-design"})
	if w.Code != http.StatusOK {
		t.Fatalf("move: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	moved := decode[api.StatusChangeResponse](t, w)
	if moved.Task.Status != "in-design" || len(moved.Effects) != 1 {
		t.Fatalf("unexpected move response %+v", moved)
	}

	w = doRequest(t, h, http.MethodPost, "/api/tasks/"+created.ID+"/comments", &designer, api.CommentRequest{Message: "first proof"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment: expected 201, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/tasks/"+created.ID, nil, nil)
	fetched := decode[api.TaskResponse](t, w).Task
	if len(fetched.Notes) != 2 {
		t.Fatalf("expected status note and comment, got %+v", fetched.Notes)
	}

	w = doRequest(t, h, http.MethodDelete, "/api/tasks/"+created.ID, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodGet, "/api/tasks/"+created.ID, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	h := newDaemon(t).Handler()
	created := createTask(t, h)
	path := "/api/tasks/" + created.ID + "/status"

	cases := []struct {
		name   string
		who    *caller
		body   any
		status int
		kind   string
	}{
		{"forbidden role", &designer, api.StatusChangeRequest{Status: "approved"}, http.StatusForbidden, "forbidden"},
		{"unknown status", &designer, api.StatusChangeRequest{Status: "archived"}, http.StatusBadRequest, "validation"},
		{"missing actor", nil, api.StatusChangeRequest{Status: "in-design"}, http.StatusBadRequest, "validation"},
		{"bad role", &caller{id: "x", role: "admin"}, api.StatusChangeRequest{Status: "in-design"}, http.StatusBadRequest, "validation"},
		{"bad body", &designer, "not an object", http.StatusBadRequest, "validation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, path, tc.who, tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if resp := decode[api.ErrorResponse](t, w); resp.Kind != tc.kind {
				t.Fatalf("expected kind %q, got %+v", tc.kind, resp)
			}
		})
	}

	w := doRequest(t, h, http.MethodPost, "/api/tasks/missing/status", &designer, api.StatusChangeRequest{Status: "in-design"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/tasks/"+created.ID, nil, nil)
	if got := decode[api.TaskResponse](t, w).Task; got.Status != "pending-design" || len(got.Notes) != 0 {
		t.Fatalf("rejected requests must not change the task: %+v", got)
	}
}

func TestAPIUpdateTask(t *testing.T) {
	h := newDaemon(t).Handler()
	created := createTask(t, h)
	path := "/api/tasks/" + created.ID

	title, priority := "Wedding invitations (gold foil)", "high"
	w := doRequest(t, h, http.MethodPatch, path, &seller, api.UpdateTaskRequest{Title: &title, Priority: &priority})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decode[api.TaskResponse](t, w).Task
	if updated.Title != title || updated.Priority != "high" || updated.Status != "pending-design" {
		t.Fatalf("unexpected updated task %+v", updated)
	}

	status := "approved"
	w = doRequest(t, h, http.MethodPatch, path, &seller, api.UpdateTaskRequest{Status: &status})
	if w.Code != http.StatusBadRequest || decode[api.ErrorResponse](t, w).Kind != "validation" {
		t.Fatalf("expected status edit to be refused with 400, got %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, h, http.MethodPatch, "/api/tasks/missing", &seller, api.UpdateTaskRequest{Title: &title})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodPatch, path, nil, api.UpdateTaskRequest{Title: &title})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without an actor, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, path, nil, nil)
	if got := decode[api.TaskResponse](t, w).Task; got.Status != "pending-design" || got.Title != title {
		t.Fatalf("expected the edit to persist with status unchanged, got %+v", got)
	}
}

func TestAPIListFilters(t *testing.T) {
	h := newDaemon(t).Handler()
	for _, req := range []api.CreateTaskRequest{
		{Title: "Cards", AssignedTeam: "design-team", Priority: "urgent", DueDate: "2026-03-05"},
		{Title: "Posters", AssignedTeam: "production-team", Priority: "urgent", DueDate: "2026-03-20"},
		{Title: "Flyers", AssignedTeam: "design-team", Priority: "low"},
	} {
		if w := doRequest(t, h, http.MethodPost, "/api/tasks", &seller, req); w.Code != http.StatusCreated {
			t.Fatalf("create %s: %d %s", req.Title, w.Code, w.Body.String())
		}
	}

	cases := []struct {
		query string
		want  []string
	}{
		{"priority=urgent", []string{"Cards", "Posters"}},
		{"team=design-team", []string{"Cards", "Flyers"}},
		{"priority=urgent&team=production_team", []string{"Posters"}},
		{"dueFrom=2026-03-05&dueTo=2026-03-10", []string{"Cards"}},
		{"dueTo=2026-03-31", []string{"Cards", "Posters"}},
		{"priority=low,urgent&dueFrom=2026-03-06", []string{"Posters"}},
	}
	for _, tc := range cases {
		w := doRequest(t, h, http.MethodGet, "/api/tasks?"+tc.query, nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", tc.query, w.Code, w.Body.String())
		}
		var titles []string
		for _, item := range decode[api.TaskListResponse](t, w).Items {
			titles = append(titles, item.Title)
		}
		if strings.Join(titles, ",") != strings.Join(tc.want, ",") {
			t.Fatalf("%s: expected %v, got %v", tc.query, tc.want, titles)
		}
	}

	w := doRequest(t, h, http.MethodGet, "/api/tasks?team=qa", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown team, got %d", w.Code)
	}
}

func TestAPINotifications(t *testing.T) {
	h := newDaemon(t).Handler()
	createTask(t, h)

	w := doRequest(t, h, http.MethodGet, "/api/notifications?recipient=design-1", nil, nil)
	inbox := decode[api.NotificationListResponse](t, w)
	if len(inbox.Items) != 1 || inbox.Unread != 1 || inbox.Items[0].Kind != "task-assigned" {
		t.Fatalf("unexpected inbox %+v", inbox)
	}

	w = doRequest(t, h, http.MethodPost, "/api/notifications/"+inbox.Items[0].ID+"/read", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("read: expected 204, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodGet, "/api/notifications", nil, nil)
	if all := decode[api.NotificationListResponse](t, w); len(all.Items) != 2 || all.Unread != 1 {
		t.Fatalf("expected both design members notified with one unread, got %+v", all)
	}

	w = doRequest(t, h, http.MethodPost, "/api/notifications/read-all", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("read-all: expected 204, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodDelete, "/api/notifications", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear: expected 204, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodGet, "/api/notifications", nil, nil)
	if all := decode[api.NotificationListResponse](t, w); len(all.Items) != 0 || all.Unread != 0 {
		t.Fatalf("expected empty inbox, got %+v", all)
	}
}

func TestAPIStatusAndPolicy(t *testing.T) {
	h := newDaemon(t).Handler()
	createTask(t, h)

	w := doRequest(t, h, http.MethodGet, "/api/status", nil, nil)
	status := decode[api.DaemonStatus](t, w)
	if status.TaskCounts["pending-design"] != 1 || status.Unread != 2 {
		t.Fatalf("unexpected status %+v", status)
	}

	w = doRequest(t, h, http.MethodGet, "/api/policy", nil, nil)
	if rules := decode[api.PolicyResponse](t, w).Rules; len(rules) != len(task.AllStatuses()) {
		t.Fatalf("expected a rule per status, got %d", len(rules))
	}
}

func TestAPIAuthToken(t *testing.T) {
	h := newDaemon(t, testsupport.WithAPIToken("s3cret")).Handler()

	w := doRequest(t, h, http.MethodGet, "/api/status", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}
