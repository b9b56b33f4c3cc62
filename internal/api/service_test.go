package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"printflow/internal/api"
	"printflow/internal/notifications"
	"printflow/internal/services"
	"printflow/internal/task"
	"printflow/internal/teams"
	"printflow/internal/testsupport"
	"printflow/internal/workflow"
)

func newServices(t *testing.T) (*api.TaskService, *api.NotificationService) {
	t.Helper()
	dispatcher := notifications.NewDispatcher(nil)
	engine := workflow.New(testsupport.NewMemoryRepository(), teams.Default(), dispatcher)
	return api.NewTaskService(engine), api.NewNotificationService(dispatcher)
}

func TestParseActor(t *testing.T) {
	actor, err := api.ParseActor(" manager-1 ", "Mona", "Manager")
	if err != nil {
		t.Fatalf("ParseActor: %v", err)
	}
	if actor.ID != "manager-1" || actor.Role != task.RoleManager {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if _, err := api.ParseActor("u", "", "admin"); services.KindOf(err) != "validation" {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
	if _, err := api.ParseActor("", "", "manager"); services.KindOf(err) != "validation" {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
}

func TestParseDueDate(t *testing.T) {
	day, err := api.ParseDueDate("2026-05-01")
	if err != nil {
		t.Fatalf("ParseDueDate: %v", err)
	}
	if day.Format(time.RFC3339) != "2026-05-01T23:59:59Z" {
		t.Fatalf("unexpected end-of-day due date %s", day)
	}
	stamp, err := api.ParseDueDate("2026-05-01T10:00:00+02:00")
	if err != nil || stamp.Hour() != 8 {
		t.Fatalf("unexpected RFC3339 parse %s %v", stamp, err)
	}
	if _, err := api.ParseDueDate("next week"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTaskServiceLifecycle(t *testing.T) {
	tasks, inbox := newServices(t)
	ctx := context.Background()
	seller := task.Actor{ID: "sales-1", Role: task.RoleSalesTeam}
	designer := task.Actor{ID: "design-1", Name: "Dana", Role: task.RoleDesignTeam}

	created, err := tasks.Create(ctx, api.CreateTaskRequest{
		Title:        "Menus",
		AssignedTeam: "design-team",
		Priority:     "high",
		DueDate:      "2020-01-01",
	}, seller)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != "pending-design" || created.StatusLabel != "Pending Design" || !created.Overdue {
		t.Fatalf("unexpected created task %+v", created)
	}
	if created.Notes == nil || created.Attachments == nil {
		t.Fatal("expected empty slices rather than nil for JSON output")
	}

	next, err := tasks.Next(ctx, created.ID, task.RoleDesignTeam)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(next.Next) != 1 || next.Next[0] != "in-design" {
		t.Fatalf("unexpected next statuses %+v", next)
	}

	moved, err := tasks.Move(ctx, created.ID, api.StatusChangeRequest{Status: "in_design"}, designer)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.Task.Status != "in-design" || moved.Note.Kind != "status-change" || len(moved.Effects) != 1 {
		t.Fatalf("unexpected move response %+v", moved)
	}

	if _, err := tasks.Move(ctx, created.ID, api.StatusChangeRequest{Status: "archived"}, designer); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	if _, err := tasks.Move(ctx, created.ID, api.StatusChangeRequest{Status: "approved"}, designer); !errors.Is(err, workflow.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	note, err := tasks.Comment(ctx, created.ID, api.CommentRequest{Message: "proof sent"}, designer)
	if err != nil || note.Kind != "comment" {
		t.Fatalf("unexpected comment %+v %v", note, err)
	}

	listed, err := tasks.List(ctx, api.TaskQuery{Statuses: []string{"in-design"}})
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one in-design task, got %d %v", len(listed), err)
	}
	if _, err := tasks.List(ctx, api.TaskQuery{Statuses: []string{"bogus"}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad filter, got %v", err)
	}

	inboxView := inbox.List("design-1")
	if len(inboxView.Items) != 2 || inboxView.Unread != 2 {
		t.Fatalf("expected assigned and updated notifications for design-1, got %+v", inboxView)
	}
	if err := inbox.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if inbox.Unread() != 0 {
		t.Fatalf("expected no unread, got %d", inbox.Unread())
	}

	if err := tasks.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := tasks.Describe(ctx, created.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTaskServiceUpdate(t *testing.T) {
	tasks, inbox := newServices(t)
	ctx := context.Background()
	seller := task.Actor{ID: "sales-1", Role: task.RoleSalesTeam}
	created, err := tasks.Create(ctx, api.CreateTaskRequest{Title: "Menus", AssignedTeam: "design-team", DueDate: "2026-06-01"}, seller)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title, priority, team := "Dinner menus", "urgent", "production_team"
	updated, err := tasks.Update(ctx, created.ID, api.UpdateTaskRequest{
		Title:        &title,
		Priority:     &priority,
		AssignedTeam: &team,
		ClearDueDate: true,
		Attachments:  []api.Attachment{{Name: "menu.pdf", URL: "https://files.example/menu.pdf"}},
	}, seller)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || updated.Priority != "urgent" || updated.AssignedTeam != "production-team" || updated.DueDate != "" {
		t.Fatalf("unexpected updated task %+v", updated)
	}
	if len(updated.Attachments) != 1 || updated.Status != "pending-design" {
		t.Fatalf("expected one attachment and unchanged status, got %+v", updated)
	}
	if got := inbox.List("production-1"); len(got.Items) != 1 || got.Items[0].Kind != "task-assigned" {
		t.Fatalf("expected production-1 to be told about the assignment, got %+v", got)
	}

	status := "delivered"
	if _, err := tasks.Update(ctx, created.ID, api.UpdateTaskRequest{Status: &status}, seller); !errors.Is(err, workflow.ErrInvalid) {
		t.Fatalf("expected status edit to be refused, got %v", err)
	}
	bogus := "someday"
	if _, err := tasks.Update(ctx, created.ID, api.UpdateTaskRequest{DueDate: &bogus}, seller); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad due date, got %v", err)
	}
}

func TestTaskQueryToFilter(t *testing.T) {
	filter, err := api.TaskQuery{
		Statuses:   []string{"in_design"},
		Priorities: []string{"Urgent", " "},
		Teams:      []string{"design-team"},
		DueFrom:    "2026-03-01",
		DueTo:      "2026-03-31",
	}.ToFilter()
	if err != nil {
		t.Fatalf("ToFilter: %v", err)
	}
	if len(filter.Statuses) != 1 || filter.Statuses[0] != task.StatusInDesign {
		t.Fatalf("unexpected statuses %v", filter.Statuses)
	}
	if len(filter.Priorities) != 1 || filter.Priorities[0] != task.PriorityUrgent || len(filter.Teams) != 1 {
		t.Fatalf("unexpected priorities/teams %v %v", filter.Priorities, filter.Teams)
	}
	if filter.DueFrom.Format(time.RFC3339) != "2026-03-01T00:00:00Z" || filter.DueTo.Format(time.RFC3339) != "2026-03-31T23:59:59Z" {
		t.Fatalf("expected whole-day bounds, got %s .. %s", filter.DueFrom, filter.DueTo)
	}

	bad := []api.TaskQuery{
		{Priorities: []string{"asap"}},
		{Teams: []string{"qa"}},
		{DueFrom: "soon"},
		{DueFrom: "2026-04-01", DueTo: "2026-03-01"},
	}
	for _, query := range bad {
		if _, err := query.ToFilter(); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", query, err)
		}
	}
}

func TestTaskQueryValuesRoundTrip(t *testing.T) {
	query := api.TaskQuery{Statuses: []string{"approved", "in-production"}, Teams: []string{"production-team"}, DueTo: "2026-03-31"}
	values := query.Values()
	if got := values.Encode(); got != "dueTo=2026-03-31&status=approved&status=in-production&team=production-team" {
		t.Fatalf("unexpected encoding %q", got)
	}
	values.Set("priority", "high,urgent")
	parsed := api.TaskQueryFromValues(values)
	if len(parsed.Statuses) != 2 || len(parsed.Priorities) != 2 || parsed.DueTo != "2026-03-31" || parsed.DueFrom != "" {
		t.Fatalf("unexpected parsed query %+v", parsed)
	}
}

func TestPolicyRulesFlagUnreachableRows(t *testing.T) {
	rules := api.PolicyRules()
	if len(rules) != len(task.AllStatuses()) {
		t.Fatalf("expected a row per status, got %d", len(rules))
	}
	for _, rule := range rules {
		switch rule.From {
		case "cancelled":
			if rule.Reachable || len(rule.Targets) != 0 {
				t.Fatalf("unexpected cancelled row %+v", rule)
			}
		case "pending-approval":
			if !rule.Reachable || len(rule.Roles) != 1 || len(rule.Targets) != 2 {
				t.Fatalf("unexpected pending-approval row %+v", rule)
			}
		}
	}
}
