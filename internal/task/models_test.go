package task_test

import (
	"testing"
	"time"

	"printflow/internal/task"
)

func TestParseStatusNormalizesInput(t *testing.T) {
	cases := map[string]task.Status{
		"pending-design":   task.StatusPendingDesign,
		" In-Production ":  task.StatusInProduction,
		"ready_delivery":   task.StatusReadyDelivery,
		"PENDING_APPROVAL": task.StatusPendingApproval,
		"cancelled":        task.StatusCancelled,
	}
	for input, want := range cases {
		got, ok := task.ParseStatus(input)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", input, got, ok, want)
		}
	}
	if _, ok := task.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := task.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	role, ok := task.ParseRole("Sales_Manager")
	if !ok || role != task.RoleSalesManager {
		t.Fatalf("unexpected role parse result: %q %v", role, ok)
	}
	if _, ok := task.ParseRole("admin"); ok {
		t.Fatal("expected admin to be rejected")
	}
}

func TestLabels(t *testing.T) {
	if got := task.StatusReadyDelivery.Label(); got != "Ready for Delivery" {
		t.Fatalf("unexpected status label %q", got)
	}
	if got := task.TeamProduction.Label(); got != "Production Team" {
		t.Fatalf("unexpected team label %q", got)
	}
	if got := task.RoleSalesManager.Label(); got != "Sales Manager" {
		t.Fatalf("unexpected role label %q", got)
	}
}

func TestParsePriorityDefaultsToMedium(t *testing.T) {
	got, ok := task.ParsePriority("")
	if !ok || got != task.PriorityMedium {
		t.Fatalf("expected medium default, got %q %v", got, ok)
	}
	if _, ok := task.ParsePriority("critical"); ok {
		t.Fatal("expected unknown priority to be rejected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range task.AllStatuses() {
		want := status == task.StatusDelivered || status == task.StatusCancelled
		if status.IsTerminal() != want {
			t.Fatalf("%s: IsTerminal = %v, want %v", status, status.IsTerminal(), want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	original := &task.Task{
		ID:      "t-1",
		DueDate: &due,
		Notes:   []task.Note{{ID: "n-1", Message: "first"}},
		Specs:   task.Specifications{Finishes: []string{"matte"}},
	}
	clone := original.Clone()
	clone.AppendNote(task.Note{ID: "n-2"})
	clone.Specs.Finishes[0] = "gloss"
	*clone.DueDate = due.Add(24 * time.Hour)

	if len(original.Notes) != 1 {
		t.Fatalf("expected original notes untouched, got %d", len(original.Notes))
	}
	if original.Specs.Finishes[0] != "matte" {
		t.Fatalf("expected original finishes untouched, got %v", original.Specs.Finishes)
	}
	if !original.DueDate.Equal(due) {
		t.Fatalf("expected original due date untouched, got %v", original.DueDate)
	}
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	item := &task.Task{Status: task.StatusInProduction, DueDate: &due}
	if !item.IsOverdue(due.Add(time.Hour)) {
		t.Fatal("expected in-production task past due to be overdue")
	}
	item.Status = task.StatusDelivered
	if item.IsOverdue(due.Add(time.Hour)) {
		t.Fatal("expected delivered task never to be overdue")
	}
}
