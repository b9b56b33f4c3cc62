package task_test

import (
	"testing"
	"time"

	"printflow/internal/task"
)

func TestFilterMatches(t *testing.T) {
	due := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	item := &task.Task{
		Status:       task.StatusInDesign,
		Priority:     task.PriorityHigh,
		AssignedTeam: task.TeamDesign,
		DueDate:      &due,
	}
	undated := &task.Task{Status: task.StatusInDesign, Priority: task.PriorityHigh, AssignedTeam: task.TeamDesign}
	before := due.Add(-24 * time.Hour)
	after := due.Add(24 * time.Hour)

	cases := []struct {
		name    string
		filter  task.Filter
		item    *task.Task
		matches bool
	}{
		{"empty filter", task.Filter{}, item, true},
		{"status hit", task.Filter{Statuses: []task.Status{task.StatusApproved, task.StatusInDesign}}, item, true},
		{"status miss", task.Filter{Statuses: []task.Status{task.StatusApproved}}, item, false},
		{"priority miss", task.Filter{Priorities: []task.Priority{task.PriorityLow}}, item, false},
		{"team hit", task.Filter{Teams: []task.Team{task.TeamDesign}}, item, true},
		{"team miss", task.Filter{Teams: []task.Team{task.TeamProduction}}, item, false},
		{"inside range", task.Filter{DueFrom: &before, DueTo: &after}, item, true},
		{"inclusive bounds", task.Filter{DueFrom: &due, DueTo: &due}, item, true},
		{"before range", task.Filter{DueFrom: &after}, item, false},
		{"after range", task.Filter{DueTo: &before}, item, false},
		{"range excludes undated", task.Filter{DueFrom: &before}, undated, false},
		{"nil task", task.Filter{}, nil, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(tc.item); got != tc.matches {
			t.Fatalf("%s: Matches = %v, want %v", tc.name, got, tc.matches)
		}
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(task.Patch{}).Empty() {
		t.Fatal("expected zero patch to be empty")
	}
	title := "New"
	if (task.Patch{Title: &title}).Empty() {
		t.Fatal("expected title patch to be non-empty")
	}
	if (task.Patch{ClearDueDate: true}).Empty() {
		t.Fatal("expected clear-due patch to be non-empty")
	}
}
