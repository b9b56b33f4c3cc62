package policy_test

import (
	"slices"
	"testing"

	"printflow/internal/policy"
	"printflow/internal/task"
)

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		name      string
		current   task.Status
		requested task.Status
		role      task.Role
		want      bool
	}{
		{"design starts work", task.StatusPendingDesign, task.StatusInDesign, task.RoleDesignTeam, true},
		{"manager cannot start design", task.StatusPendingDesign, task.StatusInDesign, task.RoleManager, false},
		{"design submits for review", task.StatusInDesign, task.StatusDesignReview, task.RoleDesignTeam, true},
		{"sales manager requests approval", task.StatusDesignReview, task.StatusPendingApproval, task.RoleSalesManager, true},
		{"manager approves", task.StatusPendingApproval, task.StatusApproved, task.RoleManager, true},
		{"manager rejects", task.StatusPendingApproval, task.StatusDesignReview, task.RoleManager, true},
		{"design cannot approve", task.StatusPendingApproval, task.StatusApproved, task.RoleDesignTeam, false},
		{"production starts", task.StatusApproved, task.StatusInProduction, task.RoleProductionTeam, true},
		{"production finishes", task.StatusInProduction, task.StatusReadyDelivery, task.RoleProductionTeam, true},
		{"sales delivers", task.StatusReadyDelivery, task.StatusDelivered, task.RoleSalesTeam, true},
		{"sales manager delivers", task.StatusReadyDelivery, task.StatusDelivered, task.RoleSalesManager, true},
		{"skipping stages is refused", task.StatusPendingDesign, task.StatusApproved, task.RoleDesignTeam, false},
		{"unknown status is refused", task.Status("archived"), task.StatusInDesign, task.RoleDesignTeam, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.CanTransition(tc.current, tc.requested, tc.role); got != tc.want {
				t.Fatalf("CanTransition(%s, %s, %s) = %v, want %v", tc.current, tc.requested, tc.role, got, tc.want)
			}
		})
	}
}

func TestTerminalStatusesAdmitNothing(t *testing.T) {
	for _, status := range []task.Status{task.StatusDelivered, task.StatusCancelled} {
		if next := policy.NextStatuses(status); len(next) != 0 {
			t.Fatalf("%s: expected no next statuses, got %v", status, next)
		}
		for _, role := range task.AllRoles() {
			for _, requested := range task.AllStatuses() {
				if policy.CanTransition(status, requested, role) {
					t.Fatalf("%s -> %s allowed for %s", status, requested, role)
				}
			}
			if got := policy.Available(status, role); len(got) != 0 {
				t.Fatalf("%s: expected no available statuses for %s, got %v", status, role, got)
			}
		}
	}
}

func TestNonTerminalStatusesHaveRolesAndTargets(t *testing.T) {
	for _, status := range task.AllStatuses() {
		if status.IsTerminal() {
			continue
		}
		if len(policy.AllowedRoles(status)) == 0 || len(policy.NextStatuses(status)) == 0 {
			t.Fatalf("%s: expected non-empty policy row", status)
		}
	}
}

func TestAvailableRequiresRole(t *testing.T) {
	got := policy.Available(task.StatusPendingApproval, task.RoleManager)
	want := []task.Status{task.StatusApproved, task.StatusDesignReview}
	if !slices.Equal(got, want) {
		t.Fatalf("Available = %v, want %v", got, want)
	}
	if got := policy.Available(task.StatusPendingApproval, task.RoleDesignTeam); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	roles := policy.AllowedRoles(task.StatusDesignReview)
	roles[0] = task.RoleManager
	if policy.AllowedRoles(task.StatusDesignReview)[0] != task.RoleDesignTeam {
		t.Fatal("mutating AllowedRoles result leaked into the table")
	}
	rules := policy.Rules()
	rules[0].Targets[0] = task.StatusDelivered
	if policy.NextStatuses(task.StatusPendingDesign)[0] != task.StatusInDesign {
		t.Fatal("mutating Rules result leaked into the table")
	}
}

func TestReachable(t *testing.T) {
	reachable := policy.Reachable()
	if reachable[0] != task.StatusPendingDesign {
		t.Fatalf("expected pending-design first, got %v", reachable)
	}
	if !slices.Contains(reachable, task.StatusDelivered) {
		t.Fatalf("expected delivered to be reachable, got %v", reachable)
	}
	if slices.Contains(reachable, task.StatusCancelled) {
		t.Fatalf("cancelled has no inbound transition, got %v", reachable)
	}
	if len(reachable) != len(task.AllStatuses())-1 {
		t.Fatalf("unexpected reachable set %v", reachable)
	}
}
