package workflow

import (
	"strings"

	"printflow/internal/notifications"
	"printflow/internal/task"
)

// Effect is a notification dispatch computed for a committed transition.
type Effect struct {
	Kind       notifications.Kind
	Recipients []string
}

// statusTeams maps each status to the team responsible for it. Terminal
// statuses have no owner.
var statusTeams = map[task.Status]task.Team{
	task.StatusPendingDesign:   task.TeamDesign,
	task.StatusInDesign:        task.TeamDesign,
	task.StatusDesignReview:    task.TeamDesign,
	task.StatusPendingApproval: task.TeamManager,
	task.StatusApproved:        task.TeamProduction,
	task.StatusInProduction:    task.TeamProduction,
	task.StatusReadyDelivery:   task.TeamSales,
}

// TeamForStatus returns the team that owns work in status.
func TeamForStatus(status task.Status) (task.Team, bool) {
	team, ok := statusTeams[status]
	return team, ok
}

// routeTransition decides which notification a move from previous to next
// produces. The zero Effect means nothing is sent.
func routeTransition(dir Directory, item *task.Task, previous, next task.Status) Effect {
	var (
		kind   notifications.Kind
		groups [][]string
	)
	members := func(team task.Team) []string { return dir.MembersOf(string(team)) }

	switch next {
	case task.StatusPendingApproval:
		kind = notifications.KindApprovalNeeded
		groups = append(groups, members(task.TeamManager))
	case task.StatusApproved:
		kind = notifications.KindTaskApproved
		groups = append(groups, members(task.TeamProduction), []string{item.CreatedBy})
	case task.StatusDesignReview:
		kind = notifications.KindTaskUpdated
		if previous == task.StatusPendingApproval {
			kind = notifications.KindTaskRejected
		}
		groups = append(groups, members(task.TeamDesign))
	case task.StatusInProduction:
		kind = notifications.KindTaskUpdated
		groups = append(groups, members(task.TeamProduction))
	case task.StatusReadyDelivery:
		kind = notifications.KindTaskUpdated
		groups = append(groups, members(task.TeamSales), members(task.TeamSalesManager))
	case task.StatusDelivered:
		kind = notifications.KindTaskCompleted
		groups = append(groups, []string{item.CreatedBy}, members(task.TeamManager))
	default:
		team, ok := TeamForStatus(next)
		if !ok {
			return Effect{}
		}
		kind = notifications.KindTaskUpdated
		groups = append(groups, members(team))
	}

	recipients := dedupeRecipients(groups...)
	if len(recipients) == 0 {
		return Effect{}
	}
	return Effect{Kind: kind, Recipients: recipients}
}

// dedupeRecipients flattens groups, keeping the first occurrence of each id.
func dedupeRecipients(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range groups {
		for _, id := range group {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
