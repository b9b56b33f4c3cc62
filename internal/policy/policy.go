// Package policy holds the static status transition table for print jobs.
//
// Every function is pure: the table is fixed at compile time, lookups never
// fail, and returned slices are copies the caller may modify.
package policy

import (
	"slices"

	"printflow/internal/task"
)

// Rule describes who may move a task out of a status and where it may go.
type Rule struct {
	From    task.Status
	Roles   []task.Role
	Targets []task.Status
}

var table = []Rule{
	{
		From:    task.StatusPendingDesign,
		Roles:   []task.Role{task.RoleDesignTeam},
		Targets: []task.Status{task.StatusInDesign},
	},
	{
		From:    task.StatusInDesign,
		Roles:   []task.Role{task.RoleDesignTeam},
		Targets: []task.Status{task.StatusDesignReview},
	},
	{
		From:    task.StatusDesignReview,
		Roles:   []task.Role{task.RoleDesignTeam, task.RoleSalesManager},
		Targets: []task.Status{task.StatusPendingApproval},
	},
	{
		From:    task.StatusPendingApproval,
		Roles:   []task.Role{task.RoleManager},
		Targets: []task.Status{task.StatusApproved, task.StatusDesignReview},
	},
	{
		From:    task.StatusApproved,
		Roles:   []task.Role{task.RoleProductionTeam},
		Targets: []task.Status{task.StatusInProduction},
	},
	{
		From:    task.StatusInProduction,
		Roles:   []task.Role{task.RoleProductionTeam},
		Targets: []task.Status{task.StatusReadyDelivery},
	},
	{
		From:    task.StatusReadyDelivery,
		Roles:   []task.Role{task.RoleSalesTeam, task.RoleSalesManager},
		Targets: []task.Status{task.StatusDelivered},
	},
	{From: task.StatusDelivered},
	{From: task.StatusCancelled},
}

var byStatus = func() map[task.Status]Rule {
	index := make(map[task.Status]Rule, len(table))
	for _, rule := range table {
		index[rule.From] = rule
	}
	return index
}()

// AllowedRoles returns the roles permitted to move a task out of status.
func AllowedRoles(status task.Status) []task.Role {
	return slices.Clone(byStatus[status].Roles)
}

// NextStatuses returns the statuses a task in status may move to.
func NextStatuses(status task.Status) []task.Status {
	return slices.Clone(byStatus[status].Targets)
}

// CanTransition reports whether role may move a task from current to requested.
func CanTransition(current, requested task.Status, role task.Role) bool {
	rule, ok := byStatus[current]
	if !ok {
		return false
	}
	return slices.Contains(rule.Roles, role) && slices.Contains(rule.Targets, requested)
}

// Available returns the statuses role may pick for a task in current, or an
// empty slice when the role is not allowed to act at all.
func Available(current task.Status, role task.Role) []task.Status {
	rule, ok := byStatus[current]
	if !ok || !slices.Contains(rule.Roles, role) {
		return []task.Status{}
	}
	return slices.Clone(rule.Targets)
}

// Rules returns the full table in lifecycle order.
func Rules() []Rule {
	out := make([]Rule, len(table))
	for i, rule := range table {
		out[i] = Rule{
			From:    rule.From,
			Roles:   slices.Clone(rule.Roles),
			Targets: slices.Clone(rule.Targets),
		}
	}
	return out
}

// Reachable returns every status reachable from pending-design, including
// pending-design itself, in breadth-first order.
func Reachable() []task.Status {
	seen := map[task.Status]bool{task.StatusPendingDesign: true}
	order := []task.Status{task.StatusPendingDesign}
	for i := 0; i < len(order); i++ {
		for _, next := range byStatus[order[i]].Targets {
			if seen[next] {
				continue
			}
			seen[next] = true
			order = append(order, next)
		}
	}
	return order
}
