package task

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the production stage of a print job.
type Status string

const (
	StatusPendingDesign   Status = "pending-design"
	StatusInDesign        Status = "in-design"
	StatusDesignReview    Status = "design-review"
	StatusPendingApproval Status = "pending-approval"
	StatusApproved        Status = "approved"
	StatusInProduction    Status = "in-production"
	StatusReadyDelivery   Status = "ready-delivery"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

var allStatuses = []Status{
	StatusPendingDesign,
	StatusInDesign,
	StatusDesignReview,
	StatusPendingApproval,
	StatusApproved,
	StatusInProduction,
	StatusReadyDelivery,
	StatusDelivered,
	StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusPendingDesign:   "Pending Design",
	StatusInDesign:        "In Design",
	StatusDesignReview:    "Design Review",
	StatusPendingApproval: "Pending Approval",
	StatusApproved:        "Approved",
	StatusInProduction:    "In Production",
	StatusReadyDelivery:   "Ready for Delivery",
	StatusDelivered:       "Delivered",
	StatusCancelled:       "Cancelled",
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(normalizeKey(value))
	if _, ok := statusLabels[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// Label returns the human-readable name used in notifications and CLI output.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether no further transitions exist for the status.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Role identifies the kind of actor requesting an operation.
type Role string

const (
	RoleManager        Role = "manager"
	RoleSalesManager   Role = "sales-manager"
	RoleDesignTeam     Role = "design-team"
	RoleProductionTeam Role = "production-team"
	// RoleSalesTeam only appears in policy rows and recipient grouping; the
	// identity provider does not issue it to interactive users today.
	RoleSalesTeam Role = "sales-team"
)

var allRoles = []Role{
	RoleManager,
	RoleSalesManager,
	RoleDesignTeam,
	RoleProductionTeam,
	RoleSalesTeam,
}

// AllRoles returns the ordered list of known roles.
func AllRoles() []Role {
	cp := make([]Role, len(allRoles))
	copy(cp, allRoles)
	return cp
}

// ParseRole converts a string into a known Role.
func ParseRole(value string) (Role, bool) {
	normalized := Role(normalizeKey(value))
	for _, role := range allRoles {
		if role == normalized {
			return role, true
		}
	}
	return "", false
}

// Label returns a title-cased display name ("Sales Manager").
func (r Role) Label() string {
	return titleLabel(string(r))
}

// Team is a named group of users used as an assignment and recipient unit.
type Team string

const (
	TeamDesign       Team = "design-team"
	TeamProduction   Team = "production-team"
	TeamSales        Team = "sales-team"
	TeamSalesManager Team = "sales-manager"
	TeamManager      Team = "manager"
)

var allTeams = []Team{
	TeamDesign,
	TeamProduction,
	TeamSales,
	TeamSalesManager,
	TeamManager,
}

// AllTeams returns the ordered list of known teams.
func AllTeams() []Team {
	cp := make([]Team, len(allTeams))
	copy(cp, allTeams)
	return cp
}

// ParseTeam converts a string into a known Team.
func ParseTeam(value string) (Team, bool) {
	normalized := Team(normalizeKey(value))
	for _, team := range allTeams {
		if team == normalized {
			return team, true
		}
	}
	return "", false
}

// Label returns a title-cased display name ("Production Team").
func (t Team) Label() string {
	return titleLabel(string(t))
}

// Priority ranks how urgently a job should be handled.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a string into a known Priority. Empty input maps to
// PriorityMedium.
func ParsePriority(value string) (Priority, bool) {
	switch Priority(normalizeKey(value)) {
	case "":
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityUrgent:
		return PriorityUrgent, true
	default:
		return "", false
	}
}

// NoteKind distinguishes free-form comments from system audit entries.
type NoteKind string

const (
	NoteComment      NoteKind = "comment"
	NoteStatusChange NoteKind = "status-change"
)

// ParseNoteKind converts a stored string into a NoteKind.
func ParseNoteKind(value string) (NoteKind, bool) {
	switch NoteKind(normalizeKey(value)) {
	case NoteComment:
		return NoteComment, true
	case NoteStatusChange:
		return NoteStatusChange, true
	default:
		return "", false
	}
}

func normalizeKey(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(normalized, "_", "-")
}

// Casers are stateful, so each call gets its own.
func titleLabel(value string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(value, "-", " "))
}
