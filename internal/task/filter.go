package task

import (
	"slices"
	"time"
)

// Filter narrows a task listing. Empty fields match everything; the due date
// bounds are inclusive and exclude tasks without a due date.
type Filter struct {
	Statuses   []Status
	Priorities []Priority
	Teams      []Team
	DueFrom    *time.Time
	DueTo      *time.Time
}

// Matches reports whether t satisfies every set criterion.
func (f Filter) Matches(t *Task) bool {
	if t == nil {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Teams) > 0 && !slices.Contains(f.Teams, t.AssignedTeam) {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.DueDate == nil {
			return false
		}
		if f.DueFrom != nil && t.DueDate.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.DueDate.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// Patch is a partial edit of a task's descriptive fields. Nil fields are left
// unchanged. Status is carried only so callers that send it can be refused.
type Patch struct {
	Title          *string
	Description    *string
	Client         *Client
	Priority       *Priority
	AssignedTeam   *Team
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedValue *float64
	Specs          *Specifications
	Attachments    []Attachment
	Status         *Status
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Client == nil && p.Priority == nil &&
		p.AssignedTeam == nil && p.DueDate == nil && !p.ClearDueDate && p.EstimatedValue == nil &&
		p.Specs == nil && len(p.Attachments) == 0 && p.Status == nil
}
