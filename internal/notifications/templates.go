package notifications

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidTemplate is returned when a kind has no registered template.
var ErrInvalidTemplate = errors.New("notification template not registered")

// Kind identifies a notification template.
type Kind string

const (
	KindTaskAssigned   Kind = "task-assigned"
	KindTaskUpdated    Kind = "task-updated"
	KindApprovalNeeded Kind = "approval-needed"
	KindTaskApproved   Kind = "task-approved"
	KindTaskRejected   Kind = "task-rejected"
	KindTaskCompleted  Kind = "task-completed"
)

// Priority controls how loudly a sink surfaces a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a stored string into a Priority.
func ParsePriority(value string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(value))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium, "":
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	default:
		return "", false
	}
}

// Context carries the event details a template may embed.
type Context struct {
	TaskID    string
	TaskTitle string
	// NewStatus is the human-readable label of the status the task moved to.
	NewStatus string
	Reason    string
}

// Rendered is the output of a template.
type Rendered struct {
	Title    string
	Message  string
	Priority Priority
}

// Template builds the text for one kind.
type Template struct {
	Title    string
	Priority Priority
	Message  func(Context) string
}

// Registry maps kinds to templates. The zero value has no templates.
type Registry struct {
	templates map[Kind]Template
}

// NewRegistry builds a registry from the supplied templates.
func NewRegistry(templates map[Kind]Template) *Registry {
	cp := make(map[Kind]Template, len(templates))
	for kind, tmpl := range templates {
		cp[kind] = tmpl
	}
	return &Registry{templates: cp}
}

// DefaultRegistry returns the templates for every task event kind.
func DefaultRegistry() *Registry {
	return NewRegistry(map[Kind]Template{
		KindTaskAssigned: {
			Title:    "New task assigned",
			Priority: PriorityMedium,
			Message: func(c Context) string {
				return fmt.Sprintf("You have been assigned a new task: %s", c.TaskTitle)
			},
		},
		KindTaskUpdated: {
			Title:    "Task updated",
			Priority: PriorityLow,
			Message: func(c Context) string {
				return fmt.Sprintf("Task %q moved to %s", c.TaskTitle, c.NewStatus)
			},
		},
		KindApprovalNeeded: {
			Title:    "Approval required",
			Priority: PriorityHigh,
			Message: func(c Context) string {
				return fmt.Sprintf("Task %q is waiting for your approval", c.TaskTitle)
			},
		},
		KindTaskApproved: {
			Title:    "Task approved",
			Priority: PriorityMedium,
			Message: func(c Context) string {
				return fmt.Sprintf("Task %q was approved and can go to production", c.TaskTitle)
			},
		},
		KindTaskRejected: {
			Title:    "Task rejected",
			Priority: PriorityHigh,
			Message: func(c Context) string {
				msg := fmt.Sprintf("Task %q was sent back for design changes", c.TaskTitle)
				if reason := strings.TrimSpace(c.Reason); reason != "" {
					msg += ": " + reason
				}
				return msg
			},
		},
		KindTaskCompleted: {
			Title:    "Task completed",
			Priority: PriorityMedium,
			Message: func(c Context) string {
				return fmt.Sprintf("Task %q was delivered to the client", c.TaskTitle)
			},
		},
	})
}

// Render produces the title, message, and priority for kind.
func (r *Registry) Render(kind Kind, c Context) (Rendered, error) {
	if r == nil {
		return Rendered{}, fmt.Errorf("%w: %s", ErrInvalidTemplate, kind)
	}
	tmpl, ok := r.templates[kind]
	if !ok || tmpl.Message == nil {
		return Rendered{}, fmt.Errorf("%w: %s", ErrInvalidTemplate, kind)
	}
	return Rendered{
		Title:    tmpl.Title,
		Message:  tmpl.Message(c),
		Priority: tmpl.Priority,
	}, nil
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	if r == nil {
		return nil
	}
	kinds := make([]Kind, 0, len(r.templates))
	for kind := range r.templates {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}
