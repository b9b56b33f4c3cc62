package api

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"printflow/internal/notifications"
	"printflow/internal/policy"
	"printflow/internal/services"
	"printflow/internal/task"
	"printflow/internal/workflow"
)

// FromTask converts a task to its API representation. now drives the overdue
// flag.
func FromTask(item *task.Task, now time.Time) Task {
	if item == nil {
		return Task{}
	}
	dto := Task{
		ID:             item.ID,
		Title:          item.Title,
		Description:    item.Description,
		Client:         item.Client,
		Priority:       string(item.Priority),
		Status:         string(item.Status),
		StatusLabel:    item.Status.Label(),
		AssignedTeam:   string(item.AssignedTeam),
		CreatedBy:      item.CreatedBy,
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
		Overdue:        item.IsOverdue(now),
		EstimatedValue: item.EstimatedValue,
		Notes:          make([]Note, 0, len(item.Notes)),
		Attachments:    make([]Attachment, 0, len(item.Attachments)),
		Specifications: item.Specs,
	}
	if item.DueDate != nil {
		dto.DueDate = formatTime(*item.DueDate)
	}
	for _, note := range item.Notes {
		dto.Notes = append(dto.Notes, FromNote(note))
	}
	for _, att := range item.Attachments {
		dto.Attachments = append(dto.Attachments, Attachment{
			ID:         att.ID,
			Name:       att.Name,
			URL:        att.URL,
			SizeBytes:  att.SizeBytes,
			UploadedAt: formatTime(att.UploadedAt),
		})
	}
	return dto
}

// FromTasks converts a slice of tasks.
func FromTasks(items []*task.Task, now time.Time) []Task {
	out := make([]Task, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, FromTask(item, now))
	}
	return out
}

// FromNote converts an audit note.
func FromNote(note task.Note) Note {
	return Note{
		ID:         note.ID,
		AuthorID:   note.AuthorID,
		AuthorName: note.AuthorName,
		Message:    note.Message,
		Kind:       string(note.Kind),
		CreatedAt:  formatTime(note.CreatedAt),
	}
}

// FromNotifications converts inbox entries, preserving order.
func FromNotifications(items []notifications.Notification) []Notification {
	out := make([]Notification, 0, len(items))
	for _, n := range items {
		out = append(out, Notification{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Title:       n.Title,
			Message:     n.Message,
			Kind:        string(n.Kind),
			TaskID:      n.TaskID,
			Priority:    string(n.Priority),
			Read:        n.Read,
			CreatedAt:   formatTime(n.CreatedAt),
		})
	}
	return out
}

// FromResult converts a committed transition.
func FromResult(result *workflow.Result, now time.Time) StatusChangeResponse {
	if result == nil {
		return StatusChangeResponse{}
	}
	resp := StatusChangeResponse{
		Task:    FromTask(result.Task, now),
		Note:    FromNote(result.Note),
		Effects: make([]Effect, 0, len(result.Effects)),
	}
	for _, effect := range result.Effects {
		resp.Effects = append(resp.Effects, Effect{
			Kind:       string(effect.Kind),
			Recipients: slices.Clone(effect.Recipients),
		})
	}
	return resp
}

// PolicyRules renders the transition table for every known status, flagging
// rows that no transition from pending-design reaches.
func PolicyRules() []PolicyRule {
	reachable := policy.Reachable()
	statuses := task.AllStatuses()
	out := make([]PolicyRule, 0, len(statuses))
	for _, status := range statuses {
		rule := PolicyRule{
			From:      string(status),
			FromLabel: status.Label(),
			Roles:     []string{},
			Targets:   []string{},
			Reachable: slices.Contains(reachable, status),
		}
		for _, role := range policy.AllowedRoles(status) {
			rule.Roles = append(rule.Roles, string(role))
		}
		for _, next := range policy.NextStatuses(status) {
			rule.Targets = append(rule.Targets, string(next))
		}
		out = append(out, rule)
	}
	return out
}

// ToDraft converts a create request into an engine draft. Team and priority
// strings are passed through for the engine to validate.
func (r CreateTaskRequest) ToDraft() (task.Draft, error) {
	draft := task.Draft{
		Title:          r.Title,
		Description:    r.Description,
		Client:         r.Client,
		Priority:       task.Priority(r.Priority),
		AssignedTeam:   task.Team(r.AssignedTeam),
		EstimatedValue: r.EstimatedValue,
		Specs:          r.Specifications,
	}
	if strings.TrimSpace(r.DueDate) != "" {
		due, err := ParseDueDate(r.DueDate)
		if err != nil {
			return task.Draft{}, err
		}
		draft.DueDate = &due
	}
	attachments, err := toAttachments(r.Attachments)
	if err != nil {
		return task.Draft{}, err
	}
	draft.Attachments = attachments
	return draft, nil
}

// ToPatch converts an update request into an engine patch.
func (r UpdateTaskRequest) ToPatch() (task.Patch, error) {
	patch := task.Patch{
		Title:          r.Title,
		Description:    r.Description,
		Client:         r.Client,
		ClearDueDate:   r.ClearDueDate,
		EstimatedValue: r.EstimatedValue,
		Specs:          r.Specifications,
	}
	if r.Priority != nil {
		priority := task.Priority(*r.Priority)
		patch.Priority = &priority
	}
	if r.AssignedTeam != nil {
		team := task.Team(*r.AssignedTeam)
		patch.AssignedTeam = &team
	}
	if r.Status != nil {
		status, ok := task.ParseStatus(*r.Status)
		if !ok {
			return task.Patch{}, services.Wrap(services.ErrValidation, "parse status", "unknown status "+strings.TrimSpace(*r.Status), nil)
		}
		patch.Status = &status
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		due, err := ParseDueDate(*r.DueDate)
		if err != nil {
			return task.Patch{}, err
		}
		patch.DueDate = &due
	}
	attachments, err := toAttachments(r.Attachments)
	if err != nil {
		return task.Patch{}, err
	}
	patch.Attachments = attachments
	return patch, nil
}

func toAttachments(items []Attachment) ([]task.Attachment, error) {
	var out []task.Attachment
	for _, att := range items {
		converted := task.Attachment{
			ID:        att.ID,
			Name:      att.Name,
			URL:       att.URL,
			SizeBytes: att.SizeBytes,
		}
		if strings.TrimSpace(att.UploadedAt) != "" {
			ts, err := time.Parse(time.RFC3339, att.UploadedAt)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "parse attachment", "uploadedAt must be RFC3339", err)
			}
			converted.UploadedAt = ts.UTC()
		}
		out = append(out, converted)
	}
	return out, nil
}

// ToFilter validates the query strings and builds a repository filter.
func (q TaskQuery) ToFilter() (task.Filter, error) {
	var filter task.Filter
	statuses, err := ParseStatuses(q.Statuses...)
	if err != nil {
		return task.Filter{}, err
	}
	filter.Statuses = statuses
	for _, value := range q.Priorities {
		if strings.TrimSpace(value) == "" {
			continue
		}
		priority, ok := task.ParsePriority(value)
		if !ok {
			return task.Filter{}, services.Wrap(services.ErrValidation, "parse priority", "unknown priority "+strings.TrimSpace(value), nil)
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	for _, value := range q.Teams {
		if strings.TrimSpace(value) == "" {
			continue
		}
		team, ok := task.ParseTeam(value)
		if !ok {
			return task.Filter{}, services.Wrap(services.ErrValidation, "parse team", "unknown team "+strings.TrimSpace(value), nil)
		}
		filter.Teams = append(filter.Teams, team)
	}
	if strings.TrimSpace(q.DueFrom) != "" {
		from, err := parseDayBound(q.DueFrom, false)
		if err != nil {
			return task.Filter{}, err
		}
		filter.DueFrom = &from
	}
	if strings.TrimSpace(q.DueTo) != "" {
		to, err := parseDayBound(q.DueTo, true)
		if err != nil {
			return task.Filter{}, err
		}
		filter.DueTo = &to
	}
	if filter.DueFrom != nil && filter.DueTo != nil && filter.DueTo.Before(*filter.DueFrom) {
		return task.Filter{}, services.Wrap(services.ErrValidation, "parse due range", "dueTo is before dueFrom", nil)
	}
	return filter, nil
}

// Values encodes the query as URL parameters. Repeated keys carry lists.
func (q TaskQuery) Values() url.Values {
	values := url.Values{}
	add := func(key string, items []string) {
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				values.Add(key, item)
			}
		}
	}
	add("status", q.Statuses)
	add("priority", q.Priorities)
	add("team", q.Teams)
	add("dueFrom", []string{q.DueFrom})
	add("dueTo", []string{q.DueTo})
	return values
}

// TaskQueryFromValues reads a query encoded by Values. Comma-separated
// values are split so ?status=a,b and ?status=a&status=b are equivalent.
func TaskQueryFromValues(values url.Values) TaskQuery {
	split := func(key string) []string {
		var out []string
		for _, raw := range values[key] {
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		return out
	}
	return TaskQuery{
		Statuses:   split("status"),
		Priorities: split("priority"),
		Teams:      split("team"),
		DueFrom:    strings.TrimSpace(values.Get("dueFrom")),
		DueTo:      strings.TrimSpace(values.Get("dueTo")),
	}
}

// ParseDueDate accepts RFC3339 timestamps or YYYY-MM-DD dates. Plain dates
// fall due at the end of that day in UTC.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "parse due date", "expected RFC3339 or YYYY-MM-DD", err)
	}
	return day.Add(24*time.Hour - time.Second), nil
}

// parseDayBound parses a due range bound. A plain date starts at midnight
// for the lower bound and ends at the last second of the day for the upper.
func parseDayBound(value string, upper bool) (time.Time, error) {
	if upper {
		return ParseDueDate(value)
	}
	value = strings.TrimSpace(value)
	if day, err := time.Parse(time.DateOnly, value); err == nil {
		return day, nil
	}
	return ParseDueDate(value)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}
