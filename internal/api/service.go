package api

import (
	"context"
	"strings"
	"time"

	"printflow/internal/notifications"
	"printflow/internal/services"
	"printflow/internal/task"
	"printflow/internal/workflow"
)

// ParseActor validates caller identity supplied at a transport boundary.
func ParseActor(id, name, role string) (task.Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return task.Actor{}, services.Wrap(services.ErrValidation, "parse actor", "actor id is required", nil)
	}
	parsed, ok := task.ParseRole(role)
	if !ok {
		return task.Actor{}, services.Wrap(services.ErrValidation, "parse actor", "unknown role "+strings.TrimSpace(role), nil)
	}
	return task.Actor{ID: id, Name: strings.TrimSpace(name), Role: parsed}, nil
}

// ParseStatuses converts status filter strings. Blank entries are ignored.
func ParseStatuses(values ...string) ([]task.Status, error) {
	out := make([]task.Status, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := task.ParseStatus(value)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "parse status", "unknown status "+strings.TrimSpace(value), nil)
		}
		out = append(out, status)
	}
	return out, nil
}

// TaskService exposes engine operations returning API DTOs.
type TaskService struct {
	engine *workflow.Engine
	now    func() time.Time
}

// NewTaskService constructs a TaskService around engine.
func NewTaskService(engine *workflow.Engine) *TaskService {
	if engine == nil {
		return nil
	}
	return &TaskService{engine: engine, now: func() time.Time { return time.Now().UTC() }}
}

// List returns tasks matching query.
func (s *TaskService) List(ctx context.Context, query TaskQuery) ([]Task, error) {
	filter, err := query.ToFilter()
	if err != nil {
		return nil, err
	}
	items, err := s.engine.Tasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromTasks(items, s.now()), nil
}

// Describe fetches a single task.
func (s *TaskService) Describe(ctx context.Context, id string) (Task, error) {
	item, err := s.engine.Task(ctx, id)
	if err != nil {
		return Task{}, err
	}
	return FromTask(item, s.now()), nil
}

// Create stores a new task on behalf of actor.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest, actor task.Actor) (Task, error) {
	draft, err := req.ToDraft()
	if err != nil {
		return Task{}, err
	}
	item, err := s.engine.CreateTask(ctx, draft, actor)
	if err != nil {
		return Task{}, err
	}
	return FromTask(item, s.now()), nil
}

// Update edits a task's descriptive fields.
func (s *TaskService) Update(ctx context.Context, id string, req UpdateTaskRequest, actor task.Actor) (Task, error) {
	patch, err := req.ToPatch()
	if err != nil {
		return Task{}, err
	}
	item, err := s.engine.UpdateTask(ctx, id, patch, actor)
	if err != nil {
		return Task{}, err
	}
	return FromTask(item, s.now()), nil
}

// Move requests a status change.
func (s *TaskService) Move(ctx context.Context, id string, req StatusChangeRequest, actor task.Actor) (StatusChangeResponse, error) {
	status, ok := task.ParseStatus(req.Status)
	if !ok {
		return StatusChangeResponse{}, services.Wrap(services.ErrValidation, "parse status", "unknown status "+strings.TrimSpace(req.Status), nil)
	}
	result, err := s.engine.RequestStatusChange(ctx, id, status, actor, req.Reason)
	if err != nil {
		return StatusChangeResponse{}, err
	}
	return FromResult(result, s.now()), nil
}

// Comment appends a comment note.
func (s *TaskService) Comment(ctx context.Context, id string, req CommentRequest, actor task.Actor) (Note, error) {
	note, err := s.engine.AddComment(ctx, id, actor, req.Message)
	if err != nil {
		return Note{}, err
	}
	return FromNote(note), nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.engine.DeleteTask(ctx, id)
}

// Next lists the statuses role may move the task to.
func (s *TaskService) Next(ctx context.Context, id string, role task.Role) (NextStatusesResponse, error) {
	item, err := s.engine.Task(ctx, id)
	if err != nil {
		return NextStatusesResponse{}, err
	}
	resp := NextStatusesResponse{
		TaskID: item.ID,
		Status: string(item.Status),
		Role:   string(role),
		Next:   []string{},
	}
	for _, next := range s.engine.AvailableNextStatuses(item.Status, role) {
		resp.Next = append(resp.Next, string(next))
	}
	return resp, nil
}

// Policy returns the transition table.
func (s *TaskService) Policy() []PolicyRule {
	return PolicyRules()
}

// NotificationService exposes the dispatcher inbox.
type NotificationService struct {
	dispatcher *notifications.Dispatcher
}

// NewNotificationService wraps d.
func NewNotificationService(d *notifications.Dispatcher) *NotificationService {
	if d == nil {
		return nil
	}
	return &NotificationService{dispatcher: d}
}

// List returns inbox entries newest first. An empty recipient lists all.
func (s *NotificationService) List(recipient string) NotificationListResponse {
	recipient = strings.TrimSpace(recipient)
	unread := s.dispatcher.UnreadCount()
	if recipient != "" {
		unread = s.dispatcher.UnreadCountFor(recipient)
	}
	return NotificationListResponse{
		Items:  FromNotifications(s.dispatcher.List(recipient)),
		Unread: unread,
	}
}

// MarkRead flags a single notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.dispatcher.MarkRead(ctx, id)
}

// MarkAllRead flags every notification as read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.dispatcher.MarkAllRead(ctx)
}

// Clear empties the inbox.
func (s *NotificationService) Clear(ctx context.Context) error {
	return s.dispatcher.Clear(ctx)
}

// Unread returns the total unread count.
func (s *NotificationService) Unread() int {
	return s.dispatcher.UnreadCount()
}
