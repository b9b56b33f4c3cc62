package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"printflow/internal/logging"
	"printflow/internal/notifications"
	"printflow/internal/policy"
	"printflow/internal/services"
	"printflow/internal/task"
)

// Repository persists tasks. Get returns (nil, nil) when the id is unknown and
// Save never rewrites notes that were already stored.
type Repository interface {
	Get(ctx context.Context, id string) (*task.Task, error)
	Save(ctx context.Context, item *task.Task) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter task.Filter) ([]*task.Task, error)
}

// Directory resolves a team key to its members.
type Directory interface {
	MembersOf(key string) []string
}

// Notifier fans a rendered notification out to recipients.
type Notifier interface {
	Dispatch(ctx context.Context, kind notifications.Kind, recipients []string, c notifications.Context) ([]notifications.Notification, error)
}

// Result describes a committed status change.
type Result struct {
	Task    *task.Task
	Note    task.Note
	Effects []Effect
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides task and note id generation.
func WithIDGenerator(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.newID = next
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "workflow")
	}
}

// Engine is the only component allowed to change a task's status.
type Engine struct {
	repo      Repository
	directory Directory
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	locks     *taskLocks
}

// New wires an engine. notifier may be nil, in which case transitions commit
// without fan-out.
func New(repo Repository, directory Directory, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(nil, "workflow"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		locks:     newTaskLocks(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// CreateTask validates draft and stores a new task in pending-design.
func (e *Engine) CreateTask(ctx context.Context, draft task.Draft, actor task.Actor) (*task.Task, error) {
	item, err := e.buildTask(draft, actor)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(item.ID)
	defer unlock()

	if err := e.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save task %s: %w", item.ID, err)
	}

	ctx = services.WithTaskID(ctx, item.ID)
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("task created",
		logging.String("title", item.Title),
		logging.String("assigned_team", string(item.AssignedTeam)),
		logging.String(logging.FieldActorRole, string(actor.Role)),
	)

	effect := Effect{
		Kind:       notifications.KindTaskAssigned,
		Recipients: dedupeRecipients(e.directory.MembersOf(string(item.AssignedTeam))),
	}
	e.dispatch(ctx, item, effect, "")
	return item.Clone(), nil
}

func (e *Engine) buildTask(draft task.Draft, actor task.Actor) (*task.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, invalidf("", "title is required")
	}
	creator := strings.TrimSpace(actor.ID)
	if creator == "" {
		return nil, invalidf("", "actor id is required")
	}
	team, ok := task.ParseTeam(string(draft.AssignedTeam))
	if !ok {
		return nil, invalidf("", "unknown team %q", draft.AssignedTeam)
	}
	priority, ok := task.ParsePriority(string(draft.Priority))
	if !ok {
		return nil, invalidf("", "unknown priority %q", draft.Priority)
	}
	if draft.EstimatedValue < 0 {
		return nil, invalidf("", "estimated value must be non-negative")
	}
	if draft.Specs.Quantity < 0 {
		return nil, invalidf("", "quantity must be non-negative")
	}

	now := e.now()
	item := &task.Task{
		ID:             e.newID(),
		Title:          title,
		Description:    strings.TrimSpace(draft.Description),
		Client:         draft.Client,
		Priority:       priority,
		Status:         task.StatusPendingDesign,
		AssignedTeam:   team,
		CreatedBy:      creator,
		CreatedAt:      now,
		UpdatedAt:      now,
		EstimatedValue: draft.EstimatedValue,
		Specs:          draft.Specs,
	}
	if draft.DueDate != nil {
		due := draft.DueDate.UTC()
		item.DueDate = &due
	}
	item.Specs.Finishes = append([]string(nil), draft.Specs.Finishes...)
	for _, att := range draft.Attachments {
		if strings.TrimSpace(att.Name) == "" {
			return nil, invalidf("", "attachment name is required")
		}
		if att.ID == "" {
			att.ID = e.newID()
		}
		if att.UploadedAt.IsZero() {
			att.UploadedAt = now
		}
		item.Attachments = append(item.Attachments, att)
	}
	return item, nil
}

// RequestStatusChange moves a task to requested when the actor's role allows
// it. Exactly one status-change note is appended per success. Notification
// failures are logged and never undo the transition.
func (e *Engine) RequestStatusChange(ctx context.Context, taskID string, requested task.Status, actor task.Actor, reason string) (*Result, error) {
	unlock := e.locks.lock(taskID)
	defer unlock()

	ctx = services.WithTaskID(ctx, taskID)
	logger := logging.WithContext(ctx, e.logger)

	item, err := e.repo.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if item == nil {
		return nil, notFound(taskID)
	}

	previous := item.Status
	if !policy.CanTransition(previous, requested, actor.Role) {
		logger.Debug("transition rejected",
			logging.String(logging.FieldEventType, "transition_forbidden"),
			logging.String("from", string(previous)),
			logging.String("to", string(requested)),
			logging.String(logging.FieldActorRole, string(actor.Role)),
		)
		return nil, forbiddenf(taskID, "%s may not move %s to %s", roleName(actor.Role), previous, requested)
	}

	reason = strings.TrimSpace(reason)
	now := e.now()
	item.SetStatus(requested, now)
	note := task.Note{
		ID:         e.newID(),
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName(),
		Message:    statusChangeMessage(previous, requested, reason),
		Kind:       task.NoteStatusChange,
		CreatedAt:  now,
	}
	item.AppendNote(note)

	if err := e.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}

	logger.Info("task status changed",
		logging.String(logging.FieldEventType, "status_changed"),
		logging.String("from", string(previous)),
		logging.String("to", string(requested)),
		logging.String(logging.FieldActorRole, string(actor.Role)),
	)

	result := &Result{Task: item.Clone(), Note: note}
	effect := routeTransition(e.directory, item, previous, requested)
	if e.dispatch(ctx, item, effect, reason) {
		result.Effects = append(result.Effects, effect)
	}
	return result, nil
}

// dispatch runs one post-commit notification effect. It reports whether a
// dispatch was attempted.
func (e *Engine) dispatch(ctx context.Context, item *task.Task, effect Effect, reason string) bool {
	if e.notifier == nil || effect.Kind == "" || len(effect.Recipients) == 0 {
		return false
	}
	_, err := e.notifier.Dispatch(ctx, effect.Kind, effect.Recipients, notifications.Context{
		TaskID:    item.ID,
		TaskTitle: item.Title,
		NewStatus: item.Status.Label(),
		Reason:    reason,
	})
	if err != nil {
		eventType := "notification_dispatch_failed"
		if errors.Is(err, notifications.ErrInvalidTemplate) {
			eventType = "notification_template_missing"
		}
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "notification dispatch failed", eventType,
			logging.String("kind", string(effect.Kind)),
			logging.Int("recipients", len(effect.Recipients)),
			logging.String(logging.FieldErrorHint, "the transition is committed; recipients were not notified"),
			logging.Error(err),
		)
	}
	return true
}

// DeleteTask removes a task unconditionally.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	unlock := e.locks.lock(taskID)
	defer unlock()

	removed, err := e.repo.Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	if !removed {
		return notFound(taskID)
	}
	logging.WithContext(services.WithTaskID(ctx, taskID), e.logger).Info("task deleted")
	return nil
}

// AddComment appends a comment note without touching the status.
func (e *Engine) AddComment(ctx context.Context, taskID string, actor task.Actor, message string) (task.Note, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return task.Note{}, invalidf(taskID, "comment is empty")
	}

	unlock := e.locks.lock(taskID)
	defer unlock()

	item, err := e.repo.Get(ctx, taskID)
	if err != nil {
		return task.Note{}, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if item == nil {
		return task.Note{}, notFound(taskID)
	}

	now := e.now()
	note := task.Note{
		ID:         e.newID(),
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName(),
		Message:    message,
		Kind:       task.NoteComment,
		CreatedAt:  now,
	}
	item.AppendNote(note)
	item.UpdatedAt = now
	if err := e.repo.Save(ctx, item); err != nil {
		return task.Note{}, fmt.Errorf("save task %s: %w", taskID, err)
	}
	return note, nil
}

// UpdateTask applies patch to a task's descriptive fields and bumps its update
// time. Status changes are refused; they go through RequestStatusChange.
// Reassigning the task notifies the members of the new team.
func (e *Engine) UpdateTask(ctx context.Context, taskID string, patch task.Patch, actor task.Actor) (*task.Task, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return nil, invalidf(taskID, "actor id is required")
	}

	unlock := e.locks.lock(taskID)
	defer unlock()

	ctx = services.WithTaskID(ctx, taskID)
	item, err := e.repo.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if item == nil {
		return nil, notFound(taskID)
	}
	if patch.Status != nil && *patch.Status != item.Status {
		return nil, invalidf(taskID, "status cannot be edited; request a status change instead")
	}
	if patch.Empty() {
		return nil, invalidf(taskID, "nothing to update")
	}

	previousTeam := item.AssignedTeam
	changed, err := e.applyPatch(item, patch)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return item.Clone(), nil
	}
	item.UpdatedAt = e.now()
	if err := e.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}

	logging.WithContext(ctx, e.logger).Info("task updated",
		logging.String(logging.FieldEventType, "task_updated"),
		logging.String("fields", strings.Join(changed, ",")),
		logging.String(logging.FieldActorRole, string(actor.Role)),
	)

	if item.AssignedTeam != previousTeam {
		e.dispatch(ctx, item, Effect{
			Kind:       notifications.KindTaskAssigned,
			Recipients: dedupeRecipients(e.directory.MembersOf(string(item.AssignedTeam))),
		}, "")
	}
	return item.Clone(), nil
}

// applyPatch validates and copies patch onto item, returning the names of
// the fields it touched. item is left unchanged on error.
func (e *Engine) applyPatch(item *task.Task, patch task.Patch) ([]string, error) {
	next := item.Clone()
	var changed []string
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalidf(item.ID, "title is required")
		}
		next.Title = title
		changed = append(changed, "title")
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
		changed = append(changed, "description")
	}
	if patch.Client != nil {
		next.Client = *patch.Client
		changed = append(changed, "client")
	}
	if patch.Priority != nil {
		priority, ok := task.ParsePriority(string(*patch.Priority))
		if !ok {
			return nil, invalidf(item.ID, "unknown priority %q", *patch.Priority)
		}
		next.Priority = priority
		changed = append(changed, "priority")
	}
	if patch.AssignedTeam != nil {
		team, ok := task.ParseTeam(string(*patch.AssignedTeam))
		if !ok {
			return nil, invalidf(item.ID, "unknown team %q", *patch.AssignedTeam)
		}
		next.AssignedTeam = team
		changed = append(changed, "assigned_team")
	}
	switch {
	case patch.ClearDueDate:
		next.DueDate = nil
		changed = append(changed, "due_date")
	case patch.DueDate != nil:
		due := patch.DueDate.UTC()
		next.DueDate = &due
		changed = append(changed, "due_date")
	}
	if patch.EstimatedValue != nil {
		if *patch.EstimatedValue < 0 {
			return nil, invalidf(item.ID, "estimated value must be non-negative")
		}
		next.EstimatedValue = *patch.EstimatedValue
		changed = append(changed, "estimated_value")
	}
	if patch.Specs != nil {
		if patch.Specs.Quantity < 0 {
			return nil, invalidf(item.ID, "quantity must be non-negative")
		}
		next.Specs = *patch.Specs
		next.Specs.Finishes = append([]string(nil), patch.Specs.Finishes...)
		changed = append(changed, "specifications")
	}
	if len(patch.Attachments) > 0 {
		now := e.now()
		for _, att := range patch.Attachments {
			if strings.TrimSpace(att.Name) == "" {
				return nil, invalidf(item.ID, "attachment name is required")
			}
			if att.ID == "" {
				att.ID = e.newID()
			}
			if att.UploadedAt.IsZero() {
				att.UploadedAt = now
			}
			next.Attachments = append(next.Attachments, att)
		}
		changed = append(changed, "attachments")
	}
	*item = *next
	return changed, nil
}

// AvailableNextStatuses lists the statuses role may move current to.
func (e *Engine) AvailableNextStatuses(current task.Status, role task.Role) []task.Status {
	return policy.Available(current, role)
}

// Task returns a single task or ErrNotFound.
func (e *Engine) Task(ctx context.Context, taskID string) (*task.Task, error) {
	item, err := e.repo.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if item == nil {
		return nil, notFound(taskID)
	}
	return item, nil
}

// Tasks lists tasks matching filter.
func (e *Engine) Tasks(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	items, err := e.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return items, nil
}

func statusChangeMessage(from, to task.Status, reason string) string {
	msg := fmt.Sprintf("status changed from %q to %q", from.Label(), to.Label())
	if reason != "" {
		msg += " - reason: " + reason
	}
	return msg
}

func roleName(role task.Role) string {
	if role == "" {
		return "unknown role"
	}
	return string(role)
}
