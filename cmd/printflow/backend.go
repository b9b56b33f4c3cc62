package main

import (
	"context"

	"printflow/internal/api"
	"printflow/internal/daemon"
	"printflow/internal/task"
)

// backend is the set of operations commands need. daemonctl.Client serves it
// over HTTP; localBackend serves it from an in-process runtime.
type backend interface {
	ListTasks(ctx context.Context, query api.TaskQuery) ([]api.Task, error)
	Describe(ctx context.Context, id string) (api.Task, error)
	Create(ctx context.Context, req api.CreateTaskRequest, actor task.Actor) (api.Task, error)
	Update(ctx context.Context, id string, req api.UpdateTaskRequest, actor task.Actor) (api.Task, error)
	Move(ctx context.Context, id string, req api.StatusChangeRequest, actor task.Actor) (api.StatusChangeResponse, error)
	Comment(ctx context.Context, id string, req api.CommentRequest, actor task.Actor) (api.Note, error)
	Delete(ctx context.Context, id string) error
	Next(ctx context.Context, id string, role task.Role) (api.NextStatusesResponse, error)
	Notifications(ctx context.Context, recipient string) (api.NotificationListResponse, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	ClearNotifications(ctx context.Context) error
}

type localBackend struct {
	rt *daemon.Runtime
}

func (b *localBackend) ListTasks(ctx context.Context, query api.TaskQuery) ([]api.Task, error) {
	return b.rt.Tasks.List(ctx, query)
}

func (b *localBackend) Describe(ctx context.Context, id string) (api.Task, error) {
	return b.rt.Tasks.Describe(ctx, id)
}

func (b *localBackend) Create(ctx context.Context, req api.CreateTaskRequest, actor task.Actor) (api.Task, error) {
	return b.rt.Tasks.Create(ctx, req, actor)
}

func (b *localBackend) Update(ctx context.Context, id string, req api.UpdateTaskRequest, actor task.Actor) (api.Task, error) {
	return b.rt.Tasks.Update(ctx, id, req, actor)
}

func (b *localBackend) Move(ctx context.Context, id string, req api.StatusChangeRequest, actor task.Actor) (api.StatusChangeResponse, error) {
	return b.rt.Tasks.Move(ctx, id, req, actor)
}

func (b *localBackend) Comment(ctx context.Context, id string, req api.CommentRequest, actor task.Actor) (api.Note, error) {
	return b.rt.Tasks.Comment(ctx, id, req, actor)
}

func (b *localBackend) Delete(ctx context.Context, id string) error {
	return b.rt.Tasks.Delete(ctx, id)
}

func (b *localBackend) Next(ctx context.Context, id string, role task.Role) (api.NextStatusesResponse, error) {
	return b.rt.Tasks.Next(ctx, id, role)
}

func (b *localBackend) Notifications(_ context.Context, recipient string) (api.NotificationListResponse, error) {
	return b.rt.Inbox.List(recipient), nil
}

func (b *localBackend) MarkRead(ctx context.Context, id string) error {
	return b.rt.Inbox.MarkRead(ctx, id)
}

func (b *localBackend) MarkAllRead(ctx context.Context) error {
	return b.rt.Inbox.MarkAllRead(ctx)
}

func (b *localBackend) ClearNotifications(ctx context.Context) error {
	return b.rt.Inbox.Clear(ctx)
}

func (b *localBackend) Close(ctx context.Context) error {
	return b.rt.Close(ctx)
}
