package testsupport

import (
	"context"
	"errors"
	"slices"
	"sync"

	"printflow/internal/notifications"
	"printflow/internal/task"
)

// MemoryRepository is an in-memory task repository that stores deep copies.
type MemoryRepository struct {
	mu      sync.Mutex
	tasks   map[string]*task.Task
	order   []string
	saves   int
	SaveErr error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]*task.Task)}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return item.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, item *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	if item == nil {
		return errors.New("task is nil")
	}
	if _, exists := r.tasks[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	r.tasks[item.ID] = item.Clone()
	r.saves++
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return true, nil
}

func (r *MemoryRepository) List(_ context.Context, filter task.Filter) ([]*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*task.Task, 0, len(r.order))
	for _, id := range r.order {
		item := r.tasks[id]
		if !filter.Matches(item) {
			continue
		}
		out = append(out, item.Clone())
	}
	return out, nil
}

// Saves reports how many successful Save calls were made.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// RecordingSink captures delivered notifications.
type RecordingSink struct {
	mu    sync.Mutex
	items []notifications.Notification
	Err   error
}

func (s *RecordingSink) Deliver(_ context.Context, n notifications.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
	return s.Err
}

// Delivered returns a copy of everything delivered so far.
func (s *RecordingSink) Delivered() []notifications.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifications.Notification(nil), s.items...)
}
