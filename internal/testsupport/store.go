package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"printflow/internal/config"
	"printflow/internal/store"
	"printflow/internal/task"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewTask builds a task in status owned by creator without persisting it.
func NewTask(title string, status task.Status, team task.Team, creator string) *task.Task {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return &task.Task{
		ID:           uuid.NewString(),
		Title:        title,
		Priority:     task.PriorityMedium,
		Status:       status,
		AssignedTeam: team,
		CreatedBy:    creator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SaveTask persists item through repo and fails the test on error.
func SaveTask(t testing.TB, repo interface {
	Save(context.Context, *task.Task) error
}, item *task.Task) *task.Task {
	t.Helper()

	if err := repo.Save(context.Background(), item); err != nil {
		t.Fatalf("save task: %v", err)
	}
	return item
}
