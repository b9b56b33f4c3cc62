package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"printflow/internal/notifications"
	"printflow/internal/store"
	"printflow/internal/task"
	"printflow/internal/testsupport"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	due := time.Date(2026, 2, 1, 17, 0, 0, 0, time.UTC)
	item := testsupport.NewTask("Wedding invitations", task.StatusPendingDesign, task.TeamDesign, "sales-1")
	item.Description = "200 cards, gold foil"
	item.Client = task.Client{Name: "Ada", Phone: "555-0101", Email: "ada@example.com"}
	item.Priority = task.PriorityHigh
	item.DueDate = &due
	item.EstimatedValue = 450.5
	item.Specs = task.Specifications{Quantity: 200, Material: "cotton", Finishes: []string{"foil", "deckle"}}
	item.Attachments = []task.Attachment{{ID: "a-1", Name: "proof.pdf", URL: "https://files.example/proof.pdf", SizeBytes: 1024, UploadedAt: due}}
	item.AppendNote(task.Note{ID: "n-1", AuthorID: "sales-1", AuthorName: "Sam", Message: "client wants gold", Kind: task.NoteComment, CreatedAt: item.CreatedAt})

	if err := st.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected task to be found")
	}
	if got.Title != item.Title || got.Client != item.Client || got.Priority != task.PriorityHigh {
		t.Fatalf("unexpected task fields: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("unexpected due date: %v", got.DueDate)
	}
	if got.Specs.Quantity != 200 || len(got.Specs.Finishes) != 2 {
		t.Fatalf("unexpected specs: %+v", got.Specs)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Name != "proof.pdf" {
		t.Fatalf("unexpected attachments: %+v", got.Attachments)
	}
	if len(got.Notes) != 1 || got.Notes[0].Message != "client wants gold" || got.Notes[0].Kind != task.NoteComment {
		t.Fatalf("unexpected notes: %+v", got.Notes)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := st.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSaveKeepsNotesAppendOnly(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewTask("Banner", task.StatusPendingDesign, task.TeamDesign, "sales-1")
	item.AppendNote(task.Note{ID: "n-1", AuthorID: "u", Message: "first", Kind: task.NoteComment, CreatedAt: item.CreatedAt})
	testsupport.SaveTask(t, st, item)

	item.Notes[0].Message = "rewritten"
	item.AppendNote(task.Note{ID: "n-2", AuthorID: "u", Message: "second", Kind: task.NoteStatusChange, CreatedAt: item.CreatedAt.Add(time.Minute)})
	item.SetStatus(task.StatusInDesign, item.CreatedAt.Add(time.Minute))
	testsupport.SaveTask(t, st, item)

	got, err := st.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != task.StatusInDesign {
		t.Fatalf("expected status update, got %s", got.Status)
	}
	if len(got.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got.Notes))
	}
	if got.Notes[0].Message != "first" || got.Notes[1].Message != "second" {
		t.Fatalf("expected stored notes untouched and ordered, got %+v", got.Notes)
	}
}

func TestListFiltersByStatusAndOrdersByCreation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewTask("First", task.StatusInProduction, task.TeamProduction, "sales-1")
	second := testsupport.NewTask("Second", task.StatusPendingDesign, task.TeamDesign, "sales-1")
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	third := testsupport.NewTask("Third", task.StatusInProduction, task.TeamProduction, "sales-2")
	third.CreatedAt = first.CreatedAt.Add(2 * time.Hour)
	for _, item := range []*task.Task{third, first, second} {
		testsupport.SaveTask(t, st, item)
	}

	all, err := st.List(ctx, task.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Title != "First" || all[2].Title != "Third" {
		t.Fatalf("unexpected order: %v", titles(all))
	}

	producing, err := st.List(ctx, task.Filter{Statuses: []task.Status{task.StatusInProduction}})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(producing) != 2 {
		t.Fatalf("expected 2 in-production tasks, got %v", titles(producing))
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[task.StatusInProduction] != 2 || stats[task.StatusPendingDesign] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestDeleteReportsWhetherRowExisted(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewTask("Stickers", task.StatusPendingDesign, task.TeamDesign, "sales-1")
	item.AppendNote(task.Note{ID: "n-1", AuthorID: "u", Message: "x", Kind: task.NoteComment, CreatedAt: item.CreatedAt})
	testsupport.SaveTask(t, st, item)

	removed, err := st.Delete(ctx, item.ID)
	if err != nil || !removed {
		t.Fatalf("expected delete to remove task, removed=%v err=%v", removed, err)
	}
	removed, err = st.Delete(ctx, item.ID)
	if err != nil || removed {
		t.Fatalf("expected second delete to be a no-op, removed=%v err=%v", removed, err)
	}

	// Recreating with the same note id must succeed once the old notes are gone.
	testsupport.SaveTask(t, st, item)
	got, err := st.Get(ctx, item.ID)
	if err != nil || got == nil || len(got.Notes) != 1 {
		t.Fatalf("unexpected recreated task %+v err=%v", got, err)
	}
}

func TestNotificationJournal(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	d := notifications.NewDispatcher(nil, notifications.WithJournal(st))
	created, err := d.Dispatch(ctx, notifications.KindApprovalNeeded, []string{"manager-1", "manager-2"}, notifications.Context{TaskID: "t-1", TaskTitle: "Menu"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := d.MarkRead(ctx, created[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	loaded, err := st.LoadNotifications(ctx)
	if err != nil {
		t.Fatalf("LoadNotifications: %v", err)
	}
	if len(loaded) != 2 || loaded[0].RecipientID != "manager-2" || loaded[0].Read {
		t.Fatalf("unexpected journal contents: %+v", loaded)
	}
	if !loaded[1].Read || loaded[1].Priority != notifications.PriorityHigh || loaded[1].TaskID != "t-1" {
		t.Fatalf("unexpected first record: %+v", loaded[1])
	}

	reloaded := notifications.NewDispatcher(nil, notifications.WithJournal(st))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.UnreadCount() != 1 {
		t.Fatalf("expected unread 1 after reload, got %d", reloaded.UnreadCount())
	}
	if err := reloaded.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	loaded, err = st.LoadNotifications(ctx)
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected empty journal, got %d err=%v", len(loaded), err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRejectsUnknownPersistedStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	item := testsupport.SaveTask(t, st, testsupport.NewTask("Odd", task.StatusPendingDesign, task.TeamDesign, "sales-1"))

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("UPDATE tasks SET status = 'archived' WHERE id = ?", item.ID); err != nil {
		t.Fatalf("corrupt status: %v", err)
	}
	if _, err := st.Get(context.Background(), item.ID); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestListFiltersByPriorityTeamAndDueRange(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	day := func(d int) *time.Time {
		ts := time.Date(2026, 3, d, 17, 0, 0, 0, time.UTC)
		return &ts
	}

	cards := testsupport.NewTask("Cards", task.StatusInDesign, task.TeamDesign, "sales-1")
	cards.Priority = task.PriorityUrgent
	cards.DueDate = day(5)
	posters := testsupport.NewTask("Posters", task.StatusInProduction, task.TeamProduction, "sales-1")
	posters.Priority = task.PriorityUrgent
	posters.DueDate = day(20)
	posters.CreatedAt = cards.CreatedAt.Add(time.Hour)
	flyers := testsupport.NewTask("Flyers", task.StatusInDesign, task.TeamDesign, "sales-2")
	flyers.CreatedAt = cards.CreatedAt.Add(2 * time.Hour)
	for _, item := range []*task.Task{cards, posters, flyers} {
		testsupport.SaveTask(t, st, item)
	}

	cases := []struct {
		name   string
		filter task.Filter
		want   []string
	}{
		{"priority", task.Filter{Priorities: []task.Priority{task.PriorityUrgent}}, []string{"Cards", "Posters"}},
		{"team", task.Filter{Teams: []task.Team{task.TeamDesign}}, []string{"Cards", "Flyers"}},
		{"priority and team", task.Filter{Priorities: []task.Priority{task.PriorityUrgent}, Teams: []task.Team{task.TeamDesign}}, []string{"Cards"}},
		{"due from", task.Filter{DueFrom: day(10)}, []string{"Posters"}},
		{"due window inclusive", task.Filter{DueFrom: day(5), DueTo: day(20)}, []string{"Cards", "Posters"}},
		{"due to", task.Filter{DueTo: day(6)}, []string{"Cards"}},
	}
	for _, tc := range cases {
		items, err := st.List(ctx, tc.filter)
		if err != nil {
			t.Fatalf("%s: List: %v", tc.name, err)
		}
		got := titles(items)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
			}
		}
		for _, item := range items {
			if !tc.filter.Matches(item) {
				t.Fatalf("%s: store returned %s which the filter rejects", tc.name, item.Title)
			}
		}
	}
}

func titles(items []*task.Task) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}
