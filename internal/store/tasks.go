package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"printflow/internal/task"
)

// Get fetches a task and its notes. It returns nil, nil when no task has id.
func (s *Store) Get(ctx context.Context, id string) (*task.Task, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	item, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	notes, err := s.notesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	item.Notes = notes[id]
	return item, nil
}

// Save upserts the task row and inserts any notes not yet stored. Stored
// notes are never rewritten.
func (s *Store) Save(ctx context.Context, item *task.Task) error {
	if item == nil {
		return errors.New("task is nil")
	}
	if item.ID == "" {
		return errors.New("task id is required")
	}
	attachments, err := encodeJSON(item.Attachments, len(item.Attachments) == 0)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	specs, err := encodeJSON(item.Specs, isZeroSpecs(item.Specs))
	if err != nil {
		return fmt.Errorf("encode specs: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                title = excluded.title,
                description = excluded.description,
                client_name = excluded.client_name,
                client_phone = excluded.client_phone,
                client_email = excluded.client_email,
                priority = excluded.priority,
                status = excluded.status,
                assigned_team = excluded.assigned_team,
                updated_at = excluded.updated_at,
                due_date = excluded.due_date,
                estimated_value = excluded.estimated_value,
                attachments_json = excluded.attachments_json,
                specs_json = excluded.specs_json`,
			item.ID,
			item.Title,
			nullableString(item.Description),
			nullableString(item.Client.Name),
			nullableString(item.Client.Phone),
			nullableString(item.Client.Email),
			string(item.Priority),
			string(item.Status),
			string(item.AssignedTeam),
			item.CreatedBy,
			formatTime(item.CreatedAt),
			formatTime(item.UpdatedAt),
			nullableTime(item.DueDate),
			item.EstimatedValue,
			attachments,
			specs,
		); err != nil {
			return fmt.Errorf("upsert task: %w", err)
		}
		for _, note := range item.Notes {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO task_notes (`+noteColumns+`)
                VALUES (?, ?, ?, ?, ?, ?, ?)`,
				note.ID,
				item.ID,
				note.AuthorID,
				nullableString(note.AuthorName),
				note.Message,
				string(note.Kind),
				formatTime(note.CreatedAt),
			); err != nil {
				return fmt.Errorf("insert note %s: %w", note.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save task %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes a task and its notes, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_notes WHERE task_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return removed, nil
}

// List returns tasks matching filter, ordered by creation time.
func (s *Store) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	in := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		clauses = append(clauses, column+` IN (`+makePlaceholders(len(values))+`)`)
		for _, v := range values {
			args = append(args, v)
		}
	}
	in("status", stringsOf(filter.Statuses))
	in("priority", stringsOf(filter.Priorities))
	in("assigned_team", stringsOf(filter.Teams))
	if filter.DueFrom != nil {
		clauses = append(clauses, `due_date >= ?`)
		args = append(args, formatTime(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		clauses = append(clauses, `due_date <= ?`)
		args = append(args, formatTime(*filter.DueTo))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var (
		items []*task.Task
		ids   []string
	)
	for rows.Next() {
		item, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	rows.Close()

	notes, err := s.notesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		item.Notes = notes[item.ID]
	}
	return items, nil
}

// Stats returns a count of tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[task.Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[task.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[task.Status(status)] = count
	}
	return stats, rows.Err()
}

func (s *Store) notesFor(ctx context.Context, ids []string) (map[string][]task.Note, error) {
	out := make(map[string][]task.Note, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM task_notes WHERE task_id IN (`+makePlaceholders(len(ids))+`) ORDER BY seq`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		taskID, note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out[taskID] = append(out[taskID], note)
	}
	return out, rows.Err()
}

func isZeroSpecs(specs task.Specifications) bool {
	return specs.Quantity == 0 && specs.Size == "" && specs.Material == "" &&
		specs.ColorProfile == "" && len(specs.Finishes) == 0 && specs.Instructions == ""
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
