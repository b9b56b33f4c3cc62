package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"printflow/internal/task"
)

const taskColumns = "id, title, description, client_name, client_phone, client_email, priority, status, assigned_team, created_by, created_at, updated_at, due_date, estimated_value, attachments_json, specs_json"

const noteColumns = "id, task_id, author_id, author_name, message, kind, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(scanner rowScanner) (*task.Task, error) {
	var (
		id, title, priorityRaw, statusRaw, teamRaw, createdBy string
		createdRaw, updatedRaw                                string
		description, clientName, clientPhone, clientEmail     sql.NullString
		dueRaw, attachmentsRaw, specsRaw                      sql.NullString
		estimated                                             float64
	)
	if err := scanner.Scan(
		&id,
		&title,
		&description,
		&clientName,
		&clientPhone,
		&clientEmail,
		&priorityRaw,
		&statusRaw,
		&teamRaw,
		&createdBy,
		&createdRaw,
		&updatedRaw,
		&dueRaw,
		&estimated,
		&attachmentsRaw,
		&specsRaw,
	); err != nil {
		return nil, err
	}

	status, ok := task.ParseStatus(statusRaw)
	if !ok {
		return nil, fmt.Errorf("task %s: unknown status %q", id, statusRaw)
	}
	priority, ok := task.ParsePriority(priorityRaw)
	if !ok {
		return nil, fmt.Errorf("task %s: unknown priority %q", id, priorityRaw)
	}
	team, ok := task.ParseTeam(teamRaw)
	if !ok {
		return nil, fmt.Errorf("task %s: unknown team %q", id, teamRaw)
	}

	item := &task.Task{
		ID:          id,
		Title:       title,
		Description: description.String,
		Client: task.Client{
			Name:  clientName.String,
			Phone: clientPhone.String,
			Email: clientEmail.String,
		},
		Priority:       priority,
		Status:         status,
		AssignedTeam:   team,
		CreatedBy:      createdBy,
		EstimatedValue: estimated,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	if dueRaw.Valid {
		if due, err := parseTimeString(dueRaw.String); err == nil {
			item.DueDate = &due
		}
	}
	if attachmentsRaw.String != "" {
		if err := json.Unmarshal([]byte(attachmentsRaw.String), &item.Attachments); err != nil {
			return nil, fmt.Errorf("task %s: decode attachments: %w", id, err)
		}
	}
	if specsRaw.String != "" {
		if err := json.Unmarshal([]byte(specsRaw.String), &item.Specs); err != nil {
			return nil, fmt.Errorf("task %s: decode specs: %w", id, err)
		}
	}
	return item, nil
}

func scanNote(scanner rowScanner) (string, task.Note, error) {
	var (
		note            task.Note
		taskID, kindRaw string
		createdRaw      string
		authorName      sql.NullString
	)
	if err := scanner.Scan(&note.ID, &taskID, &note.AuthorID, &authorName, &note.Message, &kindRaw, &createdRaw); err != nil {
		return "", task.Note{}, err
	}
	kind, ok := task.ParseNoteKind(kindRaw)
	if !ok {
		return "", task.Note{}, fmt.Errorf("note %s: unknown kind %q", note.ID, kindRaw)
	}
	note.Kind = kind
	note.AuthorName = authorName.String
	if created, err := parseTimeString(createdRaw); err == nil {
		note.CreatedAt = created
	}
	return taskID, note, nil
}

func encodeJSON(value any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// Fixed-width fractions keep lexical ORDER BY consistent with time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(storedTimeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
