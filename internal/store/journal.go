package store

import (
	"context"
	"database/sql"
	"fmt"

	"printflow/internal/notifications"
)

const notificationColumns = "id, recipient_id, title, message, kind, task_id, priority, is_read, created_at"

var _ notifications.Journal = (*Store)(nil)

// AppendNotifications inserts dispatcher records in the order given.
func (s *Store) AppendNotifications(ctx context.Context, items []notifications.Notification) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, n := range items {
			if _, err := tx.ExecContext(ctx, `INSERT INTO notifications (`+notificationColumns+`)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				n.ID,
				n.RecipientID,
				n.Title,
				n.Message,
				string(n.Kind),
				nullableString(n.TaskID),
				string(n.Priority),
				boolToInt(n.Read),
				formatTime(n.CreatedAt),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append notifications: %w", err)
	}
	return nil
}

// MarkNotificationRead flags one journal record as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead flags every journal record as read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.execWithRetry(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// ClearNotifications deletes the journal.
func (s *Store) ClearNotifications(ctx context.Context) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM notifications`); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// LoadNotifications returns every journal record, newest first.
func (s *Store) LoadNotifications(ctx context.Context) ([]notifications.Notification, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+notificationColumns+` FROM notifications ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	defer rows.Close()

	var out []notifications.Notification
	for rows.Next() {
		var (
			n              notifications.Notification
			kind, priority string
			taskID         sql.NullString
			read           int
			createdRaw     string
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &kind, &taskID, &priority, &read, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = notifications.Kind(kind)
		if p, ok := notifications.ParsePriority(priority); ok {
			n.Priority = p
		}
		n.TaskID = taskID.String
		n.Read = read != 0
		if created, err := parseTimeString(createdRaw); err == nil {
			n.CreatedAt = created
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
