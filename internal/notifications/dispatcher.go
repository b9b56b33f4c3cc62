package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"printflow/internal/logging"
)

// Notification is a rendered message addressed to one recipient.
type Notification struct {
	ID          string
	RecipientID string
	Title       string
	Message     string
	Kind        Kind
	TaskID      string
	Priority    Priority
	Read        bool
	CreatedAt   time.Time
}

// Draft is a pre-rendered notification awaiting an id and timestamp.
type Draft struct {
	RecipientID string
	Title       string
	Message     string
	Kind        Kind
	TaskID      string
	Priority    Priority
}

// Journal persists dispatcher state. Every method is called while the
// dispatcher holds its lock and before the in-memory view changes.
type Journal interface {
	AppendNotifications(ctx context.Context, items []Notification) error
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	ClearNotifications(ctx context.Context) error
	// LoadNotifications returns every stored record, newest first.
	LoadNotifications(ctx context.Context) ([]Notification, error)
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithJournal persists state changes through j.
func WithJournal(j Journal) Option {
	return func(d *Dispatcher) { d.journal = j }
}

// WithOutbox hands every stored notification to o for delivery.
func WithOutbox(o *Outbox) Option {
	return func(d *Dispatcher) { d.outbox = o }
}

// WithRegistry replaces the default template registry.
func WithRegistry(r *Registry) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithIDGenerator overrides notification id generation.
func WithIDGenerator(next func() string) Option {
	return func(d *Dispatcher) {
		if next != nil {
			d.newID = next
		}
	}
}

// Dispatcher owns the notification inbox. unread always equals the number of
// items with Read == false.
type Dispatcher struct {
	logger   *slog.Logger
	registry *Registry
	journal  Journal
	outbox   *Outbox
	now      func() time.Time
	newID    func() string

	mu     sync.Mutex
	items  []Notification
	unread int
}

// NewDispatcher builds an empty dispatcher using the default templates.
func NewDispatcher(logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:   logging.NewComponentLogger(logger, "notifications"),
		registry: DefaultRegistry(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Load replaces the in-memory view with the journal contents.
func (d *Dispatcher) Load(ctx context.Context) error {
	if d.journal == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	items, err := d.journal.LoadNotifications(ctx)
	if err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}
	d.items = items
	d.unread = 0
	for _, item := range items {
		if !item.Read {
			d.unread++
		}
	}
	return nil
}

// Dispatch renders kind once and stores one notification per recipient.
// Recipients are not deduplicated. The returned records are in recipient
// order; the inbox itself is newest first.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, recipients []string, c Context) ([]Notification, error) {
	rendered, err := d.registry.Render(kind, c)
	if err != nil {
		return nil, err
	}
	drafts := make([]Draft, 0, len(recipients))
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" {
			continue
		}
		drafts = append(drafts, Draft{
			RecipientID: recipient,
			Title:       rendered.Title,
			Message:     rendered.Message,
			Kind:        kind,
			TaskID:      c.TaskID,
			Priority:    rendered.Priority,
		})
	}
	return d.store(ctx, drafts)
}

// Add stores a single pre-rendered notification.
func (d *Dispatcher) Add(ctx context.Context, draft Draft) (Notification, error) {
	if strings.TrimSpace(draft.RecipientID) == "" {
		return Notification{}, fmt.Errorf("add notification: recipient is required")
	}
	if draft.Priority == "" {
		draft.Priority = PriorityMedium
	}
	stored, err := d.store(ctx, []Draft{draft})
	if err != nil {
		return Notification{}, err
	}
	return stored[0], nil
}

func (d *Dispatcher) store(ctx context.Context, drafts []Draft) ([]Notification, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	d.mu.Lock()
	created := make([]Notification, 0, len(drafts))
	for _, draft := range drafts {
		created = append(created, Notification{
			ID:          d.newID(),
			RecipientID: strings.TrimSpace(draft.RecipientID),
			Title:       draft.Title,
			Message:     draft.Message,
			Kind:        draft.Kind,
			TaskID:      draft.TaskID,
			Priority:    draft.Priority,
			CreatedAt:   d.now(),
		})
	}
	if d.journal != nil {
		if err := d.journal.AppendNotifications(ctx, created); err != nil {
			d.mu.Unlock()
			return nil, fmt.Errorf("persist notifications: %w", err)
		}
	}
	next := make([]Notification, 0, len(d.items)+len(created))
	for i := len(created) - 1; i >= 0; i-- {
		next = append(next, created[i])
	}
	d.items = append(next, d.items...)
	d.unread += len(created)
	d.mu.Unlock()

	d.logger.Debug("notifications stored",
		logging.String(logging.FieldEventType, "notifications_stored"),
		logging.String("kind", string(created[0].Kind)),
		logging.Int("count", len(created)),
	)

	if d.outbox != nil {
		for _, item := range created {
			d.outbox.Enqueue(item)
		}
	}
	return created, nil
}

// MarkRead flags one notification as read. Unknown or already-read ids are
// ignored.
func (d *Dispatcher) MarkRead(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.indexOf(id)
	if idx < 0 || d.items[idx].Read {
		return nil
	}
	if d.journal != nil {
		if err := d.journal.MarkNotificationRead(ctx, id); err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
	}
	d.items[idx].Read = true
	if d.unread > 0 {
		d.unread--
	}
	return nil
}

// MarkAllRead flags every notification as read.
func (d *Dispatcher) MarkAllRead(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.journal != nil {
		if err := d.journal.MarkAllNotificationsRead(ctx); err != nil {
			return fmt.Errorf("mark all notifications read: %w", err)
		}
	}
	for i := range d.items {
		d.items[i].Read = true
	}
	d.unread = 0
	return nil
}

// Clear removes every notification.
func (d *Dispatcher) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.journal != nil {
		if err := d.journal.ClearNotifications(ctx); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
	}
	d.items = nil
	d.unread = 0
	return nil
}

// List returns a copy of the inbox, newest first. An empty recipient returns
// every record.
func (d *Dispatcher) List(recipient string) []Notification {
	recipient = strings.TrimSpace(recipient)
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Notification, 0, len(d.items))
	for _, item := range d.items {
		if recipient == "" || item.RecipientID == recipient {
			out = append(out, item)
		}
	}
	return out
}

// UnreadCount returns the number of unread notifications.
func (d *Dispatcher) UnreadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unread
}

// UnreadCountFor returns the number of unread notifications for recipient.
func (d *Dispatcher) UnreadCountFor(recipient string) int {
	recipient = strings.TrimSpace(recipient)
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, item := range d.items {
		if item.RecipientID == recipient && !item.Read {
			count++
		}
	}
	return count
}

func (d *Dispatcher) indexOf(id string) int {
	for i, item := range d.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
