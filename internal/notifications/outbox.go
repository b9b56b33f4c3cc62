package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"printflow/internal/logging"
)

const (
	defaultOutboxSize      = 64
	defaultDeliveryTimeout = 10 * time.Second
)

// Outbox delivers notifications to sinks on a background goroutine.
// Enqueue never blocks; a full queue drops the delivery.
type Outbox struct {
	logger  *slog.Logger
	sinks   []Sink
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Notification
	done   chan struct{}
}

// NewOutbox starts a delivery worker with a queue of size entries.
func NewOutbox(size int, timeout time.Duration, logger *slog.Logger, sinks ...Sink) *Outbox {
	if size <= 0 {
		size = defaultOutboxSize
	}
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	o := &Outbox{
		logger:  logging.NewComponentLogger(logger, "outbox"),
		sinks:   sinks,
		timeout: timeout,
		queue:   make(chan Notification, size),
		done:    make(chan struct{}),
	}
	go o.run()
	return o
}

// Enqueue schedules n for delivery and reports whether it was accepted.
func (o *Outbox) Enqueue(n Notification) bool {
	if o == nil {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return false
	}
	select {
	case o.queue <- n:
		return true
	default:
		logging.WarnWithContext(o.logger, "notification delivery dropped", "notification_dropped",
			logging.String("notification_id", n.ID),
			logging.String("recipient_id", n.RecipientID),
			logging.String(logging.FieldErrorHint, "increase notifications.outbox_size or check sink latency"),
			logging.String(logging.FieldImpact, "recipient will not receive an out-of-band alert"),
		)
		return false
	}
}

// Close stops accepting work and waits for queued deliveries to finish or
// for ctx to expire.
func (o *Outbox) Close(ctx context.Context) error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Outbox) run() {
	defer close(o.done)
	for n := range o.queue {
		for _, sink := range o.sinks {
			o.deliver(sink, n)
		}
	}
}

func (o *Outbox) deliver(sink Sink, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := sink.Deliver(ctx, n); err != nil {
		logging.WarnWithContext(o.logger, "notification delivery failed", "notification_failed",
			logging.String("notification_id", n.ID),
			logging.String("recipient_id", n.RecipientID),
			logging.String("kind", string(n.Kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ntfy topic and network connectivity"),
			logging.String(logging.FieldImpact, "notification stored but not pushed"),
		)
	}
}
