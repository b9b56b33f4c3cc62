package notifications

import (
	"context"
	"log/slog"

	"printflow/internal/logging"
)

// Sink delivers a stored notification out of band. Delivery is best effort.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogSink writes each notification as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds a LogSink on top of logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logging.NewComponentLogger(logger, "notify-log")}
}

func (s *LogSink) Deliver(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	if n.Priority == PriorityLow {
		level = slog.LevelDebug
	}
	s.logger.Log(ctx, level, n.Title,
		logging.String(logging.FieldEventType, "notification_delivered"),
		logging.String("notification_id", n.ID),
		logging.String("recipient_id", n.RecipientID),
		logging.String("kind", string(n.Kind)),
		logging.String("priority", string(n.Priority)),
		logging.String(logging.FieldTaskID, n.TaskID),
		logging.String("message", n.Message),
	)
	return nil
}
