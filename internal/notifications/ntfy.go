package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "PrintFlow-Go/0.1.0"

// NtfySink publishes notifications to an ntfy topic URL.
type NtfySink struct {
	endpoint string
	client   *http.Client
}

// NewNtfySink builds a sink for topic. It returns nil when topic is empty so
// callers can skip registration.
func NewNtfySink(topic string, timeout time.Duration) *NtfySink {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NtfySink{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

func (s *NtfySink) Deliver(ctx context.Context, n Notification) error {
	data := payload{
		title:   n.Title,
		message: n.Message,
		tags:    []string{"printflow", string(n.Kind)},
	}
	switch n.Priority {
	case PriorityHigh:
		data.priority = "high"
		data.tags = append(data.tags, "rotating_light")
	case PriorityLow:
		data.priority = "low"
	}
	if n.RecipientID != "" {
		data.message = fmt.Sprintf("@%s %s", n.RecipientID, data.message)
	}
	return s.send(ctx, data)
}

// Test sends a low-priority probe message.
func (s *NtfySink) Test(ctx context.Context) error {
	return s.send(ctx, payload{
		title:    "PrintFlow - Test",
		message:  "Notification system test",
		tags:     []string{"printflow", "test"},
		priority: "low",
	})
}

func (s *NtfySink) send(ctx context.Context, data payload) error {
	if s == nil || s.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
