// Package notify publishes build results to NATS so other tools can react to
// site rebuilds.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jorgenskogmo/webpub/internal/logfields"
	"github.com/jorgenskogmo/webpub/internal/retry"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "webpub.builds"

// Event is the payload published for every finished build.
type Event struct {
	BuildID    string    `json:"build_id"`
	Site       string    `json:"site"`
	Outcome    string    `json:"outcome"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Pages      int       `json:"pages"`
	Error      string    `json:"error,omitempty"`
}

// Publisher sends build events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("webpub"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher initialized", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: nc, subject: subject, policy: retry.DefaultPolicy()}, nil
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string { return p.subject }

// Publish marshals e and flushes it to the server, retrying transient
// failures with the publisher's backoff policy.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.policy.Do(ctx, func() error {
		if err := p.conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		fctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := p.conn.FlushWithContext(fctx); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("Published build event", logfields.BuildID(e.BuildID), logfields.Outcome(e.Outcome))
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
