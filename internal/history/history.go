// Package history persists a record of every build for the dev server's
// /api/builds endpoint.
package history

import (
	"context"
	"time"
)

// Record describes one finished build cycle.
type Record struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Outcome    string        `json:"outcome"`
	Trigger    string        `json:"trigger"`
	Pages      int           `json:"pages"`
	Error      string        `json:"error,omitempty"`
	ContentSum string        `json:"content_sum,omitempty"`
}

// Store keeps build records.
type Store interface {
	Record(ctx context.Context, r Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Record(context.Context, Record) error { return nil }
func (NopStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }
func (NopStore) Close() error { return nil }
