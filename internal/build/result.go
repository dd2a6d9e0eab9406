package build

import (
	"time"

	"github.com/jorgenskogmo/webpub/internal/history"
)

// Outcome of a RunBuild call.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// What requested a build.
const (
	TriggerInitial  = "initial"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Result describes one RunBuild call. Skipped results carry only Outcome and
// Trigger.
type Result struct {
	ID         string
	Outcome    Outcome
	Trigger    string
	StartedAt  time.Time
	Duration   time.Duration
	Pages      int
	Orphans    []string
	ContentSum string
	Err        error
}

// Record converts the result into a history record.
func (r Result) Record() history.Record {
	rec := history.Record{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		Duration:   r.Duration,
		Outcome:    string(r.Outcome),
		Trigger:    r.Trigger,
		Pages:      r.Pages,
		ContentSum: r.ContentSum,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// Status is the coordinator state served on /api/status.
type Status struct {
	Site        string          `json:"site"`
	Building    bool            `json:"building"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Builds      int64           `json:"builds"`
	Last        *history.Record `json:"last,omitempty"`
}
