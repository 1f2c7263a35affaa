// Package progress reports what a key search is doing while it runs: every
// accepted improvement and every finished run, to the log and to Kafka.
package progress

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/hillclimb"
)

type EventType string

const (
	EventImprovement  EventType = "improvement"
	EventRunCompleted EventType = "run_completed"
)

// ImprovementEvent is emitted each time a restart accepts a better key.
type ImprovementEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Restart   int       `json:"restart"`
	Iteration int64     `json:"iteration"`
	Distance  float64   `json:"distance"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

// RunCompletedEvent is emitted once per decrypt request.
type RunCompletedEvent struct {
	Type        EventType        `json:"type"`
	RunID       string           `json:"run_id"`
	ModelID     string           `json:"model_id"`
	BestRestart int              `json:"best_restart"`
	Distance    float64          `json:"distance"`
	Iterations  int64            `json:"iterations"`
	Accepted    int64            `json:"accepted"`
	Reason      hillclimb.Reason `json:"reason"`
	DurationMs  int64            `json:"duration_ms"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Reporter consumes progress events. Implementations must be safe for
// concurrent use: restarts report from their own goroutines.
type Reporter interface {
	Improved(ImprovementEvent)
	Completed(RunCompletedEvent)
}

// Observer adapts r to the search's observer hook for one restart of a run.
func Observer(r Reporter, runID string, restart int) hillclimb.Observer {
	return hillclimb.ObserverFunc(func(imp hillclimb.Improvement) {
		r.Improved(ImprovementEvent{
			Type:      EventImprovement,
			RunID:     runID,
			Restart:   restart,
			Iteration: imp.Iteration,
			Distance:  imp.Distance,
			Key:       imp.Key.String(),
			Timestamp: time.Now().UTC(),
		})
	})
}

type multi []Reporter

// Multi fans every event out to all reporters in order. Nil reporters are
// skipped.
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Improved(e ImprovementEvent) {
	for _, r := range m {
		r.Improved(e)
	}
}

func (m multi) Completed(e RunCompletedEvent) {
	for _, r := range m {
		r.Completed(e)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Improved(ImprovementEvent)   {}
func (Nop) Completed(RunCompletedEvent) {}
