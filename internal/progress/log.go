package progress

import (
	"log/slog"
	"sync/atomic"
)

// LogObserver writes progress to slog. Only every n-th improvement is logged
// so long searches over big alphabets don't flood the output; completions
// are always logged.
type LogObserver struct {
	logger *slog.Logger
	every  int64
	seen   atomic.Int64
}

// NewLogObserver logs every n-th improvement; n < 1 means every one.
func NewLogObserver(logger *slog.Logger, every int) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	if every < 1 {
		every = 1
	}
	return &LogObserver{
		logger: logger.With("component", "search-progress"),
		every:  int64(every),
	}
}

func (o *LogObserver) Improved(e ImprovementEvent) {
	if o.seen.Add(1)%o.every != 0 {
		return
	}
	o.logger.Info("improvement",
		"run_id", e.RunID,
		"restart", e.Restart,
		"iteration", e.Iteration,
		"distance", e.Distance,
		"key", e.Key,
	)
}

func (o *LogObserver) Completed(e RunCompletedEvent) {
	o.logger.Info("run completed",
		"run_id", e.RunID,
		"model_id", e.ModelID,
		"best_restart", e.BestRestart,
		"distance", e.Distance,
		"iterations", e.Iterations,
		"accepted", e.Accepted,
		"reason", e.Reason,
		"duration_ms", e.DurationMs,
	)
}
