// Package jobs runs decrypt requests that arrive on Kafka and publishes
// their results back to Kafka.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/decipher"
	apperrors "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/resilience"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is a decrypt request with a caller-chosen id.
type Job struct {
	JobID string `json:"job_id"`
	decipher.DecryptRequest
}

// Result is published for every job that was run or rejected.
type Result struct {
	JobID  string `json:"job_id"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	*decipher.DecryptResponse
}

type Decrypter interface {
	Decrypt(ctx context.Context, req decipher.DecryptRequest) (*decipher.DecryptResponse, error)
}

type Option func(*options)

type options struct {
	retry resilience.RetryConfig
}

// WithRetry sets how often a job that fails with a server-side error is run
// again before it is reported as failed. Publishing the result uses the same
// schedule.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// HandleMessage returns a MessageHandler that decodes a Job, runs it and
// publishes a Result keyed by job id.
//
// Undecodable messages are logged and skipped. Jobs the service rejects as
// invalid get a failed Result at once. Other failures are retried in place;
// when the retries run out the job gets a failed Result too, so every
// decodable job produces exactly one Result. An error is returned only when
// the Result itself cannot be published or ctx ends.
func HandleMessage(svc Decrypter, results kafka.Publisher, m *metrics.Metrics, opts ...Option) kafka.MessageHandler {
	o := options{retry: resilience.RetryConfig{MaxAttempts: 3}}
	for _, opt := range opts {
		opt(&o)
	}
	log := slog.Default().With("component", "decrypt-jobs")
	count := func(status string) {
		if m != nil {
			m.JobsProcessedTotal.WithLabelValues(status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		job, err := kafka.DecodeJSON[Job](value)
		if err != nil {
			log.Error("failed to decode decrypt job", "key", string(key), "error", err)
			count("malformed")
			return nil
		}
		if job.JobID == "" {
			job.JobID = string(key)
		}
		ctx = logger.WithRequestID(ctx, job.JobID)

		var resp *decipher.DecryptResponse
		err = resilience.Retry(ctx, "decrypt-job", o.retry, func() error {
			r, err := svc.Decrypt(ctx, job.DecryptRequest)
			if err != nil {
				if isClientError(err) {
					return resilience.Permanent(err)
				}
				return err
			}
			resp = r
			return nil
		})

		var result Result
		switch {
		case err == nil:
			count(string(StatusSucceeded))
			log.Info("decrypt job finished",
				"job_id", job.JobID,
				"run_id", resp.RunID,
				"distance", resp.Distance,
				"reason", resp.Reason,
			)
			result = Result{JobID: job.JobID, Status: StatusSucceeded, DecryptResponse: resp}
		case isClientError(err):
			log.Warn("decrypt job rejected", "job_id", job.JobID, "error", err)
			count(string(StatusFailed))
			result = Result{JobID: job.JobID, Status: StatusFailed, Error: message(err)}
		case ctx.Err() != nil:
			return fmt.Errorf("job %s interrupted: %w", job.JobID, err)
		default:
			log.Error("decrypt job failed", "job_id", job.JobID, "error", err)
			count("error")
			result = Result{JobID: job.JobID, Status: StatusFailed, Error: "internal error"}
		}
		return resilience.Retry(ctx, "publish-result", o.retry, func() error {
			return publish(ctx, results, result)
		})
	}
}

func publish(ctx context.Context, results kafka.Publisher, r Result) error {
	if err := results.Publish(ctx, kafka.Event{Key: r.JobID, Value: r}); err != nil {
		return fmt.Errorf("publishing result for job %s: %w", r.JobID, err)
	}
	return nil
}

func isClientError(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidInput) || errors.Is(err, apperrors.ErrNotFound)
}

func message(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
