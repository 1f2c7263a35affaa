package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
)

const (
	defaultBufferSize = 10000
	defaultBatchSize  = 100
)

// Collector queues events in a buffered channel and publishes them in
// batches from a single goroutine, keyed by run id. The search never blocks
// on Kafka: when the buffer is full the event is dropped and counted.
type Collector struct {
	publisher kafka.Publisher
	metrics   *metrics.Metrics
	batchSize int
	eventCh   chan kafka.Event
	done      chan struct{}
	logger    *slog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewCollector creates a Collector. m may be nil.
func NewCollector(publisher kafka.Publisher, bufferSize int, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Collector{
		publisher: publisher,
		metrics:   m,
		batchSize: defaultBatchSize,
		eventCh:   make(chan kafka.Event, bufferSize),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "progress-collector"),
	}
}

// Start launches the publish loop. When ctx ends, whatever is still
// buffered is published before the loop exits. Calls after the first, or
// after Close, do nothing.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, c.gather(event))
			case <-ctx.Done():
				c.drain()
				return
			}
		}
	}()
	c.logger.Info("progress collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Improved(e ImprovementEvent) {
	c.track(e.RunID, e)
}

func (c *Collector) Completed(e RunCompletedEvent) {
	c.track(e.RunID, e)
}

func (c *Collector) track(key string, value any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- kafka.Event{Key: key, Value: value}:
	default:
		if c.metrics != nil {
			c.metrics.ProgressDropped.Inc()
		}
		c.logger.Warn("progress event dropped (buffer full)", "run_id", key)
	}
}

// Close stops accepting events and waits for the buffer to be published.
// A collector that was never started has nothing to wait for; its buffered
// events are discarded.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}

// gather takes first plus whatever else is already queued, up to a batch.
func (c *Collector) gather(first kafka.Event) []kafka.Event {
	batch := []kafka.Event{first}
	for len(batch) < c.batchSize {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish progress events", "count", len(batch), "error", err)
	}
}

func (c *Collector) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, c.gather(event))
		default:
			return
		}
	}
}
