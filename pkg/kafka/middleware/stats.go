package kafka_middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"yxplore/pkg/kafka"
)

// PublishStats counts domain event publishes for one producer.
type PublishStats struct {
	published     atomic.Int64
	failed        atomic.Int64
	durationNanos atomic.Int64

	mu           sync.Mutex
	failedByType map[string]int64
}

func NewPublishStats() *PublishStats {
	return &PublishStats{failedByType: make(map[string]int64)}
}

func (s *PublishStats) Middleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		s.durationNanos.Add(int64(time.Since(start)))

		if err == nil {
			s.published.Add(1)
			return nil
		}
		s.failed.Add(1)
		s.mu.Lock()
		s.failedByType[msg.GetEventType()]++
		s.mu.Unlock()
		return err
	}
}

func (s *PublishStats) Published() int64 { return s.published.Load() }

func (s *PublishStats) Failed() int64 { return s.failed.Load() }

// AvgDuration covers successful and failed attempts alike.
func (s *PublishStats) AvgDuration() time.Duration {
	n := s.published.Load() + s.failed.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(s.durationNanos.Load() / n)
}

// FailedByType returns a copy of the failure count per event type.
func (s *PublishStats) FailedByType() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.failedByType))
	for k, v := range s.failedByType {
		out[k] = v
	}
	return out
}

// LogAttrs renders the counters as slog key/value pairs.
func (s *PublishStats) LogAttrs() []any {
	return []any{
		"published", s.Published(),
		"failed", s.Failed(),
		"avg_duration_ms", s.AvgDuration().Milliseconds(),
		"failed_by_type", s.FailedByType(),
	}
}
