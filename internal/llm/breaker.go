package llm

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings tunes the circuit breaker around a reasoning client.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe is allowed.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: time.Minute}
}

// BreakerClient stops calling a reasoning service that keeps failing. While
// open, every call fails fast with ErrReasoningServiceUnavailable so a cycle
// is not slowed by one timeout per live hypothesis.
type BreakerClient struct {
	next domain.ReasoningClient
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerClient(next domain.ReasoningClient, s BreakerSettings, logger *zap.Logger) *BreakerClient {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}
	st := gobreaker.Settings{
		Name:        "reasoning",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// A malformed answer still means the service is reachable.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrMalformedVerdict)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("reasoning circuit breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerClient{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerClient) Assess(ctx context.Context, h domain.Hypothesis, batch *domain.ObservationBatch) (domain.ReasoningVerdict, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Assess(ctx, h, batch)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.ReasoningVerdict{}, errors.Join(domain.ErrReasoningServiceUnavailable, err)
	}
	if err != nil {
		return domain.ReasoningVerdict{}, err
	}
	return out.(domain.ReasoningVerdict), nil
}

// State reports the breaker state for health output.
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
