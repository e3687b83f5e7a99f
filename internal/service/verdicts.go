package service

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultReasoningTimeout = 20 * time.Second

// VerdictCollector asks the reasoning service about every live hypothesis the
// batch has no verdict for. It never fails a cycle: errors become INCONCLUSIVE.
type VerdictCollector struct {
	client  domain.ReasoningClient
	timeout time.Duration
	metrics domain.MetricsRecorder
	logger  *zap.Logger
}

func NewVerdictCollector(client domain.ReasoningClient, timeout time.Duration, logger *zap.Logger) *VerdictCollector {
	if timeout <= 0 {
		timeout = defaultReasoningTimeout
	}
	return &VerdictCollector{client: client, timeout: timeout, metrics: nopMetrics{}, logger: logger}
}

func (c *VerdictCollector) SetMetrics(m domain.MetricsRecorder) {
	c.metrics = m
}

// Collect returns a copy of the batch with verdicts filled in, plus the
// hypotheses whose verdict fell back to INCONCLUSIVE because of a failure.
func (c *VerdictCollector) Collect(ctx context.Context, prev *domain.Snapshot, batch *domain.ObservationBatch) (*domain.ObservationBatch, []uuid.UUID) {
	out := *batch
	out.Verdicts = make(map[uuid.UUID]domain.ReasoningVerdict, len(batch.Verdicts))
	for id, v := range batch.Verdicts {
		out.Verdicts[id] = v
	}

	var outages []uuid.UUID
	for _, h := range liveHypotheses(prev) {
		if _, ok := out.Verdicts[h.ID]; ok {
			continue
		}
		v, err := c.assess(ctx, *h, batch)
		if err != nil {
			reason := "unavailable"
			if errors.Is(err, domain.ErrMalformedVerdict) {
				reason = "malformed"
			} else if errors.Is(err, context.DeadlineExceeded) {
				reason = "timeout"
			}
			c.metrics.RecordVerdictFallback(reason)
			c.logger.Warn("reasoning verdict fell back to inconclusive",
				zap.String("hypothesis_id", h.ID.String()),
				zap.String("reason", reason),
				zap.Error(err))
			v = domain.Inconclusive(domain.ErrReasoningServiceUnavailable.Error() + ": " + reason)
			outages = append(outages, h.ID)
		}
		out.Verdicts[h.ID] = v
	}
	return &out, outages
}

func (c *VerdictCollector) assess(ctx context.Context, h domain.Hypothesis, batch *domain.ObservationBatch) (domain.ReasoningVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.client.Assess(ctx, h, batch)
	if err != nil {
		return domain.ReasoningVerdict{}, err
	}
	if !domain.ValidVerdict(string(v.Verdict)) {
		return domain.ReasoningVerdict{}, domain.ErrMalformedVerdict
	}
	return v, nil
}
