package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingMetrics struct {
	nopMetrics
	fallbacks map[string]int
}

func (c *countingMetrics) RecordVerdictFallback(reason string) {
	c.fallbacks[reason]++
}

func TestVerdictCollector(t *testing.T) {
	ok := dominanceFalling()
	malformed := hypothesis("SOL breaking out", domain.ConfidenceLow, domain.StatusForming, nil)
	supplied := hypothesis("ETH lagging", domain.ConfidenceMedium, domain.StatusActive, nil)
	retired := hypothesis("Memes cooling", domain.ConfidenceMedium, domain.StatusRetired, nil)
	prev := snapshotWith(3, ok, malformed, supplied, retired)

	client := &mockReasoningClient{}
	client.On("Assess", mock.Anything, ok.ID).Return(domain.ReasoningVerdict{Verdict: domain.VerdictConsistent, Justification: "alts bid"}, nil)
	client.On("Assess", mock.Anything, malformed.ID).Return(domain.ReasoningVerdict{Verdict: "MAYBE"}, nil)

	metrics := &countingMetrics{fallbacks: map[string]int{}}
	c := NewVerdictCollector(client, time.Second, zap.NewNop())
	c.SetMetrics(metrics)

	in := &domain.ObservationBatch{Verdicts: map[uuid.UUID]domain.ReasoningVerdict{
		supplied.ID: {Verdict: domain.VerdictContrary},
	}}
	out, outages := c.Collect(context.Background(), prev, in)

	require.Len(t, out.Verdicts, 3)
	assert.Equal(t, domain.VerdictConsistent, out.Verdicts[ok.ID].Verdict)
	assert.Equal(t, domain.VerdictInconclusive, out.Verdicts[malformed.ID].Verdict)
	assert.Equal(t, domain.VerdictContrary, out.Verdicts[supplied.ID].Verdict, "supplied verdicts are never re-asked")
	assert.Equal(t, []uuid.UUID{malformed.ID}, outages)
	assert.Equal(t, 1, metrics.fallbacks["malformed"])
	assert.Len(t, in.Verdicts, 1, "the caller's batch is not modified")
	client.AssertNotCalled(t, "Assess", mock.Anything, retired.ID)
}
