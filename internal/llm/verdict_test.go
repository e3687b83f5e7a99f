package llm

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.Verdict
		wantErr bool
	}{
		{name: "plain", raw: `{"verdict":"CONSISTENT","justification":"alts bid"}`, want: domain.VerdictConsistent},
		{name: "fenced", raw: "```json\n{\"verdict\":\"CONTRARY\",\"justification\":\"dominance up\"}\n```", want: domain.VerdictContrary},
		{name: "lowercase", raw: `{"verdict":"inconclusive"}`, want: domain.VerdictInconclusive},
		{name: "unknown verdict", raw: `{"verdict":"MAYBE"}`, wantErr: true},
		{name: "missing verdict", raw: `{"justification":"?"}`, wantErr: true},
		{name: "prose", raw: `The hypothesis looks fine.`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVerdict(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedVerdict)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Verdict)
		})
	}
}

func TestParseVerdictKeepsLesson(t *testing.T) {
	v, err := parseVerdict(`{"verdict":"CONTRARY","justification":" dominance rose ","lesson":"Wait for the weekly close"}`)
	require.NoError(t, err)
	assert.Equal(t, "dominance rose", v.Justification)
	assert.Equal(t, "Wait for the weekly close", v.Lesson)
}

func TestRenderObservations(t *testing.T) {
	change := -1.25
	risk := "risk_on"
	out := renderObservations(&domain.ObservationBatch{
		Regime:     domain.RegimeReadings{RiskAppetite: &risk},
		Metrics:    []domain.MetricDelta{{Subject: "BTC.D", Kind: domain.SignalPrice, Change24h: &change}},
		Narratives: []domain.NarrativeReading{{Name: "restaking", Momentum: 0.4, Attention: 0.2}},
	})

	assert.Contains(t, out, "regime risk_appetite: risk_on")
	assert.Contains(t, out, "regime macro_backdrop: unknown")
	assert.Contains(t, out, "metric BTC.D [price] 24h -1.25%")
	assert.Contains(t, out, "narrative restaking: momentum 0.40, attention 0.20")
}

type capturingCompleter struct {
	prompt string
	answer string
}

func (c *capturingCompleter) complete(_ context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.answer, nil
}

func TestAssessPromptCarriesHypothesisAndObservations(t *testing.T) {
	change := 2.4
	c := &capturingCompleter{answer: `{"verdict":"CONTRARY","justification":"dominance up"}`}
	h := domain.Hypothesis{Statement: "BTC dominance falling", Confidence: domain.ConfidenceHigh}
	batch := &domain.ObservationBatch{
		Metrics: []domain.MetricDelta{{Subject: "BTC.D", Kind: domain.SignalPrice, Change24h: &change}},
	}

	v, err := assess(context.Background(), c, h, batch)
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictContrary, v.Verdict)

	assert.NotContains(t, c.prompt, "%!")
	assert.Contains(t, c.prompt, "rose 1.8% while")
	assert.Contains(t, c.prompt, "Hypothesis:\nStatement: BTC dominance falling")
	assert.Contains(t, c.prompt, "metric BTC.D [price] 24h +2.40%")
}
