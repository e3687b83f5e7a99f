package service

import (
	"testing"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reading struct {
	momentum  float64
	attention float64
}

// runPhases feeds one reading per cycle and returns every committed transition.
func runPhases(c *PhaseClassifier, work *domain.Snapshot, name string, readings []reading) []domain.PhaseTransition {
	var out []domain.PhaseTransition
	for i, r := range readings {
		batch := &domain.ObservationBatch{Narratives: []domain.NarrativeReading{{Name: name, Momentum: r.momentum, Attention: r.attention}}}
		out = append(out, c.Apply(work, batch, int64(i+1), testNow)...)
	}
	return out
}

func TestPhaseNewTrackNeedsConfirmation(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()

	first := c.Apply(work, &domain.ObservationBatch{Narratives: []domain.NarrativeReading{{Name: "restaking", Momentum: 0.4, Attention: 0.1}}}, 1, testNow)
	assert.Empty(t, first)
	assert.Equal(t, domain.PhaseUnclassified, work.Narratives["restaking"].Phase)
	assert.Equal(t, domain.PhaseOverlooked, work.Narratives["restaking"].PendingPhase)

	second := c.Apply(work, &domain.ObservationBatch{Narratives: []domain.NarrativeReading{{Name: "restaking", Momentum: 0.5, Attention: 0.12}}}, 2, testNow)
	require.Len(t, second, 1)
	assert.Equal(t, domain.PhaseUnclassified, second[0].From)
	assert.Equal(t, domain.PhaseOverlooked, work.Narratives["restaking"].Phase)
	assert.Empty(t, work.Narratives["restaking"].PendingPhase)
}

func TestPhaseOneCycleBlipDoesNotCommit(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	work.Narratives["depin"] = &domain.NarrativeTrack{
		Name:            "depin",
		Phase:           domain.PhaseOverlooked,
		MomentumScore:   0.2,
		AttentionScore:  0.1,
		MomentumHistory: []float64{0.2, 0.2},
	}

	got := runPhases(c, work, "depin", []reading{
		{0.3, 0.5}, // attention jumps into HEATING_UP territory
		{0.3, 0.1}, // and reverts
		{0.3, 0.1},
	})

	assert.Empty(t, got)
	assert.Equal(t, domain.PhaseOverlooked, work.Narratives["depin"].Phase)
	assert.Empty(t, work.Narratives["depin"].PendingPhase)
}

func TestPhaseHeatingUpCommitsAfterConfirmation(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	work.Narratives["depin"] = &domain.NarrativeTrack{
		Name:            "depin",
		Phase:           domain.PhaseOverlooked,
		MomentumHistory: []float64{0.2},
	}

	got := runPhases(c, work, "depin", []reading{{0.3, 0.5}, {0.4, 0.55}})
	require.Len(t, got, 1)
	assert.Equal(t, domain.PhaseOverlooked, got[0].From)
	assert.Equal(t, domain.PhaseHeatingUp, got[0].To)
	assert.Equal(t, int64(2), got[0].Cycle)
}

func TestPhasePeakCommitsImmediately(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	work.Narratives["memes"] = &domain.NarrativeTrack{Name: "memes", Phase: domain.PhaseHeatingUp, MomentumHistory: []float64{0.3, 0.4}}

	got := runPhases(c, work, "memes", []reading{{0.6, 0.9}})
	require.Len(t, got, 1)
	assert.Equal(t, domain.PhasePeak, got[0].To)
}

func TestPhaseCoolingDownAfterPeak(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	work.Narratives["memes"] = &domain.NarrativeTrack{Name: "memes", Phase: domain.PhasePeak, MomentumHistory: []float64{0.5}}

	got := runPhases(c, work, "memes", []reading{{-0.2, 0.5}, {-0.3, 0.45}, {-0.1, 0.4}})
	require.Len(t, got, 1)
	assert.Equal(t, domain.PhaseCoolingDown, got[0].To)
	assert.Equal(t, int64(3), got[0].Cycle)
}

func TestPhaseTieKeepsCommittedPhase(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	track := &domain.NarrativeTrack{
		Name:            "l2",
		Phase:           domain.PhaseHeatingUp,
		MomentumScore:   0.4,
		AttentionScore:  0.7,
		MomentumHistory: []float64{0.3, 0.4},
	}
	assert.Equal(t, domain.PhaseHeatingUp, c.Candidate(track), "attention exactly at the crowded threshold")

	track.AttentionScore = 0.71
	assert.Equal(t, domain.PhasePeak, c.Candidate(track))
}

func TestMomentumHistoryIsBounded(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	runPhases(c, work, "rwa", []reading{{0.1, 0.4}, {0.2, 0.4}, {0.3, 0.4}, {0.4, 0.4}, {0.5, 0.4}})
	assert.Equal(t, []float64{0.3, 0.4, 0.5}, work.Narratives["rwa"].MomentumHistory)
}

func TestPhasePeakIgnoresMomentumOnFloor(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	work.Narratives["memes"] = &domain.NarrativeTrack{Name: "memes", Phase: domain.PhaseHeatingUp, MomentumHistory: []float64{0.3, 0.4}}

	got := runPhases(c, work, "memes", []reading{{0, 0.95}})
	require.Len(t, got, 1)
	assert.Equal(t, domain.PhasePeak, got[0].To)
	assert.Equal(t, domain.PhasePeak, work.Narratives["memes"].Phase)
}

func TestPhaseOverlookedTieKeepsCommittedPhase(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	track := &domain.NarrativeTrack{
		Name:            "gaming",
		Phase:           domain.PhaseCoolingDown,
		MomentumScore:   0.2,
		AttentionScore:  0.3,
		MomentumHistory: []float64{0.1, 0.2},
	}
	assert.Equal(t, domain.PhaseCoolingDown, c.Candidate(track), "attention exactly at the low threshold")

	track.AttentionScore = 0.29
	assert.Equal(t, domain.PhaseOverlooked, c.Candidate(track))
}

func TestPhasePendingClearedWhenReadingSkipped(t *testing.T) {
	c := NewPhaseClassifier(DefaultThresholds(), zap.NewNop())
	work := domain.EmptySnapshot()
	work.Narratives["depin"] = &domain.NarrativeTrack{
		Name:            "depin",
		Phase:           domain.PhaseOverlooked,
		MomentumHistory: []float64{0.2},
	}
	other := &domain.ObservationBatch{Narratives: []domain.NarrativeReading{{Name: "rwa", Momentum: 0.1, Attention: 0.5}}}
	depin := func(m, a float64) *domain.ObservationBatch {
		return &domain.ObservationBatch{Narratives: []domain.NarrativeReading{{Name: "depin", Momentum: m, Attention: a}}}
	}

	assert.Empty(t, c.Apply(work, depin(0.3, 0.5), 1, testNow))
	assert.Equal(t, domain.PhaseHeatingUp, work.Narratives["depin"].PendingPhase)

	assert.Empty(t, c.Apply(work, other, 2, testNow))
	assert.Empty(t, work.Narratives["depin"].PendingPhase)

	assert.Empty(t, c.Apply(work, depin(0.4, 0.55), 3, testNow), "a stale provisional phase is not confirmed")
	assert.Equal(t, domain.PhaseOverlooked, work.Narratives["depin"].Phase)
	assert.Equal(t, domain.PhaseHeatingUp, work.Narratives["depin"].PendingPhase)
}
