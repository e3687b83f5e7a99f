package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BadgerSnapshotStore {
	t.Helper()
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot(seq int64) *domain.Snapshot {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	key := domain.NormalizeStatement("BTC dominance falling")
	id := domain.HypothesisID(key, 1)
	ruleID := uuid.New()

	s := domain.EmptySnapshot()
	s.CycleSequence = seq
	s.CapturedAt = now
	s.Regime.RiskAppetite = "RISK-ON"
	s.Regime.MacroBackdrop = domain.Unknown
	s.Hypotheses[id] = &domain.Hypothesis{
		ID:            id,
		Key:           key,
		Generation:    1,
		Statement:     "BTC dominance falling",
		Confidence:    domain.ConfidenceHigh,
		Status:        domain.StatusActive,
		Expectation:   &domain.Expectation{Subject: "btc_dominance", Direction: domain.DirectionDown, Signal: domain.SignalPrice},
		CreatedCycle:  1,
		CreatedAt:     now,
		LastTouchedAt: now,
		SupportingEvidence: []domain.ObservationRef{
			{Cycle: 1, Source: "proposal"},
			{Cycle: 2, Source: "verdict", Summary: "alts outperforming"},
		},
	}
	s.Watchlist = []domain.WatchlistEntry{{
		HypothesisID:     id,
		Subject:          "ETH",
		Rationale:        "rotation",
		TriggerCondition: "ETH/BTC > 0.06",
		LastPriceContext: "24h +2.10%",
	}}
	s.Narratives["ai-agents"] = &domain.NarrativeTrack{
		Name:            "ai-agents",
		Phase:           domain.PhaseHeatingUp,
		MomentumScore:   0.42,
		AttentionScore:  0.31,
		PhaseEnteredAt:  now,
		MomentumHistory: []float64{0.1, 0.42},
	}
	s.Rules[ruleID] = &domain.Rule{
		ID:             ruleID,
		DomainCategory: domain.RootCauseDataQuality,
		Statement:      "Cross-check dominance against two sources",
		Condition:      domain.NewCondition("signal:price"),
		Status:         domain.RuleActive,
		CreatedCycle:   1,
		CreatedAt:      now,
	}
	return s
}

func TestBadgerLoadEmptyStore(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.Empty(t, snap.Hypotheses)
	assert.Empty(t, snap.Rules)
	assert.Equal(t, domain.UnknownRegime(), snap.Regime)
}

func TestBadgerRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap *domain.Snapshot
	}{
		{"populated", sampleSnapshot(1)},
		{"zero hypotheses and unknown regime", func() *domain.Snapshot {
			s := domain.EmptySnapshot()
			s.CycleSequence = 1
			s.CapturedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			return s
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, domain.Commit{Snapshot: tt.snap, ExpectedSequence: 0}))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.snap, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBadgerSaveRejectsStaleSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.Commit{Snapshot: sampleSnapshot(1), ExpectedSequence: 0}))

	err := s.Save(ctx, domain.Commit{Snapshot: sampleSnapshot(1), ExpectedSequence: 0})
	assert.True(t, errors.Is(err, domain.ErrConcurrentCycleConflict), "got %v", err)

	head, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), head.CycleSequence)
}

func TestBadgerKeepsHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleSnapshot(1)
	second := sampleSnapshot(2)
	second.Regime.RiskAppetite = "RISK-OFF"
	require.NoError(t, s.Save(ctx, domain.Commit{Snapshot: first, ExpectedSequence: 0}))
	require.NoError(t, s.Save(ctx, domain.Commit{Snapshot: second, ExpectedSequence: 1}))

	old, err := s.LoadSequence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "RISK-ON", old.Regime.RiskAppetite)

	_, err = s.LoadSequence(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBadgerCorruptSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, domain.Commit{Snapshot: sampleSnapshot(1), ExpectedSequence: 0}))

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(1), []byte(`{"format_version":1,"checksum":"00","payload":{}}`))
	})
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrCorruptState)
}

func TestBadgerHeadWithoutSnapshotIsCorrupt(t *testing.T) {
	s := openTestStore(t)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(headKey, []byte{0, 0, 0, 0, 0, 0, 0, 3})
	})
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCorruptState)
}

func TestBadgerMistakesAndFlagsCommitWithSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	flag := domain.AdvisoryFlag{ID: uuid.New(), Kind: domain.FlagStaleCandidate, TargetID: "x", RaisedAt: time.Now().UTC()}
	other := domain.AdvisoryFlag{ID: uuid.New(), Kind: domain.FlagRuleChurn, TargetID: "y", RaisedAt: time.Now().UTC().Add(time.Second)}
	require.NoError(t, s.EnqueueFlags(ctx, []domain.AdvisoryFlag{flag, other}))

	pending, err := s.PendingFlags(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, flag.ID, pending[0].ID)

	mistake := domain.MistakeRecord{
		ID:                uuid.New(),
		HypothesisID:      uuid.New(),
		Claim:             "BTC dominance falling",
		ActualOutcome:     "btc_dominance rose 3.00%",
		RootCauseCategory: domain.RootCausePriceStructure,
		Cycle:             1,
	}
	require.NoError(t, s.Save(ctx, domain.Commit{
		Snapshot:         sampleSnapshot(1),
		ExpectedSequence: 0,
		Mistakes:         []domain.MistakeRecord{mistake},
		ConsumedFlags:    []uuid.UUID{flag.ID},
	}))

	mistakes, err := s.Mistakes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, mistakes, 1)
	assert.Equal(t, mistake.ID, mistakes[0].ID)

	pending, err = s.PendingFlags(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)
}

func TestBadgerFailedCommitLeavesNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, domain.Commit{Snapshot: sampleSnapshot(1), ExpectedSequence: 0}))

	err := s.Save(ctx, domain.Commit{
		Snapshot:         sampleSnapshot(1),
		ExpectedSequence: 0,
		Mistakes:         []domain.MistakeRecord{{ID: uuid.New(), Claim: "lost"}},
	})
	require.Error(t, err)

	mistakes, err := s.Mistakes(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, mistakes)
}
