package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReview_RaisesFlagsWithoutMutating(t *testing.T) {
	store := newMockSnapshotStore()

	stale := dominanceFalling()
	stale.QuietCycles = 2
	stale.InvalidatingEvidence = []domain.ObservationRef{{Cycle: 3, Source: "verdict"}}
	retired := hypothesis("Memes cooling", domain.ConfidenceMedium, domain.StatusRetired, nil)

	snap := snapshotWith(4, stale, retired)
	snap.Watchlist = []domain.WatchlistEntry{{HypothesisID: retired.ID, Subject: "PEPE"}}
	churn := &domain.Rule{
		ID:             uuid.New(),
		DomainCategory: domain.RootCauseSocialSignal,
		Condition:      domain.NewCondition("signal:social"),
		Status:         domain.RuleActive,
		Notes:          []string{"a", "b", "c"},
	}
	snap.Rules[churn.ID] = churn
	store.seed(snap)

	svc := NewReviewService(store, 3, zap.NewNop())
	flags, err := svc.Review(context.Background())
	require.NoError(t, err)

	kinds := map[domain.FlagKind]string{}
	for _, f := range flags {
		kinds[f.Kind] = f.TargetID
		assert.Equal(t, int64(4), f.ReviewedAt)
	}
	assert.Equal(t, stale.ID.String(), kinds[domain.FlagStaleCandidate])
	assert.Equal(t, stale.ID.String(), kinds[domain.FlagShakyConviction])
	assert.Equal(t, retired.ID.String(), kinds[domain.FlagOrphanWatch])
	assert.Equal(t, churn.ID.String(), kinds[domain.FlagRuleChurn])

	after, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), after.CycleSequence, "review never commits a snapshot")
	assert.Equal(t, domain.ConfidenceHigh, after.Hypotheses[stale.ID].Confidence)

	again, err := svc.Review(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again, "flags already pending are not raised twice")
}

func TestReview_StopIsIdempotent(t *testing.T) {
	svc := NewReviewService(newMockSnapshotStore(), 3, zap.NewNop())
	svc.SetInterval(time.Hour)
	svc.Start()

	assert.NotPanics(t, func() {
		svc.Stop()
		svc.Stop()
	})
}
