package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultReviewInterval = 4 * time.Hour
	ruleChurnNotes        = 3
)

// ReviewService is the self-review audit. It reads the current snapshot and
// only ever enqueues advisory flags; the next cycle decides what to do.
type ReviewService struct {
	store     domain.SnapshotStore
	staleness int
	logger    *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReviewService(store domain.SnapshotStore, stalenessCycles int, logger *zap.Logger) *ReviewService {
	if stalenessCycles <= 0 {
		stalenessCycles = DefaultStalenessCycles
	}
	return &ReviewService{
		store:     store,
		staleness: stalenessCycles,
		logger:    logger,
		interval:  defaultReviewInterval,
		stopCh:    make(chan struct{}),
	}
}

func (s *ReviewService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *ReviewService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("self-review worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if _, err := s.Review(ctx); err != nil {
					s.logger.Error("self-review failed", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("self-review worker stopped")
				return
			}
		}
	}()
}

// Stop is safe to call more than once.
func (s *ReviewService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Review audits the current snapshot and enqueues flags not already pending.
func (s *ReviewService) Review(ctx context.Context) ([]domain.AdvisoryFlag, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.PendingFlags(ctx)
	if err != nil {
		return nil, err
	}
	already := map[string]bool{}
	for _, f := range pending {
		already[string(f.Kind)+"/"+f.TargetID] = true
	}

	now := time.Now().UTC()
	var flags []domain.AdvisoryFlag
	raise := func(kind domain.FlagKind, target, note string) {
		if already[string(kind)+"/"+target] {
			return
		}
		already[string(kind)+"/"+target] = true
		flags = append(flags, domain.AdvisoryFlag{
			ID:         uuid.New(),
			Kind:       kind,
			TargetID:   target,
			Note:       note,
			RaisedAt:   now,
			ReviewedAt: snap.CycleSequence,
		})
	}

	for _, h := range snap.HypothesesByStatus(domain.StatusActive) {
		if h.QuietCycles >= s.staleness-1 {
			raise(domain.FlagStaleCandidate, h.ID.String(),
				fmt.Sprintf("quiet for %d cycles, retires at %d", h.QuietCycles, s.staleness))
		}
	}
	for _, status := range []domain.HypothesisStatus{domain.StatusForming, domain.StatusActive} {
		for _, h := range snap.HypothesesByStatus(status) {
			if h.Confidence == domain.ConfidenceHigh && len(h.InvalidatingEvidence) > 0 {
				raise(domain.FlagShakyConviction, h.ID.String(),
					fmt.Sprintf("HIGH confidence with %d invalidating observations", len(h.InvalidatingEvidence)))
			}
		}
	}
	for _, w := range snap.Watchlist {
		h, ok := snap.Hypotheses[w.HypothesisID]
		if !ok || h.Status != domain.StatusActive {
			raise(domain.FlagOrphanWatch, w.HypothesisID.String(),
				fmt.Sprintf("watchlist entry %s has no ACTIVE hypothesis", w.Subject))
		}
	}
	for _, r := range snap.ActiveRules(nil) {
		if len(r.Notes) >= ruleChurnNotes {
			raise(domain.FlagRuleChurn, r.ID.String(),
				fmt.Sprintf("rule amended %d times; consider a superseding rule", len(r.Notes)))
		}
	}

	if err := s.store.EnqueueFlags(ctx, flags); err != nil {
		return nil, err
	}
	if len(flags) > 0 {
		s.logger.Info("self-review raised flags",
			zap.Int64("cycle_sequence", snap.CycleSequence),
			zap.Int("flags", len(flags)))
	}
	return nonNil(flags), nil
}
