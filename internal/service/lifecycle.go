package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultStalenessCycles = 3

type LifecycleResult struct {
	Transitions []domain.StatusTransition
	// Invalidated lists hypotheses that moved to INVALIDATED this cycle.
	Invalidated []uuid.UUID
	Consumed    []domain.AdvisoryFlag
}

// LifecycleManager owns the hypothesis state machine and the watchlist.
type LifecycleManager struct {
	staleness int
	logger    *zap.Logger
}

func NewLifecycleManager(stalenessCycles int, logger *zap.Logger) *LifecycleManager {
	if stalenessCycles <= 0 {
		stalenessCycles = DefaultStalenessCycles
	}
	return &LifecycleManager{staleness: stalenessCycles, logger: logger}
}

// Apply drives the working copy through one cycle. work must be a clone of
// the prior snapshot; seq is the sequence being built.
func (m *LifecycleManager) Apply(work *domain.Snapshot, delta *domain.Delta, batch *domain.ObservationBatch, flags []domain.AdvisoryFlag, seq int64, now time.Time) LifecycleResult {
	var res LifecycleResult

	m.createProposed(work, delta, batch, seq, now)

	outage := make(map[string]bool, len(delta.ReasoningOutages))
	for _, id := range delta.ReasoningOutages {
		outage[id.String()] = true
	}

	for i := range delta.Entities {
		e := &delta.Entities[i]
		if e.Kind != domain.EntityHypothesis || e.Classification == domain.New {
			continue
		}
		id, err := uuid.Parse(e.ID)
		if err != nil {
			continue
		}
		h, ok := work.Hypotheses[id]
		if !ok || h.Status.Terminal() {
			continue
		}
		m.applyEvidence(work, h, e, delta.EmptyBatch || outage[e.ID], seq, now, &res)
	}

	res.Consumed = m.applyAdvisories(work, delta, flags)

	for _, h := range sortedHypotheses(work) {
		switch {
		case h.Status == domain.StatusForming && h.Confidence.AtLeast(domain.ConfidenceMedium) && h.SupportedAfterCreation():
			m.transition(work, h, domain.StatusActive, "confidence and follow-up support reached", &res)
		case h.Status == domain.StatusActive && h.QuietCycles >= m.staleness:
			m.transition(work, h, domain.StatusRetired, fmt.Sprintf("no evidence for %d cycles", h.QuietCycles), &res)
		}
	}

	maintainWatchlist(work, batch)
	return res
}

func (m *LifecycleManager) createProposed(work *domain.Snapshot, delta *domain.Delta, batch *domain.ObservationBatch, seq int64, now time.Time) {
	for _, p := range batch.Proposals {
		key, gen, existing := resolveProposal(work, p)
		if key == "" || existing != nil {
			continue
		}
		id := domain.HypothesisID(key, gen)
		e, ok := delta.Hypothesis(id)
		if !ok || e.Classification != domain.New {
			continue
		}
		conf := p.Confidence
		if !domain.ValidConfidence(string(conf)) {
			conf = domain.ConfidenceLow
		}
		h := &domain.Hypothesis{
			ID:               id,
			Key:              key,
			Generation:       gen,
			Statement:        strings.TrimSpace(p.Statement),
			Confidence:       conf,
			Status:           domain.StatusForming,
			TriggerCondition: p.TriggerCondition,
			Rationale:        p.Rationale,
			CreatedCycle:     seq,
			CreatedAt:        now,
			LastTouchedAt:    now,
			SupportingEvidence: []domain.ObservationRef{
				{Cycle: seq, Source: "proposal", Summary: p.Rationale},
			},
		}
		if p.Expectation != nil {
			exp := *p.Expectation
			h.Expectation = &exp
		}
		work.Hypotheses[id] = h
		m.logger.Info("hypothesis created",
			zap.String("hypothesis_id", id.String()),
			zap.Int("generation", gen),
			zap.Int64("cycle_sequence", seq))
	}
}

// applyEvidence updates one hypothesis. A neutral cycle (empty batch or a
// reasoning outage for this hypothesis) does not count toward staleness.
func (m *LifecycleManager) applyEvidence(work *domain.Snapshot, h *domain.Hypothesis, e *domain.EntityDelta, neutral bool, seq int64, now time.Time, res *LifecycleResult) {
	touched := false
	if e.Reaffirmed {
		h.SupportingEvidence = append(h.SupportingEvidence, domain.ObservationRef{Cycle: seq, Source: "proposal", Summary: "re-proposed"})
		touched = true
	}

	switch e.Classification {
	case domain.Strengthened:
		h.Confidence = h.Confidence.Raise()
		h.SupportingEvidence = append(h.SupportingEvidence, evidenceRef(seq, e))
		touched = true
	case domain.Weakened:
		h.Confidence = h.Confidence.Lower()
		h.InvalidatingEvidence = append(h.InvalidatingEvidence, evidenceRef(seq, e))
		touched = true
	case domain.Contradicted:
		h.InvalidatingEvidence = append(h.InvalidatingEvidence, evidenceRef(seq, e))
		h.LastTouchedAt = now
		h.QuietCycles = 0
		m.transition(work, h, domain.StatusInvalidated, "contrary evidence confirmed by cross-check", res)
		if h.Status == domain.StatusInvalidated {
			res.Invalidated = append(res.Invalidated, h.ID)
		}
		return
	}

	if touched {
		h.QuietCycles = 0
		h.LastTouchedAt = now
	} else if !neutral {
		h.QuietCycles++
	}
}

// applyAdvisories drains every pending flag. Only shaky_conviction changes
// state: a hypothesis not strengthened this cycle loses one confidence step.
func (m *LifecycleManager) applyAdvisories(work *domain.Snapshot, delta *domain.Delta, flags []domain.AdvisoryFlag) []domain.AdvisoryFlag {
	for _, f := range flags {
		if f.Kind != domain.FlagShakyConviction {
			continue
		}
		id, err := uuid.Parse(f.TargetID)
		if err != nil {
			continue
		}
		h, ok := work.Hypotheses[id]
		if !ok || !h.Status.Live() {
			continue
		}
		if e, ok := delta.Hypothesis(id); ok {
			if e.Classification == domain.Strengthened || e.Classification == domain.Weakened {
				continue
			}
			e.Notes = append(e.Notes, "confidence lowered by self-review")
		}
		h.Confidence = h.Confidence.Lower()
		m.logger.Info("confidence lowered by advisory flag",
			zap.String("hypothesis_id", id.String()),
			zap.String("confidence", string(h.Confidence)))
	}
	return append([]domain.AdvisoryFlag{}, flags...)
}

func (m *LifecycleManager) transition(work *domain.Snapshot, h *domain.Hypothesis, to domain.HypothesisStatus, reason string, res *LifecycleResult) {
	if !h.Status.CanTransition(to) {
		m.logger.Warn("rejected hypothesis transition",
			zap.String("hypothesis_id", h.ID.String()),
			zap.String("from", string(h.Status)),
			zap.String("to", string(to)),
			zap.Error(domain.ErrInvalidTransition))
		return
	}
	from := h.Status
	h.Status = to
	res.Transitions = append(res.Transitions, domain.StatusTransition{
		HypothesisID: h.ID,
		From:         from,
		To:           to,
		Reason:       reason,
	})

	if to == domain.StatusActive && strings.TrimSpace(h.TriggerCondition) != "" {
		work.Watchlist = append(work.Watchlist, domain.WatchlistEntry{
			HypothesisID:     h.ID,
			Subject:          watchSubject(h),
			Rationale:        h.Rationale,
			TriggerCondition: h.TriggerCondition,
		})
	}
	if from == domain.StatusActive {
		removeWatch(work, func(w domain.WatchlistEntry) bool { return w.HypothesisID == h.ID })
	}

	m.logger.Info("hypothesis transition",
		zap.String("hypothesis_id", h.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason))
}

// maintainWatchlist drops fired and orphaned entries and refreshes price context.
func maintainWatchlist(work *domain.Snapshot, batch *domain.ObservationBatch) {
	fired := map[string]bool{}
	for _, s := range batch.FiredTriggers {
		fired[strings.ToLower(strings.TrimSpace(s))] = true
	}
	removeWatch(work, func(w domain.WatchlistEntry) bool {
		if fired[strings.ToLower(w.Subject)] {
			return true
		}
		h, ok := work.Hypotheses[w.HypothesisID]
		return !ok || h.Status != domain.StatusActive
	})

	for i := range work.Watchlist {
		m, ok := batch.Metric(work.Watchlist[i].Subject)
		if !ok {
			continue
		}
		if ctx := priceContext(m); ctx != "" {
			work.Watchlist[i].LastPriceContext = ctx
		}
	}
}

func removeWatch(work *domain.Snapshot, drop func(domain.WatchlistEntry) bool) {
	kept := work.Watchlist[:0]
	for _, w := range work.Watchlist {
		if !drop(w) {
			kept = append(kept, w)
		}
	}
	work.Watchlist = kept
}

func priceContext(m domain.MetricDelta) string {
	var parts []string
	add := func(label string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s %+.2f%%", label, *v))
		}
	}
	add("24h", m.Change24h)
	add("7d", m.Change7d)
	add("30d", m.Change30d)
	return strings.Join(parts, ", ")
}

func watchSubject(h *domain.Hypothesis) string {
	if h.Expectation != nil && h.Expectation.Subject != "" {
		return h.Expectation.Subject
	}
	return h.Key
}

func evidenceRef(seq int64, e *domain.EntityDelta) domain.ObservationRef {
	ref := domain.ObservationRef{Cycle: seq, Source: "verdict", Summary: e.Verdict.Justification}
	if e.CrossCheck != nil && e.CrossCheck.Move != nil && ref.Summary == "" {
		ref.Summary = fmt.Sprintf("%s moved %+.2f", e.CrossCheck.Source, *e.CrossCheck.Move)
	}
	return ref
}

func sortedHypotheses(s *domain.Snapshot) []*domain.Hypothesis {
	out := make([]*domain.Hypothesis, 0, len(s.Hypotheses))
	for _, h := range s.Hypotheses {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
