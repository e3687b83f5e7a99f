package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
)

const defaultNoisePct = 0.5

// DiffEngine compares the prior snapshot against a fresh observation batch.
// It never mutates the snapshot it is given.
type DiffEngine struct {
	noisePct float64
}

func NewDiffEngine(noisePct float64) *DiffEngine {
	if noisePct < 0 {
		noisePct = defaultNoisePct
	}
	return &DiffEngine{noisePct: noisePct}
}

func (d *DiffEngine) Compute(prev *domain.Snapshot, batch *domain.ObservationBatch) domain.Delta {
	next, missing := batch.Regime.Resolve()
	delta := domain.Delta{
		FromSequence:    prev.CycleSequence,
		Entities:        []domain.EntityDelta{},
		RegimeChanges:   regimeChanges(prev.Regime, next),
		MissingReadings: missing,
		EmptyBatch:      batch.Empty(),
	}

	for _, h := range liveHypotheses(prev) {
		delta.Entities = append(delta.Entities, d.hypothesisDelta(prev, h, batch))
	}

	seen := map[uuid.UUID]bool{}
	for _, p := range batch.Proposals {
		key, gen, existing := resolveProposal(prev, p)
		if key == "" {
			continue
		}
		if existing != nil {
			if e, ok := delta.Hypothesis(existing.ID); ok {
				e.Reaffirmed = true
			}
			continue
		}
		id := domain.HypothesisID(key, gen)
		if seen[id] {
			continue
		}
		seen[id] = true
		entity := domain.EntityDelta{
			Kind:           domain.EntityHypothesis,
			ID:             id.String(),
			Classification: domain.New,
		}
		if gen > 1 {
			entity.Notes = append(entity.Notes, fmt.Sprintf("thesis resurfaced as generation %d", gen))
		}
		delta.Entities = append(delta.Entities, entity)
	}

	delta.Entities = append(delta.Entities, narrativeDeltas(prev, batch)...)
	return delta
}

func (d *DiffEngine) hypothesisDelta(prev *domain.Snapshot, h *domain.Hypothesis, batch *domain.ObservationBatch) domain.EntityDelta {
	entity := domain.EntityDelta{
		Kind: domain.EntityHypothesis,
		ID:   h.ID.String(),
	}

	verdict, ok := batch.Verdicts[h.ID]
	switch {
	case !ok:
		verdict = domain.Inconclusive("no verdict supplied")
	case !domain.ValidVerdict(string(verdict.Verdict)):
		entity.Notes = append(entity.Notes, fmt.Sprintf("malformed verdict %q treated as inconclusive", verdict.Verdict))
		verdict = domain.Inconclusive("malformed verdict")
	}
	entity.Verdict = verdict

	cross := d.crossCheck(prev, h, batch)
	entity.CrossCheck = cross
	if cross != nil {
		entity.Magnitude = cross.Move
		if cross.Missing {
			entity.Notes = append(entity.Notes, fmt.Sprintf("no %s reading for %s; cross-check neutral", cross.Signal, h.Expectation.Subject))
		}
	}

	entity.Classification, entity.Disagreement = classify(verdict.Verdict, cross)
	if entity.Disagreement {
		entity.Notes = append(entity.Notes, "verdict and metric cross-check disagree")
	}
	if verdict.Verdict == domain.VerdictInconclusive && cross != nil && !cross.Missing && cross.Result != domain.VerdictInconclusive {
		entity.Notes = append(entity.Notes, fmt.Sprintf("cross-check alone was %s", cross.Result))
	}
	return entity
}

// classify combines the reasoning verdict (primary) with the metric
// cross-check (secondary). A nil cross-check means the hypothesis carries no
// measurable expectation, so the verdict stands alone.
func classify(v domain.Verdict, cross *domain.CrossCheck) (domain.Classification, bool) {
	x := domain.VerdictInconclusive
	if cross != nil && !cross.Missing {
		x = cross.Result
	}

	switch v {
	case domain.VerdictContrary:
		switch {
		case cross == nil, x == domain.VerdictContrary:
			return domain.Contradicted, false
		case x == domain.VerdictConsistent:
			return domain.Weakened, true
		default:
			return domain.Weakened, false
		}
	case domain.VerdictConsistent:
		if x == domain.VerdictContrary {
			return domain.Weakened, true
		}
		return domain.Strengthened, false
	default:
		return domain.Unchanged, false
	}
}

// crossCheck judges the expectation against what moved since the prior
// snapshot: the subject's 24h change, or the narrative momentum delta.
func (d *DiffEngine) crossCheck(prev *domain.Snapshot, h *domain.Hypothesis, batch *domain.ObservationBatch) *domain.CrossCheck {
	e := h.Expectation
	if e == nil {
		return nil
	}
	cc := &domain.CrossCheck{Signal: e.Signal, Result: domain.VerdictInconclusive}

	var move float64
	if e.Signal == domain.SignalNarrative {
		reading, ok := batch.Narrative(e.Subject)
		track := prev.Narratives[e.Subject]
		if !ok || track == nil {
			cc.Missing = true
			return cc
		}
		move = reading.Momentum - track.MomentumScore
		cc.Source = "narrative_momentum"
		if move == 0 {
			cc.Move = &move
			return cc
		}
	} else {
		m, ok := batch.Metric(e.Subject)
		if !ok || m.Change24h == nil {
			cc.Missing = true
			return cc
		}
		if m.Kind != "" {
			cc.Signal = m.Kind
		}
		move = *m.Change24h
		cc.Source = "change_24h"
		if math.Abs(move) < d.noisePct {
			cc.Move = &move
			return cc
		}
	}

	cc.Move = &move
	if (move > 0) == (e.Direction == domain.DirectionUp) {
		cc.Result = domain.VerdictConsistent
	} else {
		cc.Result = domain.VerdictContrary
	}
	return cc
}

func narrativeDeltas(prev *domain.Snapshot, batch *domain.ObservationBatch) []domain.EntityDelta {
	var out []domain.EntityDelta
	seen := map[string]bool{}
	for _, r := range batch.Narratives {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true

		entity := domain.EntityDelta{Kind: domain.EntityNarrative, ID: r.Name}
		track, ok := prev.Narratives[r.Name]
		if !ok {
			entity.Classification = domain.New
			out = append(out, entity)
			continue
		}
		move := r.Momentum - track.MomentumScore
		entity.Magnitude = &move
		switch {
		case move > 0:
			entity.Classification = domain.Strengthened
		case move < 0:
			entity.Classification = domain.Weakened
		default:
			entity.Classification = domain.Unchanged
		}
		out = append(out, entity)
	}

	var quiet []string
	for name := range prev.Narratives {
		if !seen[name] {
			quiet = append(quiet, name)
		}
	}
	sort.Strings(quiet)
	for _, name := range quiet {
		out = append(out, domain.EntityDelta{
			Kind:           domain.EntityNarrative,
			ID:             name,
			Classification: domain.Unchanged,
			Notes:          []string{"no reading this cycle"},
		})
	}
	return out
}

func regimeChanges(prev, next domain.Regime) []domain.RegimeChange {
	before := prev.Fields()
	after := next.Fields()
	fields := make([]string, 0, len(after))
	for f := range after {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	changes := []domain.RegimeChange{}
	for _, f := range fields {
		if before[f] != after[f] {
			changes = append(changes, domain.RegimeChange{Field: f, From: before[f], To: after[f]})
		}
	}
	return changes
}

// resolveProposal maps a proposal onto its content key and generation. A
// non-nil existing hypothesis means the proposal merges into a live one.
func resolveProposal(snap *domain.Snapshot, p domain.HypothesisProposal) (string, int, *domain.Hypothesis) {
	key := domain.NormalizeStatement(p.Statement)
	if key == "" {
		return "", 0, nil
	}
	latest := snap.LatestGeneration(key)
	if latest == nil {
		return key, 1, nil
	}
	if latest.Status.Live() {
		return key, latest.Generation, latest
	}
	return key, latest.Generation + 1, nil
}

func liveHypotheses(s *domain.Snapshot) []*domain.Hypothesis {
	var out []*domain.Hypothesis
	for _, h := range s.Hypotheses {
		if h.Status.Live() {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
