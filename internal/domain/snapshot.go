package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type WatchlistEntry struct {
	HypothesisID     uuid.UUID `json:"hypothesis_id" yaml:"hypothesis_id"`
	Subject          string    `json:"subject" yaml:"subject"`
	Rationale        string    `json:"rationale" yaml:"rationale"`
	TriggerCondition string    `json:"trigger_condition" yaml:"trigger_condition"`
	LastPriceContext string    `json:"last_price_context" yaml:"last_price_context"`
}

// Snapshot is the aggregate root of the belief state for one cycle.
// Committed snapshots are owned by the store and never mutated in place.
type Snapshot struct {
	CycleSequence int64                      `json:"cycle_sequence" yaml:"cycle_sequence"`
	CapturedAt    time.Time                  `json:"captured_at" yaml:"captured_at"`
	Regime        Regime                     `json:"regime" yaml:"regime"`
	Hypotheses    map[uuid.UUID]*Hypothesis  `json:"hypotheses" yaml:"hypotheses"`
	Watchlist     []WatchlistEntry           `json:"watchlist" yaml:"watchlist"`
	Narratives    map[string]*NarrativeTrack `json:"narratives" yaml:"narratives"`
	Rules         map[uuid.UUID]*Rule        `json:"rules" yaml:"rules"`
}

// EmptySnapshot is the well-defined state of a store that has never been saved to.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Regime:     UnknownRegime(),
		Hypotheses: map[uuid.UUID]*Hypothesis{},
		Watchlist:  []WatchlistEntry{},
		Narratives: map[string]*NarrativeTrack{},
		Rules:      map[uuid.UUID]*Rule{},
	}
}

// IsEmpty reports whether this is the first-run state.
func (s *Snapshot) IsEmpty() bool {
	return s.CycleSequence == 0
}

// Clone returns a deep working copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		CycleSequence: s.CycleSequence,
		CapturedAt:    s.CapturedAt,
		Regime:        s.Regime,
		Hypotheses:    make(map[uuid.UUID]*Hypothesis, len(s.Hypotheses)),
		Watchlist:     append([]WatchlistEntry{}, s.Watchlist...),
		Narratives:    make(map[string]*NarrativeTrack, len(s.Narratives)),
		Rules:         make(map[uuid.UUID]*Rule, len(s.Rules)),
	}
	for id, h := range s.Hypotheses {
		c.Hypotheses[id] = h.Clone()
	}
	for name, t := range s.Narratives {
		c.Narratives[name] = t.Clone()
	}
	for id, r := range s.Rules {
		c.Rules[id] = r.Clone()
	}
	return c
}

// HypothesesByStatus returns matching hypotheses ordered by creation.
func (s *Snapshot) HypothesesByStatus(status HypothesisStatus) []Hypothesis {
	out := []Hypothesis{}
	for _, h := range s.Hypotheses {
		if h.Status == status {
			out = append(out, *h.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedCycle != out[j].CreatedCycle {
			return out[i].CreatedCycle < out[j].CreatedCycle
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ActiveRules returns ACTIVE rules, optionally restricted to one category.
func (s *Snapshot) ActiveRules(category *RootCause) []Rule {
	out := []Rule{}
	for _, r := range s.Rules {
		if r.Status != RuleActive {
			continue
		}
		if category != nil && r.DomainCategory != *category {
			continue
		}
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedCycle != out[j].CreatedCycle {
			return out[i].CreatedCycle < out[j].CreatedCycle
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// LatestGeneration finds the newest hypothesis sharing a content key.
func (s *Snapshot) LatestGeneration(key string) *Hypothesis {
	var latest *Hypothesis
	for _, h := range s.Hypotheses {
		if h.Key != key {
			continue
		}
		if latest == nil || h.Generation > latest.Generation {
			latest = h
		}
	}
	return latest
}
