package domain

import (
	"time"

	"github.com/google/uuid"
)

type Classification string

const (
	Unchanged    Classification = "UNCHANGED"
	Strengthened Classification = "STRENGTHENED"
	Weakened     Classification = "WEAKENED"
	Contradicted Classification = "CONTRADICTED"
	New          Classification = "NEW"
)

type EntityKind string

const (
	EntityHypothesis EntityKind = "hypothesis"
	EntityNarrative  EntityKind = "narrative"
)

// CrossCheck is the secondary signal derived from raw metric deltas.
type CrossCheck struct {
	Result  Verdict    `json:"result"`
	Signal  SignalKind `json:"signal,omitempty"`
	Source  string     `json:"source,omitempty"`
	Move    *float64   `json:"move,omitempty"`
	Missing bool       `json:"missing,omitempty"`
}

type EntityDelta struct {
	Kind           EntityKind       `json:"kind"`
	ID             string           `json:"id"`
	Classification Classification   `json:"classification"`
	Verdict        ReasoningVerdict `json:"verdict,omitempty"`
	CrossCheck     *CrossCheck      `json:"cross_check,omitempty"`
	// Disagreement is set when the verdict and the cross-check point opposite ways.
	Disagreement bool     `json:"disagreement,omitempty"`
	Reaffirmed   bool     `json:"reaffirmed,omitempty"`
	Magnitude    *float64 `json:"magnitude,omitempty"`
	Notes        []string `json:"notes,omitempty"`
}

type RegimeChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Delta describes what changed between the prior snapshot and the new batch.
type Delta struct {
	FromSequence     int64          `json:"from_sequence"`
	Entities         []EntityDelta  `json:"entities"`
	RegimeChanges    []RegimeChange `json:"regime_changes"`
	MissingReadings  []string       `json:"missing_readings"`
	ReasoningOutages []uuid.UUID    `json:"reasoning_outages,omitempty"`
	EmptyBatch       bool           `json:"empty_batch"`
}

// Hypothesis returns the delta entry for a hypothesis id.
func (d *Delta) Hypothesis(id uuid.UUID) (*EntityDelta, bool) {
	key := id.String()
	for i := range d.Entities {
		if d.Entities[i].Kind == EntityHypothesis && d.Entities[i].ID == key {
			return &d.Entities[i], true
		}
	}
	return nil, false
}

func (d *Delta) Narrative(name string) (*EntityDelta, bool) {
	for i := range d.Entities {
		if d.Entities[i].Kind == EntityNarrative && d.Entities[i].ID == name {
			return &d.Entities[i], true
		}
	}
	return nil, false
}

type StatusTransition struct {
	HypothesisID uuid.UUID        `json:"hypothesis_id"`
	From         HypothesisStatus `json:"from"`
	To           HypothesisStatus `json:"to"`
	Reason       string           `json:"reason"`
}

type FlagKind string

const (
	FlagStaleCandidate  FlagKind = "stale_candidate"
	FlagShakyConviction FlagKind = "shaky_conviction"
	FlagOrphanWatch     FlagKind = "orphan_watch"
	FlagRuleChurn       FlagKind = "rule_churn"
)

// AdvisoryFlag is raised by the read-only self-review pass for the next cycle.
type AdvisoryFlag struct {
	ID         uuid.UUID `json:"id"`
	Kind       FlagKind  `json:"kind"`
	TargetID   string    `json:"target_id"`
	Note       string    `json:"note"`
	RaisedAt   time.Time `json:"raised_at"`
	ReviewedAt int64     `json:"reviewed_sequence"`
}

// CycleReport is the sole structured artifact handed to presentation logic.
type CycleReport struct {
	Snapshot         *Snapshot          `json:"snapshot"`
	Delta            Delta              `json:"delta"`
	Transitions      []StatusTransition `json:"transitions"`
	Mistakes         []MistakeRecord    `json:"mistakes"`
	PhaseTransitions []PhaseTransition  `json:"phase_transitions"`
	RulesRecorded    []uuid.UUID        `json:"rules_recorded"`
	RulesGraduated   []uuid.UUID        `json:"rules_graduated"`
	FlagsConsumed    []AdvisoryFlag     `json:"flags_consumed"`
}
