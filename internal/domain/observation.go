package domain

import "github.com/google/uuid"

type Verdict string

const (
	VerdictConsistent   Verdict = "CONSISTENT"
	VerdictContrary     Verdict = "CONTRARY"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

func ValidVerdict(v string) bool {
	switch Verdict(v) {
	case VerdictConsistent, VerdictContrary, VerdictInconclusive:
		return true
	}
	return false
}

// ReasoningVerdict is the constrained output of the reasoning service.
type ReasoningVerdict struct {
	Verdict       Verdict `json:"verdict"`
	Justification string  `json:"justification"`
	// Lesson optionally proposes the rule to adopt if the hypothesis is falsified.
	Lesson string `json:"lesson,omitempty"`
}

// Inconclusive is the fallback for a missing, failed or malformed verdict.
func Inconclusive(reason string) ReasoningVerdict {
	return ReasoningVerdict{Verdict: VerdictInconclusive, Justification: reason}
}

// MetricDelta carries percentage changes for one subject.
type MetricDelta struct {
	Subject   string     `json:"subject" validate:"required"`
	Kind      SignalKind `json:"kind" validate:"omitempty,oneof=price macro social narrative"`
	Change24h *float64   `json:"change_24h_pct,omitempty"`
	Change7d  *float64   `json:"change_7d_pct,omitempty"`
	Change30d *float64   `json:"change_30d_pct,omitempty"`
	Volume    *float64   `json:"volume,omitempty" validate:"omitempty,gte=0"`
}

type NarrativeReading struct {
	Name      string  `json:"name" validate:"required"`
	Momentum  float64 `json:"momentum"`
	Attention float64 `json:"attention" validate:"gte=0,lte=1"`
}

type HypothesisProposal struct {
	Statement        string       `json:"statement" validate:"required"`
	Confidence       Confidence   `json:"confidence" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Expectation      *Expectation `json:"expectation,omitempty" validate:"omitempty"`
	TriggerCondition string       `json:"trigger_condition,omitempty"`
	Rationale        string       `json:"rationale,omitempty"`
}

// ObservationBatch is the set of fresh readings supplied at the start of a cycle.
type ObservationBatch struct {
	Regime        RegimeReadings                 `json:"regime"`
	Metrics       []MetricDelta                  `json:"metrics" validate:"dive"`
	Narratives    []NarrativeReading             `json:"narratives" validate:"dive"`
	Verdicts      map[uuid.UUID]ReasoningVerdict `json:"verdicts,omitempty"`
	Proposals     []HypothesisProposal           `json:"proposals,omitempty" validate:"dive"`
	RuleProposals []RuleDraft                    `json:"rule_proposals,omitempty" validate:"dive"`
	FiredTriggers []string                       `json:"fired_triggers,omitempty"`
}

// Empty reports whether the batch carries no observation at all.
func (b *ObservationBatch) Empty() bool {
	r := b.Regime
	noRegime := r.RiskAppetite == nil && r.TrendDirection == nil && r.DominanceDirection == nil &&
		r.VolatilityLevel == nil && r.MacroBackdrop == nil
	return noRegime && len(b.Metrics) == 0 && len(b.Narratives) == 0 && len(b.Verdicts) == 0 &&
		len(b.Proposals) == 0 && len(b.RuleProposals) == 0 && len(b.FiredTriggers) == 0
}

// Metric returns the delta for a subject, if present.
func (b *ObservationBatch) Metric(subject string) (MetricDelta, bool) {
	for _, m := range b.Metrics {
		if m.Subject == subject {
			return m, true
		}
	}
	return MetricDelta{}, false
}

func (b *ObservationBatch) Narrative(name string) (NarrativeReading, bool) {
	for _, n := range b.Narratives {
		if n.Name == name {
			return n, true
		}
	}
	return NarrativeReading{}, false
}
