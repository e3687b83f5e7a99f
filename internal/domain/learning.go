package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RootCause string

const (
	RootCauseNarrativeTiming RootCause = "narrative_timing"
	RootCausePriceStructure  RootCause = "price_structure"
	RootCauseSocialSignal    RootCause = "social_signal"
	RootCauseMacro           RootCause = "macro"
	RootCauseDataQuality     RootCause = "data_quality"
)

func ValidRootCause(c string) bool {
	switch RootCause(c) {
	case RootCauseNarrativeTiming, RootCausePriceStructure, RootCauseSocialSignal, RootCauseMacro, RootCauseDataQuality:
		return true
	}
	return false
}

// RootCauseFor maps the kind of contradicting evidence to a category.
func RootCauseFor(kind SignalKind) RootCause {
	switch kind {
	case SignalNarrative:
		return RootCauseNarrativeTiming
	case SignalPrice:
		return RootCausePriceStructure
	case SignalSocial:
		return RootCauseSocialSignal
	case SignalMacro:
		return RootCauseMacro
	default:
		return RootCauseDataQuality
	}
}

// MistakeRecord is append-only: written once, never edited or deleted.
type MistakeRecord struct {
	ID                uuid.UUID `json:"id" yaml:"id"`
	HypothesisID      uuid.UUID `json:"hypothesis_id" yaml:"hypothesis_id"`
	Claim             string    `json:"claim" yaml:"claim"`
	ActualOutcome     string    `json:"actual_outcome" yaml:"actual_outcome"`
	RootCauseCategory RootCause `json:"root_cause_category" yaml:"root_cause_category"`
	RuleDelta         string    `json:"rule_delta" yaml:"rule_delta"`
	RuleID            uuid.UUID `json:"rule_id" yaml:"rule_id"`
	Cycle             int64     `json:"cycle" yaml:"cycle"`
	RecordedAt        time.Time `json:"recorded_at" yaml:"recorded_at"`
}

type RuleStatus string

const (
	RuleActive    RuleStatus = "ACTIVE"
	RuleGraduated RuleStatus = "GRADUATED"
)

// Condition is the set of qualifiers a rule applies to, e.g. "subject:btc_dominance"
// or "signal:price". Fewer qualifiers means a more general rule.
type Condition []string

// NewCondition normalizes qualifiers into a sorted, de-duplicated set.
func NewCondition(qualifiers ...string) Condition {
	seen := make(map[string]bool, len(qualifiers))
	var out Condition
	for _, q := range qualifiers {
		q = strings.ToLower(strings.TrimSpace(q))
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Covers reports whether every qualifier of c is present in other.
func (c Condition) Covers(other Condition) bool {
	set := make(map[string]bool, len(other))
	for _, q := range other {
		set[q] = true
	}
	for _, q := range c {
		if !set[q] {
			return false
		}
	}
	return true
}

// StrictlyGeneralizes reports whether c covers other and has fewer qualifiers.
func (c Condition) StrictlyGeneralizes(other Condition) bool {
	return len(c) < len(other) && c.Covers(other)
}

type Rule struct {
	ID             uuid.UUID   `json:"id" yaml:"id"`
	DomainCategory RootCause   `json:"domain_category" yaml:"domain_category"`
	Statement      string      `json:"statement" yaml:"statement"`
	Condition      Condition   `json:"condition" yaml:"condition"`
	Status         RuleStatus  `json:"status" yaml:"status"`
	Notes          []string    `json:"notes" yaml:"notes"`
	Supersedes     []uuid.UUID `json:"supersedes" yaml:"supersedes"`
	SupersededBy   *uuid.UUID  `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"`
	CreatedCycle   int64       `json:"created_cycle" yaml:"created_cycle"`
	CreatedAt      time.Time   `json:"created_at" yaml:"created_at"`
}

func (r *Rule) Clone() *Rule {
	c := *r
	c.Condition = append(Condition(nil), r.Condition...)
	c.Notes = append([]string(nil), r.Notes...)
	c.Supersedes = append([]uuid.UUID(nil), r.Supersedes...)
	if r.SupersededBy != nil {
		id := *r.SupersededBy
		c.SupersededBy = &id
	}
	return &c
}

// RuleDraft is an explicitly recorded rule (operator or collaborator supplied).
type RuleDraft struct {
	DomainCategory RootCause `json:"domain_category" validate:"required,oneof=narrative_timing price_structure social_signal macro data_quality"`
	Statement      string    `json:"statement" validate:"required"`
	Condition      []string  `json:"condition" validate:"required,min=1,dive,required"`
}
