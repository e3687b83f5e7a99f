package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

var confidenceLadder = []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh}

func ValidConfidence(c string) bool {
	switch Confidence(c) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Rank orders confidence levels; unknown values rank below LOW.
func (c Confidence) Rank() int {
	for i, step := range confidenceLadder {
		if step == c {
			return i
		}
	}
	return -1
}

// Raise returns the next level up. It never moves more than one step.
func (c Confidence) Raise() Confidence {
	r := c.Rank()
	if r < 0 {
		return ConfidenceLow
	}
	if r+1 >= len(confidenceLadder) {
		return c
	}
	return confidenceLadder[r+1]
}

// Lower returns the next level down, saturating at LOW.
func (c Confidence) Lower() Confidence {
	r := c.Rank()
	if r <= 0 {
		return ConfidenceLow
	}
	return confidenceLadder[r-1]
}

func (c Confidence) AtLeast(other Confidence) bool {
	return c.Rank() >= other.Rank()
}

type HypothesisStatus string

const (
	StatusForming     HypothesisStatus = "FORMING"
	StatusActive      HypothesisStatus = "ACTIVE"
	StatusInvalidated HypothesisStatus = "INVALIDATED"
	StatusRetired     HypothesisStatus = "RETIRED"
)

func ValidHypothesisStatus(s string) bool {
	switch HypothesisStatus(s) {
	case StatusForming, StatusActive, StatusInvalidated, StatusRetired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s HypothesisStatus) Terminal() bool {
	return s == StatusInvalidated || s == StatusRetired
}

// Live reports whether the Diff Engine evaluates hypotheses in this status.
func (s HypothesisStatus) Live() bool {
	return s == StatusForming || s == StatusActive
}

// CanTransition encodes the lifecycle state machine.
func (s HypothesisStatus) CanTransition(to HypothesisStatus) bool {
	switch s {
	case StatusForming:
		return to == StatusActive || to == StatusInvalidated
	case StatusActive:
		return to == StatusInvalidated || to == StatusRetired
	}
	return false
}

type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// SignalKind is the type of evidence an expectation is checked against.
type SignalKind string

const (
	SignalPrice     SignalKind = "price"
	SignalMacro     SignalKind = "macro"
	SignalSocial    SignalKind = "social"
	SignalNarrative SignalKind = "narrative"
)

func ValidSignalKind(k string) bool {
	switch SignalKind(k) {
	case SignalPrice, SignalMacro, SignalSocial, SignalNarrative:
		return true
	}
	return false
}

// Expectation makes a hypothesis checkable against raw metric deltas.
type Expectation struct {
	Subject   string     `json:"subject" yaml:"subject" validate:"required"`
	Direction Direction  `json:"direction" yaml:"direction" validate:"oneof=UP DOWN"`
	Signal    SignalKind `json:"signal" yaml:"signal" validate:"oneof=price macro social narrative"`
}

// ObservationRef points at the piece of an observation batch used as evidence.
type ObservationRef struct {
	Cycle   int64  `json:"cycle" yaml:"cycle"`
	Source  string `json:"source" yaml:"source"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

type Hypothesis struct {
	ID                   uuid.UUID        `json:"id" yaml:"id"`
	Key                  string           `json:"key" yaml:"key"`
	Generation           int              `json:"generation" yaml:"generation"`
	Statement            string           `json:"statement" yaml:"statement"`
	Confidence           Confidence       `json:"confidence" yaml:"confidence"`
	Status               HypothesisStatus `json:"status" yaml:"status"`
	Expectation          *Expectation     `json:"expectation,omitempty" yaml:"expectation,omitempty"`
	TriggerCondition     string           `json:"trigger_condition,omitempty" yaml:"trigger_condition,omitempty"`
	Rationale            string           `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	CreatedCycle         int64            `json:"created_cycle" yaml:"created_cycle"`
	QuietCycles          int              `json:"quiet_cycles" yaml:"quiet_cycles"`
	CreatedAt            time.Time        `json:"created_at" yaml:"created_at"`
	LastTouchedAt        time.Time        `json:"last_touched_at" yaml:"last_touched_at"`
	SupportingEvidence   []ObservationRef `json:"supporting_evidence" yaml:"supporting_evidence"`
	InvalidatingEvidence []ObservationRef `json:"invalidating_evidence" yaml:"invalidating_evidence"`
}

// SupportedAfterCreation reports whether any supporting evidence arrived in a
// cycle other than the one that created the hypothesis.
func (h *Hypothesis) SupportedAfterCreation() bool {
	for _, ref := range h.SupportingEvidence {
		if ref.Cycle != h.CreatedCycle {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so working copies never alias a committed snapshot.
func (h *Hypothesis) Clone() *Hypothesis {
	c := *h
	if h.Expectation != nil {
		e := *h.Expectation
		c.Expectation = &e
	}
	c.SupportingEvidence = append([]ObservationRef(nil), h.SupportingEvidence...)
	c.InvalidatingEvidence = append([]ObservationRef(nil), h.InvalidatingEvidence...)
	return &c
}

var (
	hypothesisNamespace = uuid.MustParse("6f1c2a8e-5b7d-4c1e-9a43-1d2f0e7b9c55")
	nonWord             = regexp.MustCompile(`[^a-z0-9%.+\-]+`)
)

// NormalizeStatement produces the content key used for hypothesis identity.
func NormalizeStatement(statement string) string {
	s := strings.ToLower(strings.TrimSpace(statement))
	s = nonWord.ReplaceAllString(s, " ")
	var words []string
	for _, w := range strings.Fields(s) {
		if w = strings.Trim(w, "."); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// HypothesisID derives a stable id from the normalized statement and the
// generation, so the same thesis proposed in consecutive cycles merges.
func HypothesisID(key string, generation int) uuid.UUID {
	return uuid.NewSHA1(hypothesisNamespace, []byte(fmt.Sprintf("%s#%d", key, generation)))
}
