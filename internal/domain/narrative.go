package domain

import "time"

type Phase string

const (
	// PhaseUnclassified is held by a track until its first phase commits.
	PhaseUnclassified Phase = "UNCLASSIFIED"
	PhaseHeatingUp    Phase = "HEATING_UP"
	PhasePeak         Phase = "PEAK_ATTENTION"
	PhaseCoolingDown  Phase = "COOLING_DOWN"
	PhaseOverlooked   Phase = "OVERLOOKED"
)

func ValidPhase(p string) bool {
	switch Phase(p) {
	case PhaseUnclassified, PhaseHeatingUp, PhasePeak, PhaseCoolingDown, PhaseOverlooked:
		return true
	}
	return false
}

type NarrativeTrack struct {
	Name           string    `json:"name" yaml:"name"`
	Phase          Phase     `json:"phase" yaml:"phase"`
	MomentumScore  float64   `json:"momentum_score" yaml:"momentum_score"`
	AttentionScore float64   `json:"attention_score" yaml:"attention_score"`
	PhaseEnteredAt time.Time `json:"phase_entered_at" yaml:"phase_entered_at"`
	// PendingPhase is a provisional classification awaiting confirmation.
	PendingPhase Phase `json:"pending_phase,omitempty" yaml:"pending_phase,omitempty"`
	PendingSince int64 `json:"pending_since,omitempty" yaml:"pending_since,omitempty"`
	// MomentumHistory holds the most recent momentum readings, oldest first.
	MomentumHistory []float64 `json:"momentum_history" yaml:"momentum_history"`
}

func (t *NarrativeTrack) Clone() *NarrativeTrack {
	c := *t
	c.MomentumHistory = append([]float64(nil), t.MomentumHistory...)
	return &c
}

// PhaseTransition is a committed phase change reported in the CycleReport.
type PhaseTransition struct {
	Narrative string    `json:"narrative" yaml:"narrative"`
	From      Phase     `json:"from" yaml:"from"`
	To        Phase     `json:"to" yaml:"to"`
	Cycle     int64     `json:"cycle" yaml:"cycle"`
	At        time.Time `json:"at" yaml:"at"`
}
