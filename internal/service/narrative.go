package service

import (
	"sort"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"go.uber.org/zap"
)

const momentumHistoryLen = 3

type Thresholds struct {
	MomentumFloor    float64
	LowAttention     float64
	CrowdedAttention float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MomentumFloor:    0,
		LowAttention:     0.3,
		CrowdedAttention: 0.7,
	}
}

// PhaseClassifier buckets narratives into phases with one cycle of hysteresis.
type PhaseClassifier struct {
	th     Thresholds
	logger *zap.Logger
}

func NewPhaseClassifier(th Thresholds, logger *zap.Logger) *PhaseClassifier {
	return &PhaseClassifier{th: th, logger: logger}
}

// Apply updates narrative tracks on the working copy and returns the phase
// changes committed this cycle.
func (c *PhaseClassifier) Apply(work *domain.Snapshot, batch *domain.ObservationBatch, seq int64, now time.Time) []domain.PhaseTransition {
	readings := append([]domain.NarrativeReading{}, batch.Narratives...)
	sort.SliceStable(readings, func(i, j int) bool { return readings[i].Name < readings[j].Name })

	var transitions []domain.PhaseTransition
	seen := map[string]bool{}
	for _, r := range readings {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true

		track, ok := work.Narratives[r.Name]
		if !ok {
			track = &domain.NarrativeTrack{
				Name:           r.Name,
				Phase:          domain.PhaseUnclassified,
				PhaseEnteredAt: now,
			}
			work.Narratives[r.Name] = track
		}
		track.MomentumScore = r.Momentum
		track.AttentionScore = r.Attention
		track.MomentumHistory = append(track.MomentumHistory, r.Momentum)
		if n := len(track.MomentumHistory); n > momentumHistoryLen {
			track.MomentumHistory = track.MomentumHistory[n-momentumHistoryLen:]
		}

		if t, ok := c.settle(track, c.Candidate(track), seq, now); ok {
			transitions = append(transitions, t)
		}
	}

	// Confirmation has to come from the very next reading.
	for name, track := range work.Narratives {
		if !seen[name] && track.PendingPhase != "" {
			track.PendingPhase = ""
			track.PendingSince = 0
		}
	}
	return transitions
}

// Candidate is the raw classification of a track's latest readings before
// hysteresis is applied. A score sitting exactly on a threshold that decides
// the outcome keeps the committed phase.
func (c *PhaseClassifier) Candidate(t *domain.NarrativeTrack) domain.Phase {
	committed := t.Phase
	tie := committed != domain.PhaseUnclassified

	m, a := t.MomentumScore, t.AttentionScore
	overlookBoundary := a == c.th.LowAttention || m == c.th.MomentumFloor
	switch {
	case a > c.th.CrowdedAttention:
		return domain.PhasePeak
	case a == c.th.CrowdedAttention:
		if tie {
			return committed
		}
		return domain.PhasePeak
	case (committed == domain.PhaseHeatingUp || committed == domain.PhasePeak) && lastTwo(t, func(v float64) bool { return v < 0 }):
		return domain.PhaseCoolingDown
	case !overlookBoundary && a < c.th.LowAttention && m > c.th.MomentumFloor:
		return domain.PhaseOverlooked
	case tie && overlookBoundary && a <= c.th.LowAttention && m >= c.th.MomentumFloor:
		return committed
	case lastTwo(t, func(v float64) bool { return v > 0 }):
		return domain.PhaseHeatingUp
	default:
		return committed
	}
}

// settle commits a candidate that was already pending last cycle. PEAK
// commits immediately; anything else waits for confirmation.
func (c *PhaseClassifier) settle(t *domain.NarrativeTrack, candidate domain.Phase, seq int64, now time.Time) (domain.PhaseTransition, bool) {
	switch {
	case candidate == t.Phase:
		t.PendingPhase = ""
		t.PendingSince = 0
		return domain.PhaseTransition{}, false
	case candidate == domain.PhasePeak, t.PendingPhase == candidate && t.PendingSince < seq:
		tr := domain.PhaseTransition{Narrative: t.Name, From: t.Phase, To: candidate, Cycle: seq, At: now}
		t.Phase = candidate
		t.PhaseEnteredAt = now
		t.PendingPhase = ""
		t.PendingSince = 0
		c.logger.Info("narrative phase committed",
			zap.String("narrative", t.Name),
			zap.String("from", string(tr.From)),
			zap.String("phase", string(candidate)),
			zap.Int64("cycle_sequence", seq))
		return tr, true
	default:
		t.PendingPhase = candidate
		t.PendingSince = seq
		return domain.PhaseTransition{}, false
	}
}

func lastTwo(t *domain.NarrativeTrack, pred func(float64) bool) bool {
	n := len(t.MomentumHistory)
	if n < 2 {
		return false
	}
	return pred(t.MomentumHistory[n-1]) && pred(t.MomentumHistory[n-2])
}
