package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder turns invalidations into mistake records and folds them into the
// rule set. It never deletes a rule or a mistake record.
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger}
}

type CorrectionResult struct {
	Mistakes  []domain.MistakeRecord
	Recorded  []uuid.UUID
	Graduated []uuid.UUID
}

func (r *CorrectionResult) merge(other CorrectionResult) {
	r.Mistakes = append(r.Mistakes, other.Mistakes...)
	r.Recorded = append(r.Recorded, other.Recorded...)
	r.Graduated = append(r.Graduated, other.Graduated...)
}

// RecordInvalidation produces the mistake record for a hypothesis that just
// moved to INVALIDATED and updates the rule set.
func (r *Recorder) RecordInvalidation(work *domain.Snapshot, h *domain.Hypothesis, e *domain.EntityDelta, seq int64, now time.Time) CorrectionResult {
	var res CorrectionResult

	// Only a hypothesis without an expectation is invalidated on the verdict
	// alone; with nothing measurable to check against, that is a data problem.
	category := domain.RootCauseDataQuality
	if e.CrossCheck != nil {
		category = domain.RootCauseFor(e.CrossCheck.Signal)
	}
	failure := failureCondition(h, e)
	lesson := strings.TrimSpace(e.Verdict.Lesson)

	mistake := domain.MistakeRecord{
		ID:                uuid.New(),
		HypothesisID:      h.ID,
		Claim:             h.Statement,
		ActualOutcome:     actualOutcome(h, e),
		RootCauseCategory: category,
		Cycle:             seq,
		RecordedAt:        now,
	}

	if rule := addressingRule(work, category, failure); rule != nil {
		if lesson == "" {
			lesson = fmt.Sprintf("again failed on %q", h.Statement)
		}
		note := fmt.Sprintf("cycle %d: %s", seq, lesson)
		rule.Notes = append(rule.Notes, note)
		mistake.RuleID = rule.ID
		mistake.RuleDelta = note
		r.logger.Info("rule amended",
			zap.String("rule_id", rule.ID.String()),
			zap.String("category", string(category)))
	} else {
		if lesson == "" {
			lesson = templateLesson(h, category)
		}
		rule := &domain.Rule{
			ID:             uuid.New(),
			DomainCategory: category,
			Statement:      lesson,
			Condition:      ruleCondition(failure),
			Status:         domain.RuleActive,
			CreatedCycle:   seq,
			CreatedAt:      now,
		}
		res.Graduated = r.adopt(work, rule)
		res.Recorded = append(res.Recorded, rule.ID)
		mistake.RuleID = rule.ID
		mistake.RuleDelta = "new rule: " + rule.Statement
	}

	res.Mistakes = append(res.Mistakes, mistake)
	r.logger.Info("mistake recorded",
		zap.String("hypothesis_id", h.ID.String()),
		zap.String("category", string(category)),
		zap.Int64("cycle_sequence", seq))
	return res
}

// RecordRule adds an explicitly supplied rule.
func (r *Recorder) RecordRule(work *domain.Snapshot, draft domain.RuleDraft, seq int64, now time.Time) (*domain.Rule, []uuid.UUID) {
	rule := &domain.Rule{
		ID:             uuid.New(),
		DomainCategory: draft.DomainCategory,
		Statement:      strings.TrimSpace(draft.Statement),
		Condition:      domain.NewCondition(draft.Condition...),
		Status:         domain.RuleActive,
		CreatedCycle:   seq,
		CreatedAt:      now,
	}
	return rule, r.adopt(work, rule)
}

// adopt inserts the rule and graduates every ACTIVE same-category rule whose
// condition it strictly generalizes.
func (r *Recorder) adopt(work *domain.Snapshot, rule *domain.Rule) []uuid.UUID {
	var graduated []uuid.UUID
	for _, prior := range work.ActiveRules(&rule.DomainCategory) {
		if !rule.Condition.StrictlyGeneralizes(prior.Condition) {
			continue
		}
		stored := work.Rules[prior.ID]
		stored.Status = domain.RuleGraduated
		id := rule.ID
		stored.SupersededBy = &id
		rule.Supersedes = append(rule.Supersedes, prior.ID)
		graduated = append(graduated, prior.ID)
		r.logger.Info("rule graduated",
			zap.String("rule_id", prior.ID.String()),
			zap.String("superseded_by", rule.ID.String()))
	}
	work.Rules[rule.ID] = rule
	return graduated
}

func addressingRule(work *domain.Snapshot, category domain.RootCause, failure domain.Condition) *domain.Rule {
	for _, candidate := range work.ActiveRules(&category) {
		if candidate.Condition.Covers(failure) {
			return work.Rules[candidate.ID]
		}
	}
	return nil
}

func failureCondition(h *domain.Hypothesis, e *domain.EntityDelta) domain.Condition {
	if h.Expectation == nil {
		return domain.NewCondition("expectation:none")
	}
	signal := h.Expectation.Signal
	if e.CrossCheck != nil && e.CrossCheck.Signal != "" {
		signal = e.CrossCheck.Signal
	}
	return domain.NewCondition(
		"subject:"+h.Expectation.Subject,
		"signal:"+string(signal),
		"direction:"+string(h.Expectation.Direction),
	)
}

// ruleCondition drops the direction so a new rule covers both sides of a subject.
func ruleCondition(failure domain.Condition) domain.Condition {
	var qs []string
	for _, q := range failure {
		if !strings.HasPrefix(q, "direction:") {
			qs = append(qs, q)
		}
	}
	return domain.NewCondition(qs...)
}

func actualOutcome(h *domain.Hypothesis, e *domain.EntityDelta) string {
	var parts []string
	if e.CrossCheck != nil && e.CrossCheck.Move != nil && h.Expectation != nil {
		parts = append(parts, fmt.Sprintf("%s moved %+.2f (%s), expected %s",
			h.Expectation.Subject, *e.CrossCheck.Move, e.CrossCheck.Source, h.Expectation.Direction))
	}
	if j := strings.TrimSpace(e.Verdict.Justification); j != "" {
		parts = append(parts, j)
	}
	if len(parts) == 0 {
		return "reasoning service judged the claim contrary to observations"
	}
	return strings.Join(parts, "; ")
}

func templateLesson(h *domain.Hypothesis, category domain.RootCause) string {
	if h.Expectation == nil {
		return "Attach a measurable expectation before acting on a thesis"
	}
	switch category {
	case domain.RootCauseNarrativeTiming:
		return fmt.Sprintf("Wait for a second cycle of momentum before calling %s", h.Expectation.Subject)
	case domain.RootCauseSocialSignal:
		return fmt.Sprintf("Discount social readings on %s without price confirmation", h.Expectation.Subject)
	case domain.RootCauseMacro:
		return fmt.Sprintf("Check the macro backdrop before a directional call on %s", h.Expectation.Subject)
	case domain.RootCauseDataQuality:
		return fmt.Sprintf("Confirm %s data from a second source", h.Expectation.Subject)
	default:
		return fmt.Sprintf("Require structure confirmation before calling %s %s", h.Expectation.Subject, strings.ToLower(string(h.Expectation.Direction)))
	}
}
