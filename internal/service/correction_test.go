package service

import (
	"testing"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordInvalidationWithoutExpectationIsDataQuality(t *testing.T) {
	r := NewRecorder(zap.NewNop())
	h := hypothesis("Liquidity returning", domain.ConfidenceMedium, domain.StatusInvalidated, nil)
	work := snapshotWith(2, h)

	res := r.RecordInvalidation(work, h, &domain.EntityDelta{
		Verdict: domain.ReasoningVerdict{Verdict: domain.VerdictContrary, Justification: "stablecoin supply shrinking"},
	}, 3, testNow)

	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, domain.RootCauseDataQuality, res.Mistakes[0].RootCauseCategory)
	assert.Equal(t, "stablecoin supply shrinking", res.Mistakes[0].ActualOutcome)
	require.Len(t, res.Recorded, 1)
	assert.Equal(t, domain.Condition{"expectation:none"}, work.Rules[res.Recorded[0]].Condition)
}

func TestRecordRuleGraduatesOnlyStrictlyGeneralizedSameCategory(t *testing.T) {
	r := NewRecorder(zap.NewNop())
	work := snapshotWith(1)

	specific := &domain.Rule{ID: uuid.New(), DomainCategory: domain.RootCauseMacro, Condition: domain.NewCondition("signal:macro", "subject:dxy"), Status: domain.RuleActive}
	equal := &domain.Rule{ID: uuid.New(), DomainCategory: domain.RootCauseMacro, Condition: domain.NewCondition("signal:macro"), Status: domain.RuleActive}
	otherCategory := &domain.Rule{ID: uuid.New(), DomainCategory: domain.RootCauseDataQuality, Condition: domain.NewCondition("signal:macro", "subject:dxy"), Status: domain.RuleActive}
	for _, rule := range []*domain.Rule{specific, equal, otherCategory} {
		work.Rules[rule.ID] = rule
	}

	rule, graduated := r.RecordRule(work, domain.RuleDraft{
		DomainCategory: domain.RootCauseMacro,
		Statement:      "Read the dollar before any macro call",
		Condition:      []string{"Signal:Macro"},
	}, 2, testNow)

	assert.Equal(t, []uuid.UUID{specific.ID}, graduated)
	assert.Equal(t, domain.RuleGraduated, work.Rules[specific.ID].Status)
	assert.Equal(t, domain.RuleActive, work.Rules[equal.ID].Status)
	assert.Equal(t, domain.RuleActive, work.Rules[otherCategory.ID].Status)
	assert.Len(t, work.Rules, 4, "rules are never deleted")
	assert.Equal(t, domain.RuleActive, rule.Status)
}
