// Seed script for creating a demo belief state in marketmind.
// Run with: go run ./scripts/seed.go
//
// It runs three cycles against the configured store: proposals, one cycle of
// support that promotes a hypothesis, and one contradiction that invalidates
// another and records a rule.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Harshitk-cp/marketmind/internal/bootstrap"
	"github.com/Harshitk-cp/marketmind/internal/config"
	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	rotation = "Alt rotation starts as BTC dominance rolls over"
	solBreak = "SOL breaks out against ETH this month"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(config.LogLevel())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	rt, err := bootstrap.New(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to open engine: %v", err)
	}
	defer rt.Close()

	current, err := rt.Engine.CurrentSnapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}
	if current.CycleSequence > 0 {
		log.Fatalf("Store already holds %d cycles; seed only an empty store", current.CycleSequence)
	}

	for i, batch := range demoBatches() {
		report, err := rt.Engine.RunCycle(ctx, batch)
		if err != nil {
			log.Fatalf("Cycle %d failed: %v", i+1, err)
		}
		logger.Info("seeded cycle",
			zap.Int64("cycle_sequence", report.Snapshot.CycleSequence),
			zap.Int("transitions", len(report.Transitions)),
			zap.Int("mistakes", len(report.Mistakes)))
	}

	final, err := rt.Engine.CurrentSnapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	fmt.Println("")
	fmt.Println("========================================")
	fmt.Println("Demo belief state created!")
	fmt.Println("========================================")
	fmt.Printf("Cycle:      %d\n", final.CycleSequence)
	fmt.Printf("Regime:     %s / %s\n", final.Regime.RiskAppetite, final.Regime.TrendDirection)
	for _, status := range []domain.HypothesisStatus{domain.StatusForming, domain.StatusActive, domain.StatusInvalidated} {
		for _, h := range final.HypothesesByStatus(status) {
			fmt.Printf("%-12s %-6s %s\n", h.Status, h.Confidence, h.Statement)
		}
	}
	fmt.Printf("Rules:      %d active\n", len(final.ActiveRules(nil)))
	fmt.Printf("Watchlist:  %d entries\n", len(final.Watchlist))
	fmt.Println("========================================")
}

func demoBatches() []*domain.ObservationBatch {
	rotationID := domain.HypothesisID(domain.NormalizeStatement(rotation), 1)
	solID := domain.HypothesisID(domain.NormalizeStatement(solBreak), 1)

	return []*domain.ObservationBatch{
		{
			Regime: regime("risk_on", "up"),
			Metrics: []domain.MetricDelta{
				{Subject: "BTC.D", Kind: domain.SignalPrice, Change24h: pct(-0.4)},
				{Subject: "SOL/ETH", Kind: domain.SignalPrice, Change24h: pct(0.3)},
			},
			Narratives: []domain.NarrativeReading{{Name: "restaking", Momentum: 0.2, Attention: 0.15}},
			Proposals: []domain.HypothesisProposal{
				{
					Statement:        rotation,
					Confidence:       domain.ConfidenceMedium,
					Expectation:      &domain.Expectation{Subject: "BTC.D", Direction: domain.DirectionDown, Signal: domain.SignalPrice},
					TriggerCondition: "BTC.D loses 54%",
					Rationale:        "ETH/BTC reclaiming the weekly range",
				},
				{
					Statement:   solBreak,
					Confidence:  domain.ConfidenceLow,
					Expectation: &domain.Expectation{Subject: "SOL/ETH", Direction: domain.DirectionUp, Signal: domain.SignalPrice},
				},
			},
		},
		{
			Regime: regime("risk_on", "up"),
			Metrics: []domain.MetricDelta{
				{Subject: "BTC.D", Kind: domain.SignalPrice, Change24h: pct(-1.6), Change7d: pct(-2.4)},
				{Subject: "SOL/ETH", Kind: domain.SignalPrice, Change24h: pct(0.1)},
			},
			Narratives: []domain.NarrativeReading{{Name: "restaking", Momentum: 0.35, Attention: 0.2}},
			Verdicts: map[uuid.UUID]domain.ReasoningVerdict{
				rotationID: {Verdict: domain.VerdictConsistent, Justification: "dominance down 1.6% with alts bid"},
				solID:      {Verdict: domain.VerdictInconclusive, Justification: "flat"},
			},
		},
		{
			Regime: regime("neutral", "sideways"),
			Metrics: []domain.MetricDelta{
				{Subject: "BTC.D", Kind: domain.SignalPrice, Change24h: pct(-0.2)},
				{Subject: "SOL/ETH", Kind: domain.SignalPrice, Change24h: pct(-4.1)},
			},
			Narratives: []domain.NarrativeReading{{Name: "restaking", Momentum: 0.4, Attention: 0.25}},
			Verdicts: map[uuid.UUID]domain.ReasoningVerdict{
				rotationID: {Verdict: domain.VerdictInconclusive, Justification: "dominance flat"},
				solID: {
					Verdict:       domain.VerdictContrary,
					Justification: "SOL/ETH down 4.1% on unlock supply",
					Lesson:        "Check the token unlock calendar before calling relative strength",
				},
			},
		},
	}
}

func regime(risk, trend string) domain.RegimeReadings {
	return domain.RegimeReadings{RiskAppetite: &risk, TrendDirection: &trend}
}

func pct(v float64) *float64 {
	return &v
}
