package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EngineConfig struct {
	StalenessCycles int
	Thresholds      Thresholds
	NoisePct        float64
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StalenessCycles: DefaultStalenessCycles,
		Thresholds:      DefaultThresholds(),
		NoisePct:        defaultNoisePct,
	}
}

// Engine is the orchestration boundary: it serializes cycles against one
// snapshot store and exposes the read-only query surface.
type Engine struct {
	store    domain.SnapshotStore
	lock     domain.CycleLock
	verdicts *VerdictCollector
	metrics  domain.MetricsRecorder
	validate *validator.Validate

	diff       *DiffEngine
	lifecycle  *LifecycleManager
	classifier *PhaseClassifier
	recorder   *Recorder

	inFlight atomic.Bool
	now      func() time.Time
	logger   *zap.Logger
}

func NewEngine(store domain.SnapshotStore, cfg EngineConfig, logger *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		metrics:    nopMetrics{},
		validate:   validator.New(),
		diff:       NewDiffEngine(cfg.NoisePct),
		lifecycle:  NewLifecycleManager(cfg.StalenessCycles, logger),
		classifier: NewPhaseClassifier(cfg.Thresholds, logger),
		recorder:   NewRecorder(logger),
		now:        time.Now,
		logger:     logger,
	}
}

// SetCycleLock adds a cross-process guard on top of the in-process one.
func (e *Engine) SetCycleLock(l domain.CycleLock) {
	e.lock = l
}

func (e *Engine) SetVerdictCollector(c *VerdictCollector) {
	e.verdicts = c
}

func (e *Engine) SetMetrics(m domain.MetricsRecorder) {
	e.metrics = m
}

func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// RunCycle loads the current snapshot, applies the batch to a working copy
// and commits the result once. Any failure leaves the prior snapshot intact.
func (e *Engine) RunCycle(ctx context.Context, batch *domain.ObservationBatch) (*domain.CycleReport, error) {
	if batch == nil {
		batch = &domain.ObservationBatch{}
	}
	if err := e.validate.Struct(batch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidObservation, err)
	}

	start := time.Now()
	report, err := e.runCycle(ctx, batch)
	e.metrics.RecordCycle(cycleOutcome(err), time.Since(start).Seconds())
	if err != nil {
		e.logger.Error("cycle failed", zap.Error(err))
		return nil, err
	}

	e.logger.Info("cycle committed",
		zap.Int64("cycle_sequence", report.Snapshot.CycleSequence),
		zap.Int("transitions", len(report.Transitions)),
		zap.Int("mistakes", len(report.Mistakes)),
		zap.Int("phase_transitions", len(report.PhaseTransitions)))
	return report, nil
}

func (e *Engine) runCycle(ctx context.Context, batch *domain.ObservationBatch) (*domain.CycleReport, error) {
	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	prev, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	flags, err := e.store.PendingFlags(ctx)
	if err != nil {
		return nil, fmt.Errorf("load advisory flags: %w", err)
	}

	// An empty batch has nothing to judge; asking the reasoning service would
	// turn it into a non-empty one.
	var outages []uuid.UUID
	if e.verdicts != nil && !batch.Empty() {
		batch, outages = e.verdicts.Collect(ctx, prev, batch)
	}

	seq := prev.CycleSequence + 1
	now := e.now().UTC()

	delta := e.diff.Compute(prev, batch)
	delta.ReasoningOutages = outages
	if len(delta.MissingReadings) > 0 && !delta.EmptyBatch {
		e.logger.Warn("regime readings marked unknown",
			zap.Strings("readings", delta.MissingReadings),
			zap.Error(domain.ErrMissingObservation))
	}

	work := prev.Clone()
	work.CycleSequence = seq
	work.CapturedAt = now
	work.Regime, _ = batch.Regime.Resolve()

	lc := e.lifecycle.Apply(work, &delta, batch, flags, seq, now)
	phases := e.classifier.Apply(work, batch, seq, now)

	var corr CorrectionResult
	for _, id := range lc.Invalidated {
		entity, ok := delta.Hypothesis(id)
		if !ok {
			continue
		}
		corr.merge(e.recorder.RecordInvalidation(work, work.Hypotheses[id], entity, seq, now))
	}
	for _, draft := range batch.RuleProposals {
		rule, graduated := e.recorder.RecordRule(work, draft, seq, now)
		corr.Recorded = append(corr.Recorded, rule.ID)
		corr.Graduated = append(corr.Graduated, graduated...)
	}

	consumed := make([]uuid.UUID, len(lc.Consumed))
	for i, f := range lc.Consumed {
		consumed[i] = f.ID
	}
	if err := e.store.Save(ctx, domain.Commit{
		Snapshot:         work,
		ExpectedSequence: prev.CycleSequence,
		Mistakes:         corr.Mistakes,
		ConsumedFlags:    consumed,
	}); err != nil {
		return nil, fmt.Errorf("commit snapshot %d: %w", seq, err)
	}

	for _, t := range lc.Transitions {
		e.metrics.RecordTransition(t.From, t.To)
	}
	for _, m := range corr.Mistakes {
		e.metrics.RecordMistake(m.RootCauseCategory)
	}
	for _, p := range phases {
		e.metrics.RecordPhaseCommit(p.To)
	}

	return &domain.CycleReport{
		Snapshot:         work,
		Delta:            delta,
		Transitions:      nonNil(lc.Transitions),
		Mistakes:         nonNil(corr.Mistakes),
		PhaseTransitions: nonNil(phases),
		RulesRecorded:    nonNil(corr.Recorded),
		RulesGraduated:   nonNil(corr.Graduated),
		FlagsConsumed:    nonNil(lc.Consumed),
	}, nil
}

// RecordRule commits an explicitly supplied rule outside an observation
// cycle. Everything else in the snapshot is carried forward unchanged.
func (e *Engine) RecordRule(ctx context.Context, draft domain.RuleDraft) (*domain.Rule, []uuid.UUID, error) {
	if err := e.validate.Struct(draft); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidObservation, err)
	}
	release, err := e.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	prev, err := e.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	seq := prev.CycleSequence + 1
	now := e.now().UTC()

	work := prev.Clone()
	work.CycleSequence = seq
	work.CapturedAt = now
	rule, graduated := e.recorder.RecordRule(work, draft, seq, now)

	if err := e.store.Save(ctx, domain.Commit{Snapshot: work, ExpectedSequence: prev.CycleSequence}); err != nil {
		return nil, nil, fmt.Errorf("commit rule: %w", err)
	}
	e.logger.Info("rule recorded",
		zap.String("rule_id", rule.ID.String()),
		zap.String("category", string(rule.DomainCategory)),
		zap.Int("graduated", len(graduated)))
	return rule, graduated, nil
}

func (e *Engine) CurrentSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	return e.store.Load(ctx)
}

func (e *Engine) SnapshotAt(ctx context.Context, sequence int64) (*domain.Snapshot, error) {
	return e.store.LoadSequence(ctx, sequence)
}

// ActiveRules returns ACTIVE rules, optionally restricted to one category.
func (e *Engine) ActiveRules(ctx context.Context, category *domain.RootCause) ([]domain.Rule, error) {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ActiveRules(category), nil
}

func (e *Engine) HypothesesByStatus(ctx context.Context, status domain.HypothesisStatus) ([]domain.Hypothesis, error) {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.HypothesesByStatus(status), nil
}

func (e *Engine) Mistakes(ctx context.Context, limit int) ([]domain.MistakeRecord, error) {
	return e.store.Mistakes(ctx, limit)
}

func (e *Engine) PendingFlags(ctx context.Context) ([]domain.AdvisoryFlag, error) {
	return e.store.PendingFlags(ctx)
}

// acquire rejects, rather than queues, a second cycle in this process or,
// when a lock is configured, in any other.
func (e *Engine) acquire(ctx context.Context) (func(), error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: a cycle is already running", domain.ErrConcurrentCycleConflict)
	}
	if e.lock == nil {
		return func() { e.inFlight.Store(false) }, nil
	}

	unlock, err := e.lock.Acquire(ctx)
	if err != nil {
		e.inFlight.Store(false)
		return nil, err
	}
	return func() {
		if err := unlock(context.Background()); err != nil {
			e.logger.Warn("failed to release cycle lock", zap.Error(err))
		}
		e.inFlight.Store(false)
	}, nil
}

func cycleOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, domain.ErrConcurrentCycleConflict):
		return "conflict"
	case errors.Is(err, domain.ErrCorruptState):
		return "corrupt_state"
	default:
		return "error"
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, float64)                                       {}
func (nopMetrics) RecordTransition(domain.HypothesisStatus, domain.HypothesisStatus) {}
func (nopMetrics) RecordMistake(domain.RootCause)                                    {}
func (nopMetrics) RecordPhaseCommit(domain.Phase)                                    {}
func (nopMetrics) RecordVerdictFallback(string)                                      {}
