package domain

import (
	"context"

	"github.com/google/uuid"
)

// Commit is everything a cycle writes, applied atomically by the store.
type Commit struct {
	Snapshot *Snapshot
	// ExpectedSequence is the sequence of the snapshot the cycle was computed
	// against. The store rejects the commit if its head has moved.
	ExpectedSequence int64
	Mistakes         []MistakeRecord
	ConsumedFlags    []uuid.UUID
}

// SnapshotStore is the sole persistence boundary of the engine.
type SnapshotStore interface {
	// Load returns the latest snapshot, or EmptySnapshot on a store never saved to.
	Load(ctx context.Context) (*Snapshot, error)
	LoadSequence(ctx context.Context, sequence int64) (*Snapshot, error)
	Save(ctx context.Context, c Commit) error

	// Mistake log
	Mistakes(ctx context.Context, limit int) ([]MistakeRecord, error)

	// Advisory flags raised by the self-review pass
	EnqueueFlags(ctx context.Context, flags []AdvisoryFlag) error
	PendingFlags(ctx context.Context) ([]AdvisoryFlag, error)
}

// CycleLock guards against cycles running in other processes.
type CycleLock interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// ReasoningClient classifies one hypothesis against the fresh observations.
type ReasoningClient interface {
	Assess(ctx context.Context, h Hypothesis, batch *ObservationBatch) (ReasoningVerdict, error)
}

type MetricsRecorder interface {
	RecordCycle(outcome string, seconds float64)
	RecordTransition(from, to HypothesisStatus)
	RecordMistake(category RootCause)
	RecordPhaseCommit(phase Phase)
	RecordVerdictFallback(reason string)
}
