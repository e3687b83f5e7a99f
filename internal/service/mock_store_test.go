package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockSnapshotStore keeps committed snapshots in memory with the same
// compare-and-swap semantics as the real stores.
type mockSnapshotStore struct {
	mu         sync.Mutex
	snapshots  map[int64]*domain.Snapshot
	head       int64
	mistakes   []domain.MistakeRecord
	flags      map[uuid.UUID]domain.AdvisoryFlag
	loadErr    error
	beforeSave func()
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{
		snapshots: map[int64]*domain.Snapshot{},
		flags:     map[uuid.UUID]domain.AdvisoryFlag{},
	}
}

func (m *mockSnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.head == 0 {
		return domain.EmptySnapshot(), nil
	}
	return m.snapshots[m.head].Clone(), nil
}

func (m *mockSnapshotStore) LoadSequence(ctx context.Context, seq int64) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[seq]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *mockSnapshotStore) Save(ctx context.Context, c domain.Commit) error {
	if m.beforeSave != nil {
		m.beforeSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.head != c.ExpectedSequence {
		return fmt.Errorf("%w: head %d", domain.ErrConcurrentCycleConflict, m.head)
	}
	m.snapshots[c.Snapshot.CycleSequence] = c.Snapshot.Clone()
	m.head = c.Snapshot.CycleSequence
	m.mistakes = append(m.mistakes, c.Mistakes...)
	for _, id := range c.ConsumedFlags {
		delete(m.flags, id)
	}
	return nil
}

func (m *mockSnapshotStore) Mistakes(ctx context.Context, limit int) ([]domain.MistakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MistakeRecord{}, m.mistakes...), nil
}

func (m *mockSnapshotStore) EnqueueFlags(ctx context.Context, flags []domain.AdvisoryFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range flags {
		m.flags[f.ID] = f
	}
	return nil
}

func (m *mockSnapshotStore) PendingFlags(ctx context.Context) ([]domain.AdvisoryFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AdvisoryFlag{}
	for _, f := range m.flags {
		out = append(out, f)
	}
	return out, nil
}

// seed commits s directly as the current head.
func (m *mockSnapshotStore) seed(s *domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.CycleSequence] = s.Clone()
	m.head = s.CycleSequence
}

type mockReasoningClient struct {
	mock.Mock
}

func (m *mockReasoningClient) Assess(ctx context.Context, h domain.Hypothesis, batch *domain.ObservationBatch) (domain.ReasoningVerdict, error) {
	args := m.Called(ctx, h.ID)
	return args.Get(0).(domain.ReasoningVerdict), args.Error(1)
}

func ptr[T any](v T) *T { return &v }

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// hypothesis builds a live hypothesis keyed on its statement.
func hypothesis(statement string, conf domain.Confidence, status domain.HypothesisStatus, exp *domain.Expectation) *domain.Hypothesis {
	key := domain.NormalizeStatement(statement)
	return &domain.Hypothesis{
		ID:            domain.HypothesisID(key, 1),
		Key:           key,
		Generation:    1,
		Statement:     statement,
		Confidence:    conf,
		Status:        status,
		Expectation:   exp,
		CreatedCycle:  1,
		CreatedAt:     testNow,
		LastTouchedAt: testNow,
		SupportingEvidence: []domain.ObservationRef{
			{Cycle: 1, Source: "proposal"},
		},
	}
}

func snapshotWith(seq int64, hs ...*domain.Hypothesis) *domain.Snapshot {
	s := domain.EmptySnapshot()
	s.CycleSequence = seq
	s.CapturedAt = testNow
	for _, h := range hs {
		s.Hypotheses[h.ID] = h
	}
	return s
}
