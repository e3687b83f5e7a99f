package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
)

// MockClient is a configurable reasoning client for testing and demos.
// Set Response for the default answer, or Responses to answer per hypothesis.
type MockClient struct {
	Response  domain.ReasoningVerdict
	Responses map[uuid.UUID]domain.ReasoningVerdict
	Error     error

	mu sync.Mutex
	// Call tracking for assertions
	AssessCalls []uuid.UUID
}

func NewMockClient() *MockClient {
	return &MockClient{
		Response:  domain.ReasoningVerdict{Verdict: domain.VerdictInconclusive, Justification: "Mock verdict"},
		Responses: map[uuid.UUID]domain.ReasoningVerdict{},
	}
}

func (c *MockClient) Assess(ctx context.Context, h domain.Hypothesis, batch *domain.ObservationBatch) (domain.ReasoningVerdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.AssessCalls = append(c.AssessCalls, h.ID)
	if c.Error != nil {
		return domain.ReasoningVerdict{}, c.Error
	}
	if v, ok := c.Responses[h.ID]; ok {
		return v, nil
	}
	return c.Response, nil
}
