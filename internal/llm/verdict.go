package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/marketmind/internal/domain"
)

// completer is the provider-specific half of a reasoning client.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// assess renders the prompt, calls the provider and parses its answer.
// Transport failures are wrapped with ErrReasoningServiceUnavailable.
func assess(ctx context.Context, c completer, h domain.Hypothesis, batch *domain.ObservationBatch) (domain.ReasoningVerdict, error) {
	prompt := fmt.Sprintf(assessPrompt, renderHypothesis(h), renderObservations(batch))

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.ReasoningVerdict{}, fmt.Errorf("%w: %w", domain.ErrReasoningServiceUnavailable, err)
	}
	return parseVerdict(raw)
}

type verdictResponse struct {
	Verdict       string `json:"verdict"`
	Justification string `json:"justification"`
	Lesson        string `json:"lesson"`
}

// parseVerdict accepts only the three verdict values. Anything else is malformed.
func parseVerdict(raw string) (domain.ReasoningVerdict, error) {
	raw = strings.TrimSpace(raw)
	// Strip markdown fences if present
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var resp verdictResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return domain.ReasoningVerdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedVerdict, err)
	}

	v := strings.ToUpper(strings.TrimSpace(resp.Verdict))
	if !domain.ValidVerdict(v) {
		return domain.ReasoningVerdict{}, fmt.Errorf("%w: verdict %q", domain.ErrMalformedVerdict, resp.Verdict)
	}

	return domain.ReasoningVerdict{
		Verdict:       domain.Verdict(v),
		Justification: strings.TrimSpace(resp.Justification),
		Lesson:        strings.TrimSpace(resp.Lesson),
	}, nil
}

func renderHypothesis(h domain.Hypothesis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Statement: %s\n", h.Statement)
	fmt.Fprintf(&sb, "Confidence: %s\n", h.Confidence)
	if h.Expectation != nil {
		fmt.Fprintf(&sb, "Expects: %s %s (%s signal)\n", h.Expectation.Subject, h.Expectation.Direction, h.Expectation.Signal)
	}
	if h.Rationale != "" {
		fmt.Fprintf(&sb, "Rationale: %s\n", h.Rationale)
	}
	return sb.String()
}

func renderObservations(batch *domain.ObservationBatch) string {
	if batch == nil {
		return "(none)\n"
	}

	var sb strings.Builder
	regime, _ := batch.Regime.Resolve()
	fields := regime.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "regime %s: %s\n", name, fields[name])
	}

	for _, m := range batch.Metrics {
		fmt.Fprintf(&sb, "metric %s", m.Subject)
		if m.Kind != "" {
			fmt.Fprintf(&sb, " [%s]", m.Kind)
		}
		writePct(&sb, "24h", m.Change24h)
		writePct(&sb, "7d", m.Change7d)
		writePct(&sb, "30d", m.Change30d)
		sb.WriteString("\n")
	}

	for _, n := range batch.Narratives {
		fmt.Fprintf(&sb, "narrative %s: momentum %.2f, attention %.2f\n", n.Name, n.Momentum, n.Attention)
	}
	return sb.String()
}

func writePct(sb *strings.Builder, label string, v *float64) {
	if v == nil {
		return
	}
	fmt.Fprintf(sb, " %s %+.2f%%", label, *v)
}
