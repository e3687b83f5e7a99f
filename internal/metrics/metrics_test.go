package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.RecordCycle("committed", 0.2)
	r.RecordCycle("committed", 0.3)
	r.RecordCycle("conflict", 0.01)
	r.RecordTransition(domain.StatusForming, domain.StatusActive)
	r.RecordMistake(domain.RootCauseMacro)
	r.RecordPhaseCommit(domain.PhasePeak)
	r.RecordVerdictFallback("timeout")
	r.RecordRequest(http.MethodPost, http.StatusConflict, 0.05)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cycles.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transitions.WithLabelValues("FORMING", "ACTIVE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mistakes.WithLabelValues(string(domain.RootCauseMacro))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseCommits.WithLabelValues(string(domain.PhasePeak))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.verdictFallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("POST", "4xx")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.RecordCycle("committed", 1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketmind_engine_cycles_total{outcome="committed"} 1`)
}
