package handlers

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/service"
)

type HypothesisHandler struct {
	engine *service.Engine
}

func NewHypothesisHandler(engine *service.Engine) *HypothesisHandler {
	return &HypothesisHandler{engine: engine}
}

// List handles GET /v1/hypotheses?status=ACTIVE
func (h *HypothesisHandler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(r.URL.Query().Get("status"))
	if status == "" {
		status = string(domain.StatusActive)
	}
	if !domain.ValidHypothesisStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	hs, err := h.engine.HypothesesByStatus(r.Context(), domain.HypothesisStatus(status))
	if err != nil {
		writeEngineError(w, err, "failed to list hypotheses")
		return
	}
	if hs == nil {
		hs = []domain.Hypothesis{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypotheses": hs, "count": len(hs)})
}
