package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/service"
)

type CycleHandler struct {
	engine *service.Engine
}

func NewCycleHandler(engine *service.Engine) *CycleHandler {
	return &CycleHandler{engine: engine}
}

// Run handles POST /v1/cycles. The body is one observation batch.
func (h *CycleHandler) Run(w http.ResponseWriter, r *http.Request) {
	var batch domain.ObservationBatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.engine.RunCycle(r.Context(), &batch)
	if err != nil {
		writeEngineError(w, err, "failed to run cycle")
		return
	}

	writeJSON(w, http.StatusCreated, report)
}
