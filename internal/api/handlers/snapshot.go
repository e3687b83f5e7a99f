package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/marketmind/internal/service"
	"github.com/Harshitk-cp/marketmind/internal/store"
	"github.com/go-chi/chi/v5"
)

type SnapshotHandler struct {
	engine *service.Engine
}

func NewSnapshotHandler(engine *service.Engine) *SnapshotHandler {
	return &SnapshotHandler{engine: engine}
}

// Current handles GET /v1/snapshot
func (h *SnapshotHandler) Current(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.CurrentSnapshot(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, store.NewDocument(snap))
}

// AtSequence handles GET /v1/snapshot/{seq}
func (h *SnapshotHandler) AtSequence(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseInt(chi.URLParam(r, "seq"), 10, 64)
	if err != nil || seq < 1 {
		writeError(w, http.StatusBadRequest, "invalid sequence")
		return
	}

	snap, err := h.engine.SnapshotAt(r.Context(), seq)
	if err != nil {
		writeEngineError(w, err, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, store.NewDocument(snap))
}

// Export handles GET /v1/snapshot/export and renders the snapshot as YAML.
func (h *SnapshotHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.CurrentSnapshot(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to load snapshot")
		return
	}

	out, err := store.EncodeYAML(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export snapshot")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
