package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/marketmind/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine errors to HTTP statuses. Unknown errors are
// reported as 500 with a fixed message.
func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidObservation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConcurrentCycleConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrCorruptState):
		writeError(w, http.StatusInternalServerError, "snapshot state is corrupt; manual recovery required")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
