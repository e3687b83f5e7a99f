package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/service"
)

const defaultMistakeLimit = 50

// ReviewHandler serves the learning-side views: mistakes, advisory flags and
// on-demand self-review.
type ReviewHandler struct {
	engine *service.Engine
	review *service.ReviewService
}

func NewReviewHandler(engine *service.Engine, review *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{engine: engine, review: review}
}

// Mistakes handles GET /v1/mistakes?limit=20
func (h *ReviewHandler) Mistakes(w http.ResponseWriter, r *http.Request) {
	limit := defaultMistakeLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	mistakes, err := h.engine.Mistakes(r.Context(), limit)
	if err != nil {
		writeEngineError(w, err, "failed to list mistakes")
		return
	}
	if mistakes == nil {
		mistakes = []domain.MistakeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"mistakes": mistakes, "count": len(mistakes)})
}

// Flags handles GET /v1/flags
func (h *ReviewHandler) Flags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.engine.PendingFlags(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list flags")
		return
	}
	if flags == nil {
		flags = []domain.AdvisoryFlag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": flags, "count": len(flags)})
}

// Review handles POST /v1/review. It raises flags but never commits a snapshot.
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	flags, err := h.review.Review(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to run review")
		return
	}
	if flags == nil {
		flags = []domain.AdvisoryFlag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"raised": flags, "count": len(flags)})
}
