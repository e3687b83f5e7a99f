package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/service"
	"github.com/google/uuid"
)

type RuleHandler struct {
	engine *service.Engine
}

func NewRuleHandler(engine *service.Engine) *RuleHandler {
	return &RuleHandler{engine: engine}
}

// List handles GET /v1/rules?category=macro
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	var category *domain.RootCause
	if c := r.URL.Query().Get("category"); c != "" {
		if !domain.ValidRootCause(c) {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		rc := domain.RootCause(c)
		category = &rc
	}

	rules, err := h.engine.ActiveRules(r.Context(), category)
	if err != nil {
		writeEngineError(w, err, "failed to list rules")
		return
	}
	if rules == nil {
		rules = []domain.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

type recordRuleResponse struct {
	Rule      *domain.Rule `json:"rule"`
	Graduated []uuid.UUID  `json:"graduated"`
}

// Record handles POST /v1/rules
func (h *RuleHandler) Record(w http.ResponseWriter, r *http.Request) {
	var draft domain.RuleDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, graduated, err := h.engine.RecordRule(r.Context(), draft)
	if err != nil {
		writeEngineError(w, err, "failed to record rule")
		return
	}
	if graduated == nil {
		graduated = []uuid.UUID{}
	}
	writeJSON(w, http.StatusCreated, recordRuleResponse{Rule: rule, Graduated: graduated})
}
