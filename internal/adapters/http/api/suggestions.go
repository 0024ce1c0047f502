package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// SuggestionHandler serves ranked suggestions and single pair scores.
type SuggestionHandler struct {
	deps Dependencies
}

// NewSuggestionHandler creates a new suggestion handler.
func NewSuggestionHandler(deps Dependencies) *SuggestionHandler {
	return &SuggestionHandler{deps: deps}
}

type suggestionsResponse struct {
	UserID  string  `json:"user_id"`
	Skill   string  `json:"skill,omitempty"`
	Count   int     `json:"count"`
	Matches []Entry `json:"matches"`
}

// HandleSuggestions handles GET /api/v1/users/{userID}/suggestions?skill=&limit=.
func (h *SuggestionHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	skill := r.URL.Query().Get("skill")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = n
	}

	entries, err := h.deps.Suggestions(r.Context(), userID, skill, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		UserID:  userID,
		Skill:   skill,
		Count:   len(entries),
		Matches: entries,
	})
}

// HandleScore handles GET /api/v1/users/{userID}/score/{candidateID}?skill=.
func (h *SuggestionHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Score(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "candidateID"), r.URL.Query().Get("skill"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
