package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
)

const maxBodyBytes = 64 << 10

// MatchHandler serves the match lifecycle routes. Every route acts on
// behalf of the caller in CallerHeader.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

type matchListResponse struct {
	Count   int                 `json:"count"`
	Matches []model.MatchRecord `json:"matches"`
}

// HandleCreate handles POST /api/v1/matches.
func (h *MatchHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.CreateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	req.InitiatorID = callerFrom(r.Context())

	rec, err := h.deps.CreateMatch(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/matches/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// HandleList handles GET /api/v1/matches?status=.
func (h *MatchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var status model.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
		status = st
	}
	recs, err := h.deps.ListMatches(r.Context(), callerFrom(r.Context()), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeList(w, recs)
}

// HandlePending handles GET /api/v1/matches/pending.
func (h *MatchHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	recs, err := h.deps.PendingMatches(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeList(w, recs)
}

func writeList(w http.ResponseWriter, recs []model.MatchRecord) {
	if recs == nil {
		recs = []model.MatchRecord{}
	}
	writeJSON(w, http.StatusOK, matchListResponse{Count: len(recs), Matches: recs})
}

type matchAction func(ctx context.Context, matchID, callerID string) (model.MatchRecord, error)

func (h *MatchHandler) act(w http.ResponseWriter, r *http.Request, fn matchAction) {
	rec, err := fn(r.Context(), chi.URLParam(r, "matchID"), callerFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleGet handles GET /api/v1/matches/{matchID}.
func (h *MatchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.deps.GetMatch)
}

// HandleAccept handles POST /api/v1/matches/{matchID}/accept.
func (h *MatchHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.deps.AcceptMatch)
}

// HandleDecline handles POST /api/v1/matches/{matchID}/decline.
func (h *MatchHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.deps.DeclineMatch)
}

// HandleExpire handles POST /api/v1/matches/{matchID}/expire.
func (h *MatchHandler) HandleExpire(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.deps.ExpireMatch)
}

// HandleSession handles POST /api/v1/matches/{matchID}/sessions.
func (h *MatchHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.deps.RecordSession)
}
