// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/skillswap/internal/domain/lifecycle"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/types"
	"github.com/okian/skillswap/pkg/logger"
)

// CallerHeader carries the authenticated user id, set by the gateway in
// front of this service.
const CallerHeader = "X-User-ID"

const defaultRequestTimeout = 15 * time.Second

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Suggestions(ctx context.Context, userID, skill string, limit int) ([]types.Entry, error)
	Score(ctx context.Context, userID, candidateID, skill string) (model.ScoreResult, error)

	CreateMatch(ctx context.Context, req lifecycle.CreateRequest) (model.MatchRecord, error)
	AcceptMatch(ctx context.Context, matchID, responderID string) (model.MatchRecord, error)
	DeclineMatch(ctx context.Context, matchID, responderID string) (model.MatchRecord, error)
	ExpireMatch(ctx context.Context, matchID, callerID string) (model.MatchRecord, error)
	RecordSession(ctx context.Context, matchID, callerID string) (model.MatchRecord, error)
	GetMatch(ctx context.Context, matchID, callerID string) (model.MatchRecord, error)
	ListMatches(ctx context.Context, userID string, status model.Status) ([]model.MatchRecord, error)
	PendingMatches(ctx context.Context, userID string) ([]model.MatchRecord, error)
}

// Entry mirrors the read shape returned by suggestion queries.
type Entry = types.Entry

// Option configures a Server.
type Option func(*Server)

// WithWebsocket mounts a websocket notification handler at /ws.
func WithWebsocket(h http.Handler) Option {
	return func(s *Server) { s.ws = h }
}

// WithRequestTimeout bounds non-streaming requests.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the access logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDocs mounts documentation routes.
func WithDocs(register func(chi.Router)) Option {
	return func(s *Server) { s.docs = register }
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	suggestionHandler *SuggestionHandler
	matchHandler      *MatchHandler

	ws      http.Handler
	docs    func(chi.Router)
	timeout time.Duration
	log     logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		suggestionHandler: NewSuggestionHandler(deps),
		matchHandler:      NewMatchHandler(deps),
		timeout:           defaultRequestTimeout,
		log:               logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.Metrics())
	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}
	if s.docs != nil {
		s.docs(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Get("/stats", s.statsHandler.HandleStats)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/users/{userID}", func(r chi.Router) {
				r.Use(requireCaller, requireSelf)
				r.Get("/suggestions", s.suggestionHandler.HandleSuggestions)
				r.Get("/score/{candidateID}", s.suggestionHandler.HandleScore)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Use(requireCaller)
				r.Post("/", s.matchHandler.HandleCreate)
				r.Get("/", s.matchHandler.HandleList)
				r.Get("/pending", s.matchHandler.HandlePending)
				r.Get("/{matchID}", s.matchHandler.HandleGet)
				r.Post("/{matchID}/accept", s.matchHandler.HandleAccept)
				r.Post("/{matchID}/decline", s.matchHandler.HandleDecline)
				r.Post("/{matchID}/expire", s.matchHandler.HandleExpire)
				r.Post("/{matchID}/sessions", s.matchHandler.HandleSession)
			})
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
