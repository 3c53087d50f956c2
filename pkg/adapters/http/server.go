// Package http exposes palette sessions over a JSON API with server-sent events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Engine is the read side of the palette engine used by the API.
type Engine interface {
	Search(query string, scope domain.Scope) ([]domain.Result, error)
	Actions() []domain.ActionNode
	Get(id string) (domain.ActionNode, bool)
	Conflicts() []domain.ShortcutConflict
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Server serves the palette API.
type Server struct {
	Engine   Engine
	Sessions *session.Manager
	Factory  session.NavigatorFactory
	Streams  *StreamManager
	Logger   *slog.Logger
	Version  string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = strings.TrimSpace(v)
	}
}

// NewHandler creates the HTTP handler. Navigation requests run against a navigator
// built by factory and are persisted through sessions.
func NewHandler(engine Engine, sessions *session.Manager, factory session.NavigatorFactory, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		Factory:  factory,
		Streams:  NewStreamManager(),
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger
	return enableCORS(s.Routes())
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)

	r.Get("/actions", s.ListActions)
	r.Get("/actions/{id}", s.GetAction)
	r.Get("/search", s.Search)
	r.Get("/conflicts", s.ListConflicts)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/open", s.Open)
			r.Post("/close", s.Close)
			r.Post("/query", s.SetQuery)
			r.Post("/move", s.Move)
			r.Post("/drill", s.Drill)
			r.Post("/back", s.Back)
			r.Post("/commit", s.Commit)
			r.Post("/perform", s.Perform)
			r.Post("/keys", s.Key)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "palette-http",
		"version": s.Version,
	})
}

// ListActions handles GET /actions, in display order.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Actions())
}

// GetAction handles GET /actions/{id}.
func (s *Server) GetAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	node, ok := s.Engine.Get(id)
	if !ok {
		s.writeError(w, &domain.ActionError{Op: "get", ID: id, Err: domain.ErrActionNotFound})
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// Search handles GET /search?q=...&scope=....
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := s.Engine.Search(q.Get("q"), domain.Within(q.Get("scope")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

// ListConflicts handles GET /conflicts.
func (s *Server) ListConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts := s.Engine.Conflicts()
	if conflicts == nil {
		conflicts = []domain.ShortcutConflict{}
	}
	s.writeJSON(w, http.StatusOK, conflicts)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles POST /sessions and returns a new open session.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scope string `json:"scope"`
	}
	if !s.decodeOptional(w, r, &body) {
		return
	}
	id := uuid.NewString()
	s.navigate(w, r, id, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		return nil, nav.Open(ctx, body.Scope)
	}, http.StatusCreated)
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.Sessions.Load(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.navigate(w, r, id, func(context.Context, ports.Navigator) (*domain.Outcome, error) {
		return nil, nil
	}, http.StatusOK)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Open handles POST /sessions/{sessionID}/open.
func (s *Server) Open(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Scope string `json:"scope"`
	}
	if !s.decodeOptional(w, r, &body) {
		return
	}
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		return nil, nav.Open(ctx, body.Scope)
	})
}

// Close handles POST /sessions/{sessionID}/close.
func (s *Server) Close(w http.ResponseWriter, r *http.Request) {
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		nav.Close(ctx)
		return nil, nil
	})
}

// SetQuery handles POST /sessions/{sessionID}/query.
func (s *Server) SetQuery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		if !nav.State().Open {
			if err := nav.Open(ctx, ""); err != nil {
				return nil, err
			}
		}
		nav.SetQuery(ctx, body.Query)
		return nil, nil
	})
}

// Move handles POST /sessions/{sessionID}/move.
func (s *Server) Move(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta int `json:"delta"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		nav.MoveActive(ctx, body.Delta)
		return &domain.Outcome{Kind: domain.OutcomeMoved}, nil
	})
}

// Drill handles POST /sessions/{sessionID}/drill.
func (s *Server) Drill(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		return &domain.Outcome{Kind: domain.OutcomeDrilled, ActionID: body.ID}, nav.DrillInto(ctx, body.ID)
	})
}

// Back handles POST /sessions/{sessionID}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		if nav.Back(ctx) {
			return &domain.Outcome{Kind: domain.OutcomeClosed}, nil
		}
		return &domain.Outcome{Kind: domain.OutcomeMoved}, nil
	})
}

// Commit handles POST /sessions/{sessionID}/commit.
func (s *Server) Commit(w http.ResponseWriter, r *http.Request) {
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		out, err := nav.Commit(ctx)
		return &out, err
	})
}

// Perform handles POST /sessions/{sessionID}/perform.
func (s *Server) Perform(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		out, err := nav.Perform(ctx, body.ID)
		return &out, err
	})
}

// Key handles POST /sessions/{sessionID}/keys. The key is a token such as "ctrl+k",
// or a space-separated sequence ("g s") since pending sequences do not outlive a request.
func (s *Server) Key(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	keys, err := domain.NormalizeShortcut(domain.SplitShortcut(body.Key))
	if err == nil && len(keys) == 0 {
		err = domain.ErrInvalidShortcut
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.navigateParam(w, r, func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error) {
		var last domain.Outcome
		for _, k := range keys {
			out, err := nav.HandleKey(ctx, domain.KeyEvent{Key: k})
			if err != nil {
				return nil, err
			}
			if out.Kind != domain.OutcomeNone {
				last = out
			}
		}
		return &last, nil
	})
}

// SessionView is the response of every session endpoint.
type SessionView struct {
	State   domain.NavigationState `json:"state"`
	Results []domain.Result        `json:"results"`
	Outcome *OutcomeView           `json:"outcome,omitempty"`
}

// OutcomeView is a domain.Outcome with its error rendered as text.
type OutcomeView struct {
	Kind     domain.OutcomeKind `json:"kind"`
	ActionID string             `json:"action_id,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type navFunc func(ctx context.Context, nav ports.Navigator) (*domain.Outcome, error)

func (s *Server) navigateParam(w http.ResponseWriter, r *http.Request, fn navFunc) {
	s.navigate(w, r, chi.URLParam(r, "sessionID"), fn, http.StatusOK)
}

// navigate runs fn inside the session, broadcasts the state diff and writes the view.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, id string, fn navFunc, status int) {
	var view SessionView
	var before *domain.NavigationState
	err := s.Sessions.Navigate(r.Context(), id, s.Factory, func(nav ports.Navigator) error {
		before = nav.Snapshot()
		out, err := fn(r.Context(), nav)
		if err != nil {
			return err
		}
		view.State = nav.State()
		view.Results = nav.Visible(r.Context())
		if out != nil {
			view.Outcome = &OutcomeView{Kind: out.Kind, ActionID: out.ActionID}
			if out.Err != nil {
				view.Outcome.Error = out.Err.Error()
			}
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if diff := domain.Diff(before, &view.State); diff != nil {
		if data, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(data))
		}
	}
	if view.Results == nil {
		view.Results = []domain.Result{}
	}
	s.writeJSON(w, status, view)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	http.Error(w, "Invalid request body", http.StatusBadRequest)
	s.Logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrActionNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidShortcut), errors.Is(err, domain.ErrDrillIntoLeaf):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
