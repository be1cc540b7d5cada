// Package http exposes funnel sessions over a JSON API, with state diffs streamed as server-sent events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/session"
)

// Server serves the session API.
//
//	POST /funnels/{funnelID}/sessions        start (or fetch) a session
//	GET  /sessions/{sessionID}               current state and view
//	POST /sessions/{sessionID}/pages/{page}  submit the answers of a page
//	POST /sessions/{sessionID}/back          return to the previous page
//	GET  /sessions/{sessionID}/events        state diffs as server-sent events
type Server struct {
	Engine      *funnel.Engine
	Sessions    *session.Manager
	Interceptor runner.Interceptor
	Streams     *StreamManager
	Logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithInterceptor replaces the default answer validation.
func WithInterceptor(i runner.Interceptor) Option {
	return func(s *Server) {
		s.Interceptor = i
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewServer creates a Server. Declared validations are enforced unless WithInterceptor says otherwise.
func NewServer(engine *funnel.Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:      engine,
		Sessions:    sessions,
		Interceptor: runner.ValidationInterceptor(answers.New()),
		Streams:     NewStreamManager(),
		Logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes mounts the API on a new router. Extra routes (metrics, pprof) can be added by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.health)
	r.Get("/info", s.info)
	r.Post("/funnels/{funnelID}/sessions", s.start)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.get)
		r.Post("/pages/{pageID}", s.submit)
		r.Post("/back", s.back)
		r.Get("/events", s.events)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest is the body of the start endpoint. Every field is optional.
type StartRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	VisitorID string         `json:"visitor_id,omitempty"`
	Version   domain.Version `json:"version,omitempty"`
}

// SubmitRequest is the body of the submit endpoint.
type SubmitRequest struct {
	Answers map[string]any `json:"answers"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "funnel-http",
		"version": strings.TrimSpace(funnel.Version),
	})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	funnelID := chi.URLParam(r, "funnelID")
	var body StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}

	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	state, created, err := s.Sessions.LoadOrCreate(r.Context(), body.SessionID, func(ctx context.Context) (*domain.State, error) {
		t, err := s.Engine.Start(ctx, funnelID, funnel.StartOptions{
			SessionID: body.SessionID,
			VisitorID: body.VisitorID,
			Version:   body.Version,
		})
		if err != nil {
			return nil, err
		}
		return t.State(), nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if state.FunnelID != funnelID {
		s.fail(w, r, fmt.Errorf("%w: session %s belongs to funnel %s", errConflict, state.SessionID, state.FunnelID))
		return
	}

	step, err := s.current(r.Context(), state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		s.Logger.Info("session started", "session_id", state.SessionID, "funnel_id", funnelID)
	}
	writeJSON(w, status, step)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	step, err := s.current(r.Context(), state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if _, err := runner.SanitizeAnswers(body.Answers); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	pageID := chi.URLParam(r, "pageID")
	s.transition(w, r, func(ctx context.Context, t *funnel.Tracker) (*runner.Step, error) {
		return runner.CheckAndSubmit(ctx, t, s.Interceptor, pageID, body.Answers)
	})
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(ctx context.Context, t *funnel.Tracker) (*runner.Step, error) {
		step, _, err := runner.BackAndRender(ctx, t)
		return step, err
	})
}

// transition runs fn on the session under its lock, saves the result and broadcasts the diff.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, *funnel.Tracker) (*runner.Step, error)) {
	sessionID := chi.URLParam(r, "sessionID")
	var step *runner.Step
	_, err := s.Sessions.Update(r.Context(), sessionID, func(state *domain.State) (*domain.State, error) {
		t, err := s.Engine.Resume(r.Context(), state)
		if err != nil {
			return nil, err
		}
		if step, err = fn(r.Context(), t); err != nil {
			return nil, err
		}
		return step.State, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if step.Diff != nil {
		if raw, err := json.Marshal(step.Diff); err == nil {
			s.Streams.Broadcast(sessionID, string(raw))
		}
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) current(ctx context.Context, state *domain.State) (*runner.Step, error) {
	step := &runner.Step{State: state, Next: state.CurrentPageID}
	if state.IsComplete() {
		step.Next = domain.Complete
		return step, nil
	}
	t, err := s.Engine.Resume(ctx, state)
	if err != nil {
		return nil, err
	}
	if step.View, err = t.View(); err != nil {
		return nil, err
	}
	return step, nil
}

var (
	errBadRequest = errors.New("bad request")
	errConflict   = errors.New("conflict")
)

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var aggr *answers.AggregateError
	switch {
	case errors.As(err, &aggr):
		status = http.StatusUnprocessableEntity
		resp.Errors = aggr.ByBlock()
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDefinitionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionComplete), errors.Is(err, domain.ErrPageMismatch), errors.Is(err, errConflict):
		status = http.StatusConflict
	}

	log := s.Logger.With("method", r.Method, "path", r.URL.Path, "status", status, "request_id", middleware.GetReqID(r.Context()))
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Debug("request rejected", "err", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StreamManager fans state diffs out to the event subscribers of each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{subscribers: make(map[string]map[chan string]struct{})}
}

// Subscribe registers a buffered channel for sessionID. The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast delivers msg to every subscriber of sessionID. Slow subscribers miss messages.
func (sm *StreamManager) Broadcast(sessionID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, r, errors.New("streaming not supported"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var watch []string
	if q := r.URL.Query().Get("watch"); q != "" {
		watch = strings.Split(q, ",")
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matches reports whether a diff touches one of the watched fields.
func matches(msg string, watch []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "answers":
			if len(diff.Answers) > 0 {
				return true
			}
		case "variables":
			if len(diff.Variables) > 0 {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		case "page":
			if diff.CurrentPageID != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		}
	}
	return false
}
