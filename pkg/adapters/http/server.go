package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/liveparams"
	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Panel is the subset of liveparams.Panel the server drives.
type Panel interface {
	HandleMap(ctx context.Context, raw map[string]any) ([]domain.Message, error)
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	Safety(ctx context.Context) domain.SafetyState
}

// HostControl drives a simulated host. Only the reference host implements it.
type HostControl interface {
	SetActiveCommand(cmd string)
	Activate(ctx context.Context, name string) error
}

// Server serves the panel protocol over HTTP.
type Server struct {
	panel     Panel
	streams   *StreamManager
	host      HostControl
	metrics   http.Handler
	validator *requestValidator
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHostControl mounts the /host endpoints for a simulated host.
func WithHostControl(host HostControl) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler. streams must be (part of) the palette the
// panel sends to, so /events clients receive every message.
func NewHandler(panel Panel, streams *StreamManager, opts ...Option) (http.Handler, error) {
	s := &Server{
		panel:   panel,
		streams: streams,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	if s.validator, err = newRequestValidator(doc); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/snapshot", s.GetSnapshot)
	r.Get("/safety", s.GetSafety)
	r.Get("/events", s.SubscribeEvents)

	r.Group(func(r chi.Router) {
		r.Use(s.validator.middleware)
		r.Post("/actions", s.PostAction)
		if s.host != nil {
			r.Post("/host/command", s.SetActiveCommand)
			r.Post("/host/activate", s.ActivateDocument)
		}
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActionResponse is the body of a successful POST /actions.
type ActionResponse struct {
	Messages []domain.Message `json:"messages"`
}

// PostAction handles the POST /actions request.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("PostAction: Invalid request body", "err", err)
		return
	}

	msgs, err := s.panel.HandleMap(r.Context(), raw)
	switch {
	case errors.Is(err, liveparams.ErrClosed):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		s.logger.Warn("PostAction: Action rejected", "err", err)
		return
	}

	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, ActionResponse{Messages: msgs})
}

// GetSnapshot handles the GET /snapshot request.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.panel.Snapshot(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNoActiveDocument) {
			status = http.StatusConflict
		}
		writeJSON(w, status, domain.ScanFailure{Error: domain.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SafetyResponse is the body of GET /safety.
type SafetyResponse struct {
	Busy    bool             `json:"busy"`
	Cause   domain.BusyCause `json:"cause,omitempty"`
	Command string           `json:"command"`
}

// GetSafety handles the GET /safety request.
func (s *Server) GetSafety(w http.ResponseWriter, r *http.Request) {
	state := s.panel.Safety(r.Context())
	writeJSON(w, http.StatusOK, SafetyResponse{Busy: state.Busy, Cause: state.Cause, Command: state.Command})
}

// SetActiveCommand handles the POST /host/command request.
func (s *Server) SetActiveCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.host.SetActiveCommand(body.Command)
	s.logger.Info("Host command changed", "command", body.Command)
	w.WriteHeader(http.StatusNoContent)
}

// ActivateDocument handles the POST /host/activate request.
func (s *Server) ActivateDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Document string `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.host.Activate(r.Context(), body.Document); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "liveparams-http",
		"version": strings.TrimSpace(liveparams.Version),
	})
}

// SubscribeEvents handles the GET /events request (SSE).
// Each panel message becomes one event named after its channel.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()
	s.logger.Info("SSE: Panel connected", "subscribers", s.streams.Subscribers())

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Panel disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
