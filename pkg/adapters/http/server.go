// Package http exposes the engine over HTTP: JSON control endpoints, the
// offset-based log poll, an SSE event stream, the parameter schema,
// history, Prometheus metrics and the OpenAPI document.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/schema"
)

// Engine is the controller surface the HTTP adapter drives.
type Engine interface {
	RequestRun(params map[string]any) (string, error)
	RequestAction(name string) (string, error)
	RequestTerminate()
	Poll(offset int) domain.PollResponse
	Status() (domain.RunStatus, string)
	Busy() bool
	Subscribe() (chan string, func())
	History(ctx context.Context) ([]domain.HistoryRecord, error)
	HistoryRecord(ctx context.Context, id string) (domain.HistoryRecord, error)
}

// Server wires an Engine to the HTTP routes. Create with NewServer, mount
// via Handler.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	spec     *openapi3.T
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the given registry on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a Server. It fails if the embedded OpenAPI document
// does not validate, so a broken build is caught at startup rather than by
// the first client.
func NewServer(engine Engine, opts ...Option) (*Server, error) {
	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine: engine,
		logger: slog.Default(),
		spec:   doc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler with CORS enabled.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/openapi.yaml", s.getOpenAPI)
	r.Get("/docs", s.getDocs)

	r.Post("/api/run", s.postRun)
	r.Post("/api/terminate", s.postTerminate)
	r.Post("/api/action", s.postAction)
	r.Get("/api/poll", s.getPoll)
	r.Get("/api/status", s.getStatus)
	r.Get("/api/schema", s.getSchema)
	r.Get("/api/history", s.getHistory)
	r.Get("/api/history/{id}", s.getHistoryRecord)
	r.Get("/api/events", s.streamEvents)
	r.Get("/api/info", s.getInfo)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

type runRequest struct {
	Params map[string]any `json:"params"`
}

type actionRequest struct {
	Name string `json:"name"`
}

type taskResponse struct {
	ID     string           `json:"id"`
	Status domain.RunStatus `json:"status"`
}

type statusResponse struct {
	Status  domain.RunStatus `json:"status"`
	Message string           `json:"message"`
	Busy    bool             `json:"busy"`
}

type schemaResponse struct {
	Parameters []schema.Parameter `json:"parameters"`
	Actions    []string           `json:"actions"`
}

func (s *Server) postRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid run request", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.engine.RequestRun(req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, taskResponse{ID: id, Status: domain.StatusRunning})
}

func (s *Server) postTerminate(w http.ResponseWriter, r *http.Request) {
	s.engine.RequestTerminate()
	status, message := s.engine.Status()
	s.writeJSON(w, http.StatusAccepted, statusResponse{Status: status, Message: message, Busy: s.engine.Busy()})
}

func (s *Server) postAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid action request", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.engine.RequestAction(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, taskResponse{ID: id, Status: domain.StatusRunning})
}

func (s *Server) getPoll(w http.ResponseWriter, r *http.Request) {
	var offset int
	if err := runtime.BindQueryParameter("form", true, false, "offset", r.URL.Query(), &offset); err != nil {
		s.logger.Warn("invalid poll request", "err", err)
		http.Error(w, "Invalid offset parameter", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Poll(offset))
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	status, message := s.engine.Status()
	s.writeJSON(w, http.StatusOK, statusResponse{Status: status, Message: message, Busy: s.engine.Busy()})
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, schemaResponse{
		Parameters: pipeline.Definitions(),
		Actions:    pipeline.Actions(),
	})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.History(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) getHistoryRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.HistoryRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// streamEvents relays the engine event stream over SSE. Each broadcast
// message is already a JSON-encoded event.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.engine.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "capsid",
		"version":     strings.TrimSpace(capsid.Version),
		"api_version": s.spec.Info.Version,
	})
}

func (s *Server) getOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	if _, err := w.Write(openapiSpec); err != nil {
		s.logger.Error("failed to write openapi document", "err", err)
	}
}

func (s *Server) getDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write([]byte(swaggerHTML)); err != nil {
		s.logger.Error("failed to write docs page", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrUnknownAction), errors.Is(err, domain.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Error("request failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// enableCORS allows browser hosts served from other origins to call the
// API directly.
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
