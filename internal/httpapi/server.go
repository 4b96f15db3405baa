package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conductor-ai/conductor/internal/runtime"
)

// Server is the HTTP+SSE front-end over the runtime orchestrator.
type Server struct {
	orchestrator *runtime.Orchestrator
	jwtSvc       *JWTService
	metrics      *Metrics
	logger       *slog.Logger
	mux          *http.ServeMux
}

// NewServer builds the HTTP+SSE front-end. registry may be nil, in which
// case the default Prometheus registry is used.
func NewServer(o *runtime.Orchestrator, jwtSvc *JWTService, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registry != nil {
		reg = registry
		gatherer = registry
	}

	s := &Server{
		orchestrator: o,
		jwtSvc:       jwtSvc,
		metrics:      NewMetrics(reg),
		logger:       logger,
		mux:          http.NewServeMux(),
	}

	s.mux.Handle("/chat", RequireAuth(jwtSvc, http.HandlerFunc(s.handleChat)))
	s.mux.Handle("/tasks", RequireAuth(jwtSvc, http.HandlerFunc(s.handleTasks)))
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.metrics.Refresh(s.orchestrator)
	s.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChat delivers a user message to the orchestrator and streams its
// onTextDelta fragments back as Server-Sent Events, terminating with a
// final "done" event carrying the assistant's complete text.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	onDelta := func(fragment string) {
		writeSSE(w, "delta", fragment)
		flusher.Flush()
	}

	final, err := s.orchestrator.OnUserMessage(r.Context(), req.Message, onDelta)
	if err != nil {
		writeSSE(w, "error", err.Error())
		flusher.Flush()
		return
	}

	writeSSE(w, "done", final.TextContent())
	flusher.Flush()
}

func writeSSE(w http.ResponseWriter, event, data string) {
	payload, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

// handleTasks reports the number of active workers as JSON. It does not
// list task records from disk.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"active_workers": s.orchestrator.Metrics().WorkersActive})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ListenAndServe starts the HTTP server, returning when ctx is cancelled or
// an unrecoverable error occurs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
