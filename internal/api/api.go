// Package api implements the HTTP API server for greenlens.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"

	"github.com/sprite-ai/greenlens/internal/annotate"
	"github.com/sprite-ai/greenlens/internal/session"
)

// Server is the greenlens HTTP API server.
type Server struct {
	addr      string
	mux       *http.ServeMux
	handler   http.Handler
	server    *http.Server
	annotator *annotate.Annotator // nil disables /api/analyze
	store     *session.Store
}

// New creates a new API server. The annotator may be nil, in which case
// only the output-based endpoints are served.
func New(addr string, a *annotate.Annotator, store *session.Store) *Server {
	if store == nil {
		store = session.New()
	}
	s := &Server{addr: addr, annotator: a, store: store}
	s.mux = http.NewServeMux()
	s.registerRoutes()

	// Editor webviews call the API from their own origins.
	s.handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With"}),
	)(s.mux)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.handler,
		ReadTimeout: 30 * time.Second,
		// Analyzer runs can take a while.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/annotate", s.handleAnnotate)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/annotations", s.handleGetAnnotations)
	s.mux.HandleFunc("DELETE /api/annotations", s.handleClearAnnotations)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	log.WithField("addr", s.addr).Info("greenlens API server listening")
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("json encode")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorJSON{Error: msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
