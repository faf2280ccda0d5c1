// Package httpapi exposes the editor service over HTTP: a WebSocket stream
// for keystroke-level editor events and marker reports, REST endpoints for
// verdict, publish, and history, and the Prometheus metrics endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ameditor/pkg/editor"
	"ameditor/pkg/history"
	"ameditor/pkg/logx"
	"ameditor/pkg/markers"
	"ameditor/pkg/metrics"
)

// Server is the editor service's HTTP surface.
type Server struct {
	manager    *editor.Manager
	markers    *markers.Store
	history    *history.Store
	activity   *metrics.QueryService
	logger     *logx.Logger
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer wires the HTTP surface to the session manager and stores.
// historyStore may be nil when the audit database is disabled; activity may
// be nil when no Prometheus URL is configured.
func NewServer(addr string, manager *editor.Manager, markerStore *markers.Store, historyStore *history.Store, activity *metrics.QueryService) *Server {
	s := &Server{
		manager:  manager,
		markers:  markerStore,
		history:  historyStore,
		activity: activity,
		logger:   logx.NewLogger("httpapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The editor client is served from anywhere during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed separately so tests can mount it
// on an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/activity", s.handleActivity)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("GET /api/sessions/{id}/verdict", s.handleVerdict)
	mux.HandleFunc("POST /api/sessions/{id}/publish", s.handlePublish)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/sessions/{id}/ws", s.handleWebSocket)

	return mux
}

// Start begins serving. Blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("🌐 Editor API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.manager.Count(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			since = ts
		}
	}
	s.writeJSON(w, http.StatusOK, logx.RecentEntries(component, since))
}

// handleActivity serves aggregated per-tenant validation and publish counts
// from the configured Prometheus.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		http.Error(w, "activity queries not configured", http.StatusNotFound)
		return
	}
	tenant := r.URL.Query().Get("tenant")
	if tenant == "" {
		http.Error(w, "tenant query parameter is required", http.StatusBadRequest)
		return
	}

	activity, err := s.activity.GetTenantActivity(r.Context(), tenant)
	if err != nil {
		s.logger.Error("failed to query tenant activity: %v", err)
		http.Error(w, "failed to query tenant activity", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, activity)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.manager.Create()
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID(),
		"tenant_id":  sess.TenantID(),
	})
}

// session resolves the path's session ID, writing a 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *editor.Session {
	sess := s.manager.Get(r.PathValue("id"))
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil
	}
	return sess
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	s.manager.Close(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerdict(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"verdict":     sess.Verdict().String(),
		"can_publish": sess.CanPublish(),
		"error_panel": sess.ErrorPanel(),
	})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Header string `json:"header,omitempty"`
	}
	if r.Body != nil {
		// An empty body means no header; anything else must be valid JSON.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	res, err := sess.Publish(r.Context(), req.Header)
	if err != nil {
		if errors.Is(err, editor.ErrFormNotActive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, []history.PublishRecord{})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	records, err := s.history.PublishHistory(r.Context(), sess.ID(), limit)
	if err != nil {
		s.logger.Error("failed to load publish history: %v", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []history.PublishRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}
