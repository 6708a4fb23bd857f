// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/kb"
	"github.com/nicodishanthj/Katral_bw/internal/sqlite"
	"github.com/nicodishanthj/Katral_bw/internal/workflow"
)

// Pipeline exposes the outcome of the most recent run.
type Pipeline interface {
	Report() *workflow.MigrationReport
	Index() *kb.Index
}

// RunCatalog lists runs recorded in the catalog.
type RunCatalog interface {
	ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
	Report(ctx context.Context, runID string) ([]byte, error)
}

// Server is the read-only inspection API.
type Server struct {
	router   chi.Router
	pipeline Pipeline
	catalog  RunCatalog
}

// NewServer builds the router. catalog may be nil when no run catalog is
// configured.
func NewServer(pipeline Pipeline, catalog RunCatalog) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline required")
	}
	srv := &Server{
		router:   chi.NewRouter(),
		pipeline: pipeline,
		catalog:  catalog,
	}
	srv.routes()
	common.Logger().Info("api: server ready", "catalog", catalog != nil)
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Get("/v1/report", s.handleReport)
	s.router.Get("/v1/runs", s.handleRuns)
	s.router.Get("/v1/runs/{runID}/report", s.handleRunReport)
	s.router.Get("/v1/knowledge/search", s.handleKnowledgeSearch)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
