// File path: internal/api/handlers.go
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/Katral_bw/internal/common"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
	defaultRunLimit    = 20
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.pipeline.Report()
	if report == nil {
		writeError(w, http.StatusNotFound, errors.New("no run has completed"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotFound, errors.New("run catalog disabled"))
		return
	}
	limit, err := intParam(r, "limit", defaultRunLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	runs, err := s.catalog.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusNotFound, errors.New("run catalog disabled"))
		return
	}
	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	data, err := s.catalog.Report(r.Context(), runID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, fmt.Errorf("run %s not found", runID))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	case len(data) == 0:
		writeError(w, http.StatusNotFound, fmt.Errorf("run %s has no stored report", runID))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing q parameter"))
		return
	}
	k, err := intParam(r, "k", defaultSearchLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if k > maxSearchLimit {
		k = maxSearchLimit
	}
	idx := s.pipeline.Index()
	if idx == nil {
		writeError(w, http.StatusNotFound, errors.New("no knowledge index available"))
		return
	}
	common.Logger().Info("api: knowledge search", "query", query, "k", k)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backend":  idx.Backend(),
		"degraded": idx.Degraded(),
		"results":  idx.Query(r.Context(), query, k),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	level := strings.TrimSpace(r.URL.Query().Get("level"))
	process := strings.TrimSpace(r.URL.Query().Get("process"))
	entries := make([]common.LogEntry, 0)
	for _, entry := range common.LogEntries() {
		if level != "" && !strings.EqualFold(entry.Level, level) {
			continue
		}
		if process != "" && entry.Process != process {
			continue
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return value, nil
}
