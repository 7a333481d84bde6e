package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
)

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "daybreak",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleMorningReport returns the latest morning report result
func (s *Server) handleMorningReport(w http.ResponseWriter, r *http.Request) {
	result, at := s.state.Morning()
	if result == nil {
		s.writeError(w, http.StatusNotFound, "no morning report generated yet")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": at.Format(time.RFC3339),
		"text":         result.Text,
		"digest":       result.Digest,
		"watch_stocks": result.WatchStocks,
		"signals":      result.Signals,
		"tone":         result.Tone,
	})
}

// handleEveningReport returns the latest evening report text
func (s *Server) handleEveningReport(w http.ResponseWriter, r *http.Request) {
	text, at := s.state.Evening()
	if text == "" {
		s.writeError(w, http.StatusNotFound, "no evening report generated yet")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": at.Format(time.RFC3339),
		"text":         text,
	})
}

// handleLatestRecommendations returns the stored picks for the most
// recent report date
func (s *Server) handleLatestRecommendations(w http.ResponseWriter, r *http.Request) {
	day, err := s.store.LatestDay(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to look up latest report day")
		s.writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if day == "" {
		s.writeError(w, http.StatusNotFound, "no recommendations stored yet")
		return
	}

	s.writeRecommendations(w, r, day)
}

// handleRecommendationsByDay returns the stored picks for one date
func (s *Server) handleRecommendationsByDay(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if !dayPattern.MatchString(day) {
		s.writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	s.writeRecommendations(w, r, day)
}

func (s *Server) writeRecommendations(w http.ResponseWriter, r *http.Request, day string) {
	rows, err := s.store.ListByDay(r.Context(), day)
	if err != nil {
		s.log.Error().Err(err).Str("day", day).Msg("Failed to list recommendations")
		s.writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"day":             day,
		"recommendations": rows,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
