package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fitdash/internal/analysis"
	"fitdash/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Health(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	info, err := s.insights.Streaks(r.Context(), userID)
	if err != nil {
		s.internalError(w, "streaks", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	progress, err := s.insights.Achievements(r.Context(), userID)
	if err != nil {
		s.internalError(w, "achievements", err)
		return
	}

	unlocked := 0
	for _, p := range progress {
		if p.Unlocked {
			unlocked++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unlocked":     unlocked,
		"total":        len(progress),
		"achievements": progress,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	records, err := s.insights.Records(r.Context(), userID)
	if err != nil {
		s.internalError(w, "records", err)
		return
	}
	if records == nil {
		records = []analysis.PersonalRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	data, err := s.insights.Predictions(r.Context(), userID)
	if err != nil {
		s.internalError(w, "predictions", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	alerts, err := s.insights.Alerts(r.Context(), userID, limit)
	if err != nil {
		s.internalError(w, "alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	err := s.insights.MarkAlertRead(r.Context(), userID, chi.URLParam(r, "alertID"))
	if errors.Is(err, store.ErrAlertNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert not found"})
		return
	}
	if err != nil {
		s.internalError(w, "mark alert read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	result, err := s.insights.Refresh(r.Context(), userID)
	if err != nil {
		s.internalError(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// userIDParam parses the {userID} path segment, writing a 400 when it is
// not a positive integer
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
