package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindwell/stress-engine/internal/models"
	"github.com/mindwell/stress-engine/internal/service"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.stress.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Stress check-in handlers

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := s.stress.Submit(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		slog.Error("failed to record check-in", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to record check-in")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	limit := 30 // default
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 100 {
		limit = 100
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	history, err := s.stress.History(r.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("failed to load history", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"total":   len(history),
	})
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	p, err := s.stress.Patterns(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load patterns", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load patterns")
		return
	}

	if p == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"patterns": nil,
			"message":  "not enough check-ins yet for pattern analysis",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"patterns": p,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	stats, err := s.stress.Stats(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load stats", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRateRoutine(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "check-in id is required")
		return
	}

	var req models.EffectivenessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := s.stress.RateRoutine(r.Context(), userID, id, req.Effectiveness); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, service.ErrAssessmentNotFound):
			respondError(w, http.StatusNotFound, "not_found", "check-in not found")
		default:
			slog.Error("failed to rate routine", "error", err, "user_id", userID, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to rate routine")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "routine effectiveness recorded",
	})
}

// Exercise catalog handlers

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises := s.exercises.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"exercises": exercises,
		"total":     len(exercises),
	})
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "exercise id is required")
		return
	}

	ex := s.exercises.Get(id)
	if ex == nil {
		respondError(w, http.StatusNotFound, "not_found", "exercise not found")
		return
	}

	respondJSON(w, http.StatusOK, ex)
}

// Admin handlers

func (s *Server) handleRecomputePattern(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	p, err := s.detector.RecomputeUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to recompute pattern", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to recompute pattern")
		return
	}

	if p == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"patterns": nil,
			"message":  "not enough check-ins yet for pattern analysis",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"patterns": p,
	})
}

func (s *Server) handleClientMe(w http.ResponseWriter, r *http.Request) {
	client := ClientFromContext(r.Context())
	if client == nil {
		respondError(w, http.StatusUnauthorized, "not_authenticated", "authentication required")
		return
	}

	respondJSON(w, http.StatusOK, client)
}
