package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lentera-edu/lentera-lms-backend/internal/application/command"
	"github.com/lentera-edu/lentera-lms-backend/internal/application/query"
	"github.com/lentera-edu/lentera-lms-backend/internal/domain/shared"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	info := map[string]interface{}{
		"name":        "Lentera LMS API",
		"version":     "v1",
		"description": "Progress and analytics backend for the Lentera learning platform",
		"endpoints": map[string]string{
			"health":            "/health",
			"dashboard":         "/api/v1/analytics/dashboard",
			"student_analytics": "/api/v1/analytics/students/{userId}",
			"module_progress":   "/api/v1/users/{userId}/modules/progress",
			"record_result":     "/api/v1/results",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard handles GET /api/v1/analytics/dashboard
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetAdminAnalyticsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dashboard handler not configured")
		return
	}

	q := query.GetAdminAnalyticsQuery{
		ForceRefresh: getQueryParamBool(r, "refresh"),
	}

	result, err := s.deps.GetAdminAnalyticsHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to build dashboard", logger.Err(err))
		s.writeDomainError(w, err, "Failed to build analytics dashboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetStudentAnalytics handles GET /api/v1/analytics/students/{userId}
func (s *Server) handleGetStudentAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	if s.deps.GetStudentAnalyticsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Student analytics handler not configured")
		return
	}

	q := query.GetStudentAnalyticsQuery{UserID: userID}

	result, err := s.deps.GetStudentAnalyticsHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to get student analytics", logger.Err(err), logger.String("user_id", userID))
		s.writeDomainError(w, err, "Failed to get student analytics")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetModuleProgress handles GET /api/v1/users/{userId}/modules/progress
func (s *Server) handleGetModuleProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	if s.deps.GetModuleProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Module progress handler not configured")
		return
	}

	q := query.GetModuleProgressQuery{UserID: userID}

	result, err := s.deps.GetModuleProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to get module progress", logger.Err(err), logger.String("user_id", userID))
		s.writeDomainError(w, err, "Failed to get module progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordTestResultRequest is the wire format for POST /api/v1/results.
type recordTestResultRequest struct {
	UserID           string `json:"user_id"`
	TestType         string `json:"test_type"`
	Score            int    `json:"score"`
	Correct          int    `json:"correct"`
	Total            int    `json:"total"`
	TimeTakenSeconds int    `json:"time_taken_seconds"`
	ModuleID         string `json:"module_id,omitempty"`
	TopicID          string `json:"topic_id,omitempty"`
}

// handleRecordTestResult handles POST /api/v1/results
func (s *Server) handleRecordTestResult(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordTestResultHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Result handler not configured")
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	defer body.Close()

	var req recordTestResultRequest
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return
	}
	// Trailing garbage after the JSON object is rejected as well.
	if decoder.More() {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Unexpected data after JSON body")
		return
	}
	_, _ = io.Copy(io.Discard, body)

	cmd := command.RecordTestResultCommand{
		UserID:           req.UserID,
		TestType:         req.TestType,
		Score:            req.Score,
		Correct:          req.Correct,
		Total:            req.Total,
		TimeTakenSeconds: req.TimeTakenSeconds,
		ModuleID:         req.ModuleID,
		TopicID:          req.TopicID,
	}

	result, err := s.deps.RecordTestResultHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("failed to record test result",
			logger.Err(err),
			logger.String("user_id", req.UserID),
			logger.String("test_type", req.TestType),
		)
		s.writeDomainError(w, err, "Failed to record test result")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain error classes onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_request", "Request validation failed", err.Error())
	case shared.IsNotFound(err):
		writeJSONErrorWithDetails(w, http.StatusNotFound, "not_found", "Entity not found", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", fallbackMsg)
	}
}
