package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"tour-planner/internal/database"
	"tour-planner/internal/distance"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/heldkarp"
	"tour-planner/internal/locations"
	"tour-planner/internal/planner"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	Planner *planner.Planner
	// Store and Runs are nil when persistence is disabled
	Store        database.DataStore
	Runs         database.RunRepository
	MaxBodyBytes int64
	Logger       zerolog.Logger
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	h.Logger.Error().Err(err).Msg("internal error")
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// handlePlanError maps planning and solving failures onto API errors
func (h *Handler) handlePlanError(w http.ResponseWriter, err error) {
	var (
		cfgErr      *locations.ConfigError
		parseErr    *locations.ParseError
		geoErr      *geocoding.ErrGeocodingFailed
		distErr     *distance.ErrDistanceCalculationFailed
		inconsisErr *heldkarp.InconsistencyError
	)

	switch {
	case errors.As(err, &inconsisErr):
		h.handleInternalError(w, err)
	case errors.Is(err, heldkarp.ErrCanceled):
		h.Logger.Warn().Err(err).Msg("solve canceled")
		h.writeError(w, http.StatusServiceUnavailable, "CANCELED", "The solve did not finish in time.", nil)
	case errors.As(err, &cfgErr), errors.As(err, &parseErr),
		errors.Is(err, locations.ErrNonFiniteCoordinate), errors.Is(err, heldkarp.ErrInvalidMatrix):
		h.handleValidationError(w, err.Error())
	case errors.As(err, &geoErr):
		h.writeError(w, http.StatusUnprocessableEntity, "GEOCODING_FAILED", err.Error(), nil)
	case errors.As(err, &distErr):
		h.writeError(w, http.StatusBadGateway, "DISTANCE_FAILED", err.Error(), map[string]string{
			"provider": distErr.Provider,
		})
	default:
		h.handleInternalError(w, err)
	}
}

// decodeJSON reads a size-limited JSON body into dst
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if h.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// HandleHealthCheck handles GET /healthz
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "disabled"

	if h.Store != nil {
		dbStatus = "connected"
		if err := h.Store.HealthCheck(r.Context()); err != nil {
			h.Logger.Warn().Err(err).Msg("store health check failed")
			status = "degraded"
			dbStatus = "error"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]string{
		"status":   status,
		"version":  "1.0.0",
		"database": dbStatus,
	})
}
