package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tour-planner/internal/database"
	"tour-planner/internal/models"
)

// RunListResponse is a page of stored runs
type RunListResponse struct {
	Runs   []models.TourRun `json:"runs"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// HandleListRuns handles GET /api/v1/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		h.handleNotFound(w, "Run history is disabled")
		return
	}

	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, 500)
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	runs, total, err := h.Runs.List(r.Context(), limit, offset)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RunListResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		h.handleNotFound(w, "Run history is disabled")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" || strings.Contains(id, "/") {
		h.handleValidationError(w, "Invalid run ID")
		return
	}

	run, err := h.Runs.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.handleNotFound(w, "Run not found")
		return
	}
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}
