package handlers

import (
	"fmt"
	"net/http"

	"tour-planner/internal/locations"
	"tour-planner/internal/models"
)

// PlanTourRequest is the body of POST /api/v1/tours
type PlanTourRequest struct {
	Locations []LocationInput `json:"locations"`
	Source    string          `json:"source,omitempty"`
}

// LocationInput is a location as posted to the API. Lat and Lng are either
// both present or both absent; absent coordinates are geocoded from the
// address when geocoding is enabled.
type LocationInput struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Street      string   `json:"street"`
	HouseNumber string   `json:"house_number"`
	ZipCode     string   `json:"zip_code"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// toLocations converts the request body and returns the ids posted without
// coordinates.
func toLocations(inputs []LocationInput) ([]models.Location, []int, error) {
	locs := make([]models.Location, len(inputs))
	var missing []int
	for i, in := range inputs {
		locs[i] = models.Location{
			ID:          in.ID,
			Name:        in.Name,
			Street:      in.Street,
			HouseNumber: in.HouseNumber,
			ZipCode:     in.ZipCode,
			City:        in.City,
		}
		switch {
		case in.Lat == nil && in.Lng == nil:
			missing = append(missing, in.ID)
		case in.Lat == nil || in.Lng == nil:
			return nil, nil, fmt.Errorf("location %d: lat and lng must be given together", in.ID)
		default:
			locs[i].Lat = *in.Lat
			locs[i].Lng = *in.Lng
		}
	}
	return locs, missing, nil
}

// SolveMatrixRequest is the body of POST /api/v1/solve
type SolveMatrixRequest struct {
	Matrix [][]float64 `json:"matrix"`
}

// SolveMatrixResponse is the optimal tour over a raw cost matrix
type SolveMatrixResponse struct {
	Cost   float64 `json:"cost"`
	Tour   []int   `json:"tour"`
	States int     `json:"states"`
}

// HandlePlanTour handles POST /api/v1/tours
func (h *Handler) HandlePlanTour(w http.ResponseWriter, r *http.Request) {
	var req PlanTourRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, err.Error())
		return
	}

	locs, missing, err := toLocations(req.Locations)
	if err != nil {
		h.handleValidationError(w, err.Error())
		return
	}

	set, err := locations.NewSetWithMissing(locs, missing)
	if err != nil {
		h.handlePlanError(w, err)
		return
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	h.Logger.Debug().Int("locations", set.Len()).Str("source", source).Msg("POST /api/v1/tours")
	result, err := h.Planner.Plan(r.Context(), set, source)
	if err != nil {
		h.handlePlanError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSolveMatrix handles POST /api/v1/solve
func (h *Handler) HandleSolveMatrix(w http.ResponseWriter, r *http.Request) {
	var req SolveMatrixRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, err.Error())
		return
	}

	h.Logger.Debug().Int("nodes", len(req.Matrix)).Msg("POST /api/v1/solve")
	result, err := h.Planner.SolveMatrix(r.Context(), req.Matrix)
	if err != nil {
		h.handlePlanError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SolveMatrixResponse{
		Cost:   result.Cost,
		Tour:   result.Tour,
		States: result.States,
	})
}
