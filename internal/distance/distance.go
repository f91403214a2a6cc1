// Package distance turns location coordinates into the cost matrix the solver
// consumes. Distances are kilometres.
package distance

import (
	"context"
	"fmt"

	"tour-planner/internal/models"
)

// Provider names, also used as the distance cache namespace
const (
	ProviderHaversine = "haversine"
	ProviderOSRM      = "osrm"
)

// Calculator provides distances between coordinates
type Calculator interface {
	Provider() string
	Distance(ctx context.Context, origin, dest models.Coordinates) (float64, error)
	Matrix(ctx context.Context, points []models.Coordinates) ([][]float64, error)
}

// ErrDistanceCalculationFailed is returned when a provider cannot produce a distance
type ErrDistanceCalculationFailed struct {
	Provider string
	Reason   string
}

func (e *ErrDistanceCalculationFailed) Error() string {
	return fmt.Sprintf("%s distance calculation failed: %s", e.Provider, e.Reason)
}

func newMatrix(n int) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	return matrix
}

func samePoint(a, b models.Coordinates) bool {
	return models.RoundCoordinate(a.Lat) == models.RoundCoordinate(b.Lat) &&
		models.RoundCoordinate(a.Lng) == models.RoundCoordinate(b.Lng)
}
