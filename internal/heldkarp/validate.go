package heldkarp

import (
	"errors"
	"fmt"
	"math"

	"github.com/yourbasic/bit"
)

// ErrInvalidTour is returned by ValidateTour when a tour is not a closed
// Hamiltonian cycle from the depot.
var ErrInvalidTour = errors.New("heldkarp: invalid tour")

// validateMatrix checks shape and values before any DP work and returns N.
func validateMatrix(cost [][]float64, maxNodes int) (int, error) {
	n := len(cost)
	if n < 2 {
		return 0, matrixError(ErrTooFewNodes, "got %d", n)
	}
	if n > maxNodes {
		return 0, matrixError(ErrTooManyNodes, "got %d, limit %d", n, maxNodes)
	}

	largest := 0.0
	for i, row := range cost {
		if len(row) != n {
			return 0, matrixError(ErrNotSquare, "row %d has length %d, want %d", i, len(row), n)
		}
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return 0, matrixError(ErrNonFinite, "cost[%d][%d]=%v", i, j, c)
			}
			if c < 0 {
				return 0, matrixError(ErrNegativeCost, "cost[%d][%d]=%v", i, j, c)
			}
			largest = max(largest, c)
		}
	}

	// Every partial sum in the table is bounded by n edges of the largest cost.
	if math.IsInf(largest*float64(n+1), 0) {
		return 0, matrixError(ErrCostOverflow, "largest entry %v over %d nodes", largest, n)
	}
	return n, nil
}

// ValidateTour checks that tour starts and ends at the depot and visits each
// of the n nodes exactly once in between.
func ValidateTour(tour []int, n int) error {
	if len(tour) != n+1 {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidTour, len(tour), n+1)
	}
	if tour[0] != depot || tour[n] != depot {
		return fmt.Errorf("%w: must start and end at node %d", ErrInvalidTour, depot)
	}

	seen := bit.New()
	for _, v := range tour[:n] {
		if v < 0 || v >= n {
			return fmt.Errorf("%w: node %d out of range", ErrInvalidTour, v)
		}
		if seen.Contains(v) {
			return fmt.Errorf("%w: node %d visited twice", ErrInvalidTour, v)
		}
		seen.Add(v)
	}
	return nil
}

// TourCost sums cost over consecutive tour edges.
func TourCost(cost [][]float64, tour []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(tour); i++ {
		total += cost[tour[i]][tour[i+1]]
	}
	return total
}
