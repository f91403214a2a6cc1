package heldkarp

import (
	"errors"
	"fmt"
)

// ErrInvalidMatrix is the parent of every input rejection. All matrix errors
// below satisfy errors.Is(err, ErrInvalidMatrix).
var ErrInvalidMatrix = errors.New("heldkarp: invalid cost matrix")

var (
	// ErrTooFewNodes is returned for N < 2: a depot alone has no tour.
	ErrTooFewNodes = fmt.Errorf("%w: need at least 2 nodes", ErrInvalidMatrix)
	// ErrTooManyNodes is returned when N exceeds the solver's node limit.
	ErrTooManyNodes = fmt.Errorf("%w: too many nodes for exact solving", ErrInvalidMatrix)
	// ErrNotSquare is returned when a row length differs from N.
	ErrNotSquare = fmt.Errorf("%w: matrix is not square", ErrInvalidMatrix)
	// ErrNegativeCost is returned for any negative entry.
	ErrNegativeCost = fmt.Errorf("%w: negative cost", ErrInvalidMatrix)
	// ErrNonFinite is returned for NaN or infinite entries.
	ErrNonFinite = fmt.Errorf("%w: non-finite cost", ErrInvalidMatrix)
	// ErrCostOverflow is returned when entries are so large that a tour sum
	// would not be finite.
	ErrCostOverflow = fmt.Errorf("%w: tour cost overflows", ErrInvalidMatrix)
)

// ErrCanceled wraps the context error when a solve is abandoned between layers.
var ErrCanceled = errors.New("heldkarp: solve canceled")

// InconsistencyError reports a broken DP table found during tour
// reconstruction. It signals a solver defect, never bad user input.
type InconsistencyError struct {
	Vertex int
	Subset Subset
	Reason string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("heldkarp: internal inconsistency at vertex %d subset %#x: %s", e.Vertex, uint64(e.Subset), e.Reason)
}

func matrixError(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
