// Package planner ties location loading, distance lookup, exact solving and
// run history together.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tour-planner/internal/database"
	"tour-planner/internal/distance"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/heldkarp"
	"tour-planner/internal/locations"
	"tour-planner/internal/metrics"
	"tour-planner/internal/models"
)

// Config wires a Planner. Calculator and Solver are required; Geocoder and
// Runs may be nil.
type Config struct {
	Calculator     distance.Calculator
	Solver         *heldkarp.Solver
	Geocoder       geocoding.Geocoder
	GeocodeRetries int
	Runs           database.RunRepository
	// Timeout bounds each solve. Zero means no deadline.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Planner computes optimal round trips over location sets
type Planner struct {
	calc           distance.Calculator
	solver         *heldkarp.Solver
	geocoder       geocoding.Geocoder
	geocodeRetries int
	runs           database.RunRepository
	timeout        time.Duration
	logger         zerolog.Logger
}

func New(cfg Config) *Planner {
	retries := cfg.GeocodeRetries
	if retries < 1 {
		retries = 1
	}
	return &Planner{
		calc:           cfg.Calculator,
		solver:         cfg.Solver,
		geocoder:       cfg.Geocoder,
		geocodeRetries: retries,
		runs:           cfg.Runs,
		timeout:        cfg.Timeout,
		logger:         cfg.Logger,
	}
}

// PlanFile loads the location file at path and plans its round trip
func (p *Planner) PlanFile(ctx context.Context, path string, opts locations.Options) (*models.TourResult, error) {
	opts.AllowMissingCoordinates = opts.AllowMissingCoordinates || p.geocoder != nil
	set, err := locations.Load(path, opts)
	if err != nil {
		return nil, err
	}
	return p.Plan(ctx, set, path)
}

// Plan computes the shortest round trip from the depot through every
// location of set. source names the input in the run history.
func (p *Planner) Plan(ctx context.Context, set *locations.Set, source string) (*models.TourResult, error) {
	if err := p.resolveCoordinates(ctx, set); err != nil {
		return nil, err
	}

	metrics.MatrixBuildsTotal.WithLabelValues(p.calc.Provider()).Inc()
	matrix, err := p.calc.Matrix(ctx, set.Coordinates())
	if err != nil {
		return nil, fmt.Errorf("build distance matrix: %w", err)
	}

	start := time.Now()
	result, err := p.SolveMatrix(ctx, matrix)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	tour := &models.TourResult{
		RunID:        uuid.NewString(),
		TotalKm:      result.Cost,
		Stops:        make([]models.TourStop, len(result.Tour)),
		Sequence:     make([]int, len(result.Tour)),
		States:       result.States,
		SolveElapsed: elapsed,
	}

	cumulative := 0.0
	for i, node := range result.Tour {
		leg := 0.0
		if i > 0 {
			leg = matrix[result.Tour[i-1]][node]
		}
		cumulative += leg
		tour.Stops[i] = models.TourStop{
			Order:            i,
			Location:         set.AtNode(node),
			DistanceFromPrev: leg,
			CumulativeKm:     cumulative,
		}
		tour.Sequence[i] = locations.NodeID(node)
	}

	p.logger.Info().
		Str("run_id", tour.RunID).
		Int("nodes", set.Len()).
		Float64("total_km", tour.TotalKm).
		Dur("elapsed", elapsed).
		Msg("tour planned")

	p.record(ctx, tour, set.Len(), source)
	return tour, nil
}

// SolveMatrix runs the exact solver on a raw cost matrix under the
// configured timeout and records solve metrics.
func (p *Planner) SolveMatrix(ctx context.Context, cost [][]float64) (heldkarp.Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := p.solver.Solve(ctx, cost)
	metrics.SolvesTotal.WithLabelValues(Outcome(err)).Inc()
	if err != nil {
		return heldkarp.Result{}, err
	}

	metrics.SolveDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.StatesTotal.Add(float64(result.States))
	metrics.SolveNodes.Observe(float64(len(cost)))
	return result, nil
}

// Outcome classifies a solve error for metrics and API responses
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, heldkarp.ErrInvalidMatrix):
		return metrics.OutcomeInvalid
	case errors.Is(err, heldkarp.ErrCanceled):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeError
	}
}

func (p *Planner) resolveCoordinates(ctx context.Context, set *locations.Set) error {
	missing := set.MissingCoordinates()
	if len(missing) == 0 {
		return nil
	}
	if p.geocoder == nil {
		return &locations.ConfigError{Reason: fmt.Sprintf("%d locations have no coordinates and geocoding is disabled", len(missing))}
	}
	return geocoding.FillMissing(ctx, p.geocoder, set, p.geocodeRetries, p.logger)
}

// record stores the run summary. A failed write is logged, the plan itself
// is still returned.
func (p *Planner) record(ctx context.Context, tour *models.TourResult, nodes int, source string) {
	if p.runs == nil {
		return
	}
	run := &models.TourRun{
		ID:        tour.RunID,
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Nodes:     nodes,
		TotalKm:   tour.TotalKm,
		Sequence:  tour.Sequence,
		ElapsedMs: tour.SolveElapsed.Milliseconds(),
	}
	if err := p.runs.Create(ctx, run); err != nil {
		p.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to save run history")
	}
}
