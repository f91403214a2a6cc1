package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/database"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/heldkarp"
	"tour-planner/internal/locations"
	"tour-planner/internal/metrics"
	"tour-planner/internal/models"
	"tour-planner/internal/sqlite"
	"tour-planner/internal/testutil"
)

// Corners of the unit square on a planar metric
const squareCSV = `id,name,street,nr,zip,city,lat,lng
1,Depot,Hauptstraße,1,10115,Berlin,0,0
2,North,Nordweg,2,10115,Berlin,0,1
3,NorthEast,Eckweg,3,10115,Berlin,1,1
4,East,Ostweg,4,10115,Berlin,1,0
`

type fakeGeocoder struct {
	coords map[string]models.Coordinates
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*geocoding.GeocodingResult, error) {
	c, ok := g.coords[address]
	if !ok {
		return nil, &geocoding.ErrGeocodingFailed{Address: address, Reason: "no results found"}
	}
	return &geocoding.GeocodingResult{Coords: c}, nil
}

func (g *fakeGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*geocoding.GeocodingResult, error) {
	return g.Geocode(ctx, address)
}

func setupPlanner(t *testing.T, runs database.RunRepository) *Planner {
	t.Helper()
	return New(Config{
		Calculator: testutil.NewMockDistanceCalculator(),
		Solver:     heldkarp.New(),
		Runs:       runs,
		Logger:     zerolog.Nop(),
	})
}

func parseSet(t *testing.T, input string, opts locations.Options) *locations.Set {
	t.Helper()
	set, err := locations.Parse(strings.NewReader(input), opts)
	require.NoError(t, err)
	return set
}

func TestPlanUnitSquare(t *testing.T) {
	store, err := sqlite.New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	p := setupPlanner(t, store.Runs())
	result, err := p.Plan(context.Background(), parseSet(t, squareCSV, locations.Options{}), "square.csv")
	require.NoError(t, err)

	assert.Equal(t, 4.0, result.TotalKm)
	assert.Contains(t, [][]int{{1, 2, 3, 4, 1}, {1, 4, 3, 2, 1}}, result.Sequence)
	require.Len(t, result.Stops, 5)
	assert.Equal(t, 12, result.States)

	assert.Equal(t, "Depot", result.Stops[0].Location.Name)
	assert.Equal(t, 0.0, result.Stops[0].DistanceFromPrev)
	for i, stop := range result.Stops {
		assert.Equal(t, i, stop.Order)
		assert.Equal(t, result.Sequence[i], stop.Location.ID)
		if i > 0 {
			assert.Equal(t, 1.0, stop.DistanceFromPrev)
		}
	}
	assert.Equal(t, result.TotalKm, result.Stops[4].CumulativeKm)

	run, err := store.Runs().GetByID(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "square.csv", run.Source)
	assert.Equal(t, 4, run.Nodes)
	assert.Equal(t, result.Sequence, run.Sequence)
	assert.Equal(t, 4.0, run.TotalKm)
}

func TestPlanTwoLocations(t *testing.T) {
	input := "h,h,h,h,h,h,h,h\n1,A,s,1,z,c,0,0\n2,B,s,1,z,c,3,4\n"
	result, err := setupPlanner(t, nil).Plan(context.Background(), parseSet(t, input, locations.Options{}), "")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 1}, result.Sequence)
	assert.Equal(t, 10.0, result.TotalKm)
	assert.NotEmpty(t, result.RunID)
}

func TestPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stops.csv")
	require.NoError(t, os.WriteFile(path, []byte(squareCSV), 0600))

	result, err := setupPlanner(t, nil).PlanFile(context.Background(), path, locations.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.TotalKm)

	_, err = setupPlanner(t, nil).PlanFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), locations.Options{})
	var ioErr *locations.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestPlanGeocodesMissingCoordinates(t *testing.T) {
	input := "h,h,h,h,h,h,h,h\n1,Depot,Hauptstraße,1,10115,Berlin,0,0\n2,B,Nordweg,2,10115,Berlin,,\n"

	p := setupPlanner(t, nil)
	set := parseSet(t, input, locations.Options{AllowMissingCoordinates: true})
	_, err := p.Plan(context.Background(), set, "")
	var cfgErr *locations.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	p.geocoder = &fakeGeocoder{coords: map[string]models.Coordinates{
		"Nordweg 2, 10115 Berlin": {Lat: 0, Lng: 2},
	}}
	result, err := p.Plan(context.Background(), set, "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.TotalKm)
}

func TestSolveMatrixErrors(t *testing.T) {
	p := setupPlanner(t, nil)

	_, err := p.SolveMatrix(context.Background(), [][]float64{{0}})
	assert.ErrorIs(t, err, heldkarp.ErrTooFewNodes)
	assert.Equal(t, metrics.OutcomeInvalid, Outcome(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.SolveMatrix(ctx, [][]float64{{0, 1}, {1, 0}})
	assert.ErrorIs(t, err, heldkarp.ErrCanceled)
	assert.Equal(t, metrics.OutcomeCanceled, Outcome(err))
}

func TestSolveMatrixTimeout(t *testing.T) {
	p := setupPlanner(t, nil)
	p.timeout = time.Nanosecond

	n := 18
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i != j {
				cost[i][j] = float64((i*7+j*13)%17 + 1)
			}
		}
	}

	_, err := p.SolveMatrix(context.Background(), cost)
	assert.ErrorIs(t, err, heldkarp.ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPlanDistanceFailure(t *testing.T) {
	calc := testutil.NewMockDistanceCalculator()
	calc.Err = errors.New("provider down")
	p := New(Config{Calculator: calc, Solver: heldkarp.New(), Logger: zerolog.Nop()})

	_, err := p.Plan(context.Background(), parseSet(t, squareCSV, locations.Options{}), "")
	assert.ErrorIs(t, err, calc.Err)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, Outcome(nil))
	assert.Equal(t, metrics.OutcomeError, Outcome(&heldkarp.InconsistencyError{Reason: "x"}))
	assert.Equal(t, metrics.OutcomeError, Outcome(errors.New("boom")))
}
