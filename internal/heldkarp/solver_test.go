package heldkarp

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMatrix(rng *rand.Rand, n int, symmetric bool) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if symmetric && j < i {
				m[i][j] = m[j][i]
				continue
			}
			m[i][j] = float64(rng.IntN(100) + 1)
		}
	}
	return m
}

// bruteForce enumerates all (N-1)! orders of the non-depot nodes.
func bruteForce(cost [][]float64) float64 {
	n := len(cost)
	rest := make([]int, 0, n-1)
	for v := 1; v < n; v++ {
		rest = append(rest, v)
	}

	best := math.Inf(1)
	var permute func(k int)
	permute = func(k int) {
		if k == len(rest) {
			tour := append(append([]int{0}, rest...), 0)
			best = math.Min(best, TourCost(cost, tour))
			return
		}
		for i := k; i < len(rest); i++ {
			rest[k], rest[i] = rest[i], rest[k]
			permute(k + 1)
			rest[k], rest[i] = rest[i], rest[k]
		}
	}
	permute(0)
	return best
}

func TestSolveMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	solver := New()

	for n := 2; n <= 8; n++ {
		for trial := 0; trial < 5; trial++ {
			cost := randomMatrix(rng, n, trial%2 == 0)

			res, err := solver.Solve(context.Background(), cost)
			require.NoError(t, err)

			assert.InDelta(t, bruteForce(cost), res.Cost, 1e-9, "n=%d trial=%d", n, trial)
			require.NoError(t, ValidateTour(res.Tour, n))
			assert.InDelta(t, TourCost(cost, res.Tour), res.Cost, 1e-9)
		}
	}
}

func TestSolveUnitSquare(t *testing.T) {
	d := math.Sqrt2
	// 0=(0,0) 1=(1,1) 2=(1,0) 3=(0,1): id order puts a diagonal first.
	cost := [][]float64{
		{0, d, 1, 1},
		{d, 0, 1, 1},
		{1, 1, 0, d},
		{1, 1, d, 0},
	}

	res, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	assert.InDelta(t, 4.0, res.Cost, 1e-12)
	// Perimeter order, never a diagonal.
	assert.Equal(t, []int{0, 3, 1, 2, 0}, res.Tour)
}

func TestSolveTwoNodes(t *testing.T) {
	cost := [][]float64{
		{0, 3},
		{5, 0},
	}

	res, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	assert.Equal(t, 8.0, res.Cost)
	assert.Equal(t, []int{0, 1, 0}, res.Tour)
}

func TestSolveAsymmetric(t *testing.T) {
	// Going around 0→1→2→0 is cheap, the reverse direction is expensive.
	cost := [][]float64{
		{0, 1, 10},
		{10, 0, 1},
		{1, 10, 0},
	}

	res, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	assert.Equal(t, 3.0, res.Cost)
	assert.Equal(t, []int{0, 2, 1, 0}, res.Tour)
}

func TestSolveTieBreakPrefersLowestID(t *testing.T) {
	n := 5
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i != j {
				cost[i][j] = 1
			}
		}
	}

	res, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.Cost)
	// dp[S][v] keeps the lowest u and the closing step keeps the lowest v,
	// which walks back to the reverse of the id order.
	assert.Equal(t, []int{0, 4, 3, 2, 1, 0}, res.Tour)
}

func TestSolveDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	cost := randomMatrix(rng, 9, true)

	first, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)
	second, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSolveWorkersMatchSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 42))
	cost := randomMatrix(rng, 13, false)

	seq, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 7} {
		par, err := New(WithWorkers(workers)).Solve(context.Background(), cost)
		require.NoError(t, err)
		assert.Equal(t, seq, par, "workers=%d", workers)
	}
}

func TestSolveStateCount(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	cost := randomMatrix(rng, 6, true)

	res, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)

	// Each of the n non-depot nodes pairs with every subset that excludes it.
	n := 5
	assert.Equal(t, n*(1<<(n-1)), res.States)
}

func TestSolveLayerHook(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	cost := randomMatrix(rng, 5, true)

	var sizes []int
	total := 0
	solver := New(WithLayerHook(func(size, states int) {
		sizes = append(sizes, size)
		total += states
	}))

	res, err := solver.Solve(context.Background(), cost)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, sizes)
	assert.Equal(t, res.States, total)
}

func TestSolveRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		cost [][]float64
		want error
	}{
		{name: "empty", cost: nil, want: ErrTooFewNodes},
		{name: "depot only", cost: [][]float64{{0}}, want: ErrTooFewNodes},
		{name: "ragged", cost: [][]float64{{0, 1}, {1}}, want: ErrNotSquare},
		{name: "negative", cost: [][]float64{{0, -1}, {1, 0}}, want: ErrNegativeCost},
		{name: "nan", cost: [][]float64{{0, math.NaN()}, {1, 0}}, want: ErrNonFinite},
		{name: "inf", cost: [][]float64{{0, 1}, {math.Inf(1), 0}}, want: ErrNonFinite},
		{name: "overflow", cost: [][]float64{{0, 1e308, 1e308}, {1e308, 0, 1e308}, {1e308, 1e308, 0}}, want: ErrCostOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Solve(context.Background(), tt.cost)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidMatrix)
		})
	}
}

func TestSolveLargeFiniteCosts(t *testing.T) {
	big := math.MaxFloat64 / 8
	cost := [][]float64{{0, big, big}, {big, 0, big}, {big, big, 0}}

	res, err := New().Solve(context.Background(), cost)
	require.NoError(t, err)
	assert.False(t, math.IsInf(res.Cost, 0))
	assert.Equal(t, []int{0, 2, 1, 0}, res.Tour)
}

func TestSolveRejectsTooManyNodes(t *testing.T) {
	cost := randomMatrix(rand.New(rand.NewPCG(1, 2)), 6, true)

	_, err := New(WithMaxNodes(5)).Solve(context.Background(), cost)
	assert.ErrorIs(t, err, ErrTooManyNodes)
}

func TestWithMaxNodesClamps(t *testing.T) {
	assert.Equal(t, MaxNodes, New(WithMaxNodes(1000)).maxNodes)
	assert.Equal(t, 2, New(WithMaxNodes(0)).maxNodes)
}

func TestSolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cost := randomMatrix(rand.New(rand.NewPCG(4, 4)), 6, true)
	_, err := New().Solve(ctx, cost)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)

	var inconsistency *InconsistencyError
	assert.False(t, errors.As(err, &inconsistency))
}

func TestSolveCanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	solver := New(WithLayerHook(func(size, _ int) {
		if size == 2 {
			cancel()
		}
	}))

	cost := randomMatrix(rand.New(rand.NewPCG(8, 8)), 7, true)
	_, err := solver.Solve(ctx, cost)
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestValidateTour(t *testing.T) {
	assert.NoError(t, ValidateTour([]int{0, 2, 1, 0}, 3))
	assert.ErrorIs(t, ValidateTour([]int{0, 1, 0}, 3), ErrInvalidTour)
	assert.ErrorIs(t, ValidateTour([]int{1, 2, 0, 1}, 3), ErrInvalidTour)
	assert.ErrorIs(t, ValidateTour([]int{0, 1, 1, 0}, 3), ErrInvalidTour)
	assert.ErrorIs(t, ValidateTour([]int{0, 5, 1, 0}, 3), ErrInvalidTour)
}
