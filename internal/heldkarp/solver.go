// Package heldkarp solves the travelling salesman problem exactly with the
// Held–Karp dynamic program.
//
// Node 0 is the depot. dp[S][v] is the cheapest path that leaves the depot,
// visits exactly the nodes in S and then moves to v. Subsets are processed in
// increasing size, so every state only depends on the previous layer.
//
// Time is O(2^n·n²) and memory O(2^n·n) for n non-depot nodes. There is no
// heuristic fallback: instances beyond MaxNodes are rejected.
package heldkarp

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// MaxNodes is the hard node limit, depot included. Larger tables would
	// not be addressable.
	MaxNodes = 32
	// DefaultMaxNodes keeps the table within a few gigabytes.
	DefaultMaxNodes = 24
)

// Result is the optimal round trip found by Solve.
type Result struct {
	// Cost is the total cost of Tour.
	Cost float64
	// Tour has N+1 entries, starting and ending at node 0.
	Tour []int
	// States is the number of DP states computed.
	States int
}

// Solver runs Held–Karp solves. A Solver holds configuration only and is
// safe for concurrent use; each Solve builds its own table.
type Solver struct {
	workers   int
	maxNodes  int
	logger    zerolog.Logger
	layerHook func(size, states int)
}

// Option configures a Solver.
type Option func(*Solver)

// WithWorkers spreads each layer over n goroutines. n <= 1 runs single-threaded.
func WithWorkers(n int) Option {
	return func(s *Solver) { s.workers = n }
}

// WithMaxNodes lowers the node limit. Values outside [2, MaxNodes] are clamped.
func WithMaxNodes(n int) Option {
	return func(s *Solver) { s.maxNodes = max(2, min(n, MaxNodes)) }
}

// WithLogger sets the logger used for solve progress.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// WithLayerHook registers fn to be called after each layer with the layer
// size and the number of states it produced.
func WithLayerHook(fn func(size, states int)) Option {
	return func(s *Solver) { s.layerHook = fn }
}

// New creates a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{
		workers:  1,
		maxNodes: DefaultMaxNodes,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve returns the minimum-cost tour over the N×N cost matrix.
//
// The matrix is validated before any DP work: N < 2, N above the node limit,
// ragged rows, negative or non-finite entries are rejected with errors that
// match ErrInvalidMatrix. A canceled ctx yields ErrCanceled. An
// *InconsistencyError means the table itself is broken.
func (s *Solver) Solve(ctx context.Context, cost [][]float64) (Result, error) {
	nodes, err := validateMatrix(cost, s.maxNodes)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	n := nodes - 1
	s.logger.Debug().Int("nodes", nodes).Int("workers", s.workers).Msg("solve started")

	b := &builder{
		cost:    cost,
		n:       n,
		workers: s.workers,
		hook:    s.layerHook,
		logger:  s.logger,
	}
	t := newTable(n)

	states, err := b.build(ctx, t)
	if err != nil {
		return Result{}, err
	}

	best, last, err := b.closeTour(t)
	if err != nil {
		return Result{}, err
	}

	tour, err := reconstruct(t, last)
	if err != nil {
		return Result{}, err
	}

	s.logger.Debug().
		Int("nodes", nodes).
		Int("states", states).
		Float64("cost", best).
		Dur("elapsed", time.Since(start)).
		Msg("solve finished")

	return Result{Cost: best, Tour: tour, States: states}, nil
}
