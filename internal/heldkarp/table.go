package heldkarp

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"sync"

	"github.com/rs/zerolog"
)

const (
	depot         = 0
	noPredecessor = -1

	// checkEvery is how many subsets a worker fills between context checks.
	checkEvery = 1024
	// minParallelLayer keeps small layers on the calling goroutine.
	minParallelLayer = 256
)

// table holds dp[S][v] and its predecessor for every non-depot v outside S.
// Entries live in flat slices indexed by S*n + (v-1); an unwritten entry has
// predecessor noPredecessor.
type table struct {
	n    int
	cost []float64
	pred []int32
}

func newTable(n int) *table {
	size := (1 << uint(n)) * n
	t := &table{
		n:    n,
		cost: make([]float64, size),
		pred: make([]int32, size),
	}
	for i := range t.cost {
		t.cost[i] = math.Inf(1)
		t.pred[i] = noPredecessor
	}
	return t
}

func (t *table) index(s Subset, v int) int {
	return int(s)*t.n + v - 1
}

// get returns the cost and predecessor of (v, S) and whether it was written.
func (t *table) get(s Subset, v int) (float64, int, bool) {
	i := t.index(s, v)
	p := t.pred[i]
	return t.cost[i], int(p), p != noPredecessor
}

// set writes (v, S) once. A second write means two passes claimed the same state.
func (t *table) set(s Subset, v int, cost float64, pred int) error {
	i := t.index(s, v)
	if t.pred[i] != noPredecessor {
		return &InconsistencyError{Vertex: v, Subset: s, Reason: "state written twice"}
	}
	t.cost[i] = cost
	t.pred[i] = int32(pred)
	return nil
}

// builder fills the table layer by layer for one solve.
type builder struct {
	cost    [][]float64
	n       int
	workers int
	hook    func(size, states int)
	logger  zerolog.Logger
}

// build runs the Held–Karp recurrence over all layers in increasing size.
// Layer k only reads layer k-1, so the loop doubles as the barrier when
// a layer is spread over several workers.
func (b *builder) build(ctx context.Context, t *table) (int, error) {
	total := 0
	for size, subsets := range Layers(b.n) {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("%w: %w", ErrCanceled, err)
		}

		states, err := b.fillLayer(ctx, t, subsets)
		if err != nil {
			return total, err
		}
		total += states

		b.logger.Trace().Int("size", size).Int("subsets", len(subsets)).Int("states", states).Msg("layer filled")
		if b.hook != nil {
			b.hook(size, states)
		}
	}
	return total, nil
}

func (b *builder) fillLayer(ctx context.Context, t *table, subsets []Subset) (int, error) {
	workers := b.workers
	if workers <= 1 || len(subsets) < minParallelLayer {
		return b.fillRange(ctx, t, subsets)
	}
	if workers > len(subsets) {
		workers = len(subsets)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		states int
		first  error
	)
	chunk := (len(subsets) + workers - 1) / workers
	for start := 0; start < len(subsets); start += chunk {
		end := min(start+chunk, len(subsets))
		wg.Add(1)
		go func(part []Subset) {
			defer wg.Done()
			n, err := b.fillRange(ctx, t, part)
			mu.Lock()
			defer mu.Unlock()
			states += n
			if err != nil && first == nil {
				first = err
			}
		}(subsets[start:end])
	}
	wg.Wait()

	return states, first
}

func (b *builder) fillRange(ctx context.Context, t *table, subsets []Subset) (int, error) {
	states := 0
	for i, s := range subsets {
		if i > 0 && i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return states, fmt.Errorf("%w: %w", ErrCanceled, err)
			}
		}
		n, err := b.fillSubset(t, s)
		states += n
		if err != nil {
			return states, err
		}
	}
	return states, nil
}

// fillSubset computes dp[S][v] for every v outside S. Candidates u are tried
// in ascending id order and only a strictly smaller cost replaces the best,
// so ties always resolve to the lowest predecessor id.
func (b *builder) fillSubset(t *table, s Subset) (int, error) {
	states := 0
	for v := 1; v <= b.n; v++ {
		if s.Contains(v) {
			continue
		}

		if s == 0 {
			if err := t.set(s, v, b.cost[depot][v], depot); err != nil {
				return states, err
			}
			states++
			continue
		}

		best := math.Inf(1)
		bestU := noPredecessor
		for rest := uint64(s); rest != 0; rest &= rest - 1 {
			u := bits.TrailingZeros64(rest) + 1
			prev := s.Without(u)
			c, _, ok := t.get(prev, u)
			if !ok {
				return states, &InconsistencyError{Vertex: u, Subset: prev, Reason: "dependency not computed"}
			}
			if cand := c + b.cost[u][v]; cand < best {
				best = cand
				bestU = u
			}
		}
		if bestU == noPredecessor {
			return states, &InconsistencyError{Vertex: v, Subset: s, Reason: "no finite predecessor"}
		}
		if err := t.set(s, v, best, bestU); err != nil {
			return states, err
		}
		states++
	}
	return states, nil
}

// closeTour picks the last vertex before returning to the depot. The winner
// is the predecessor of the synthetic closing state (0, V).
func (b *builder) closeTour(t *table) (float64, int, error) {
	full := Full(b.n)
	best := math.Inf(1)
	last := noPredecessor
	for v := 1; v <= b.n; v++ {
		c, _, ok := t.get(full.Without(v), v)
		if !ok {
			return 0, noPredecessor, &InconsistencyError{Vertex: v, Subset: full.Without(v), Reason: "final state not computed"}
		}
		if total := c + b.cost[v][depot]; total < best {
			best = total
			last = v
		}
	}
	if last == noPredecessor {
		return 0, noPredecessor, &InconsistencyError{Vertex: depot, Subset: full, Reason: "no closing vertex"}
	}
	return best, last, nil
}
