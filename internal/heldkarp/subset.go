package heldkarp

import "math/bits"

// Subset is a set of non-depot nodes encoded as a bitmask: bit i-1 holds node i.
// It is a plain value, so it can be used directly as a table index or map key.
type Subset uint64

// Full returns the subset {1..n}
func Full(n int) Subset {
	return Subset(1)<<uint(n) - 1
}

func mask(v int) Subset {
	return Subset(1) << uint(v-1)
}

// Contains reports whether node v is in the subset
func (s Subset) Contains(v int) bool {
	return v > 0 && s&mask(v) != 0
}

// With returns a new subset that also contains node v
func (s Subset) With(v int) Subset {
	return s | mask(v)
}

// Without returns a new subset with node v removed
func (s Subset) Without(v int) Subset {
	return s &^ mask(v)
}

// Len returns the number of nodes in the subset
func (s Subset) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Members returns the node ids in ascending order
func (s Subset) Members() []int {
	members := make([]int, 0, s.Len())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		members = append(members, bits.TrailingZeros64(rest)+1)
	}
	return members
}

// Layers returns every subset of {1..n} exactly once, grouped by cardinality.
// layers[k] holds all subsets of size k in ascending bitmask order.
//
// The result has 2^n entries in total. Callers are expected to keep n small
// (tens at most); there is no cheaper enumeration to fall back on.
func Layers(n int) [][]Subset {
	layers := make([][]Subset, n+1)
	for k := 0; k <= n; k++ {
		layers[k] = layer(n, k)
	}
	return layers
}

// layer walks all k-element subsets of {1..n} with Gosper's hack.
func layer(n, k int) []Subset {
	if k == 0 {
		return []Subset{0}
	}

	out := make([]Subset, 0, binomial(n, k))
	limit := uint64(1) << uint(n)
	for s := uint64(1)<<uint(k) - 1; s < limit; {
		out = append(out, Subset(s))
		c := s & -s
		r := s + c
		if r == 0 {
			break
		}
		s = (((r ^ s) >> 2) / c) | r
	}
	return out
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
	}
	return result
}
