package heldkarp

// reconstruct follows predecessor links back from the closing state (0, V),
// whose predecessor is last. Reaching the depot as a predecessor is the only
// valid way out of the walk; anything else is reported as an inconsistency.
func reconstruct(t *table, last int) ([]int, error) {
	n := t.n
	if last < 1 || last > n {
		return nil, &InconsistencyError{Vertex: depot, Subset: Full(n), Reason: "closing state has no predecessor"}
	}

	// Collected backwards: closing depot first, then the path in reverse.
	path := make([]int, 0, n+2)
	path = append(path, depot)

	v := last
	s := Full(n).Without(last)
	for {
		path = append(path, v)

		_, p, ok := t.get(s, v)
		if !ok {
			return nil, &InconsistencyError{Vertex: v, Subset: s, Reason: "missing predecessor"}
		}
		if p == depot {
			if s != 0 {
				return nil, &InconsistencyError{Vertex: v, Subset: s, Reason: "reached depot before visiting every node"}
			}
			break
		}
		if !s.Contains(p) {
			return nil, &InconsistencyError{Vertex: v, Subset: s, Reason: "predecessor outside visited set"}
		}

		s = s.Without(p)
		v = p
	}
	path = append(path, depot)

	if len(path) != n+2 {
		return nil, &InconsistencyError{Vertex: depot, Subset: Full(n), Reason: "tour has wrong length"}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
