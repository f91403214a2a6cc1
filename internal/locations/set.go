package locations

import (
	"fmt"
	"math"

	"tour-planner/internal/models"
)

// Set is a validated list of locations with ids exactly 1..N.
// byID[id-1] holds the record with that id, which is also its node index + 1.
type Set struct {
	byID    []models.Location
	missing []int
}

// NewSet validates locs and indexes them by id. At least two records are
// required, the depot id must be present exactly once and ids must be 1..N.
func NewSet(locs []models.Location) (*Set, error) {
	n := len(locs)
	if n < 2 {
		return nil, &ConfigError{Reason: fmt.Sprintf("need at least 2 locations, got %d", n)}
	}

	depots := 0
	for _, loc := range locs {
		if loc.ID == DepotID {
			depots++
		}
	}
	switch {
	case depots == 0:
		return nil, &ConfigError{Reason: fmt.Sprintf("depot id %d is missing", DepotID)}
	case depots > 1:
		return nil, &ConfigError{Reason: fmt.Sprintf("depot id %d appears %d times", DepotID, depots)}
	}

	byID := make([]models.Location, n)
	seen := make([]bool, n)
	for _, loc := range locs {
		if loc.ID < 1 || loc.ID > n {
			return nil, &ConfigError{Reason: fmt.Sprintf("id %d outside 1..%d", loc.ID, n)}
		}
		if seen[loc.ID-1] {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate id %d", loc.ID)}
		}
		if math.IsNaN(loc.Lat) || math.IsNaN(loc.Lng) || math.IsInf(loc.Lat, 0) || math.IsInf(loc.Lng, 0) {
			return nil, fmt.Errorf("id %d: %w", loc.ID, ErrNonFiniteCoordinate)
		}
		seen[loc.ID-1] = true
		byID[loc.ID-1] = loc
	}

	return &Set{byID: byID}, nil
}

// NewSetWithMissing is NewSet for inputs where the locations listed in
// missing carry no coordinates yet.
func NewSetWithMissing(locs []models.Location, missing []int) (*Set, error) {
	set, err := NewSet(locs)
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		if _, ok := set.ByID(id); !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("unknown location id %d", id)}
		}
	}
	set.missing = missing
	return set, nil
}

// Len returns the number of locations
func (s *Set) Len() int {
	return len(s.byID)
}

// ByID returns the location with the given external id
func (s *Set) ByID(id int) (*models.Location, bool) {
	if id < 1 || id > len(s.byID) {
		return nil, false
	}
	return &s.byID[id-1], true
}

// AtNode returns the location for an internal node index
func (s *Set) AtNode(node int) *models.Location {
	return &s.byID[node]
}

// Depot returns the start and end location
func (s *Set) Depot() *models.Location {
	return &s.byID[DepotID-1]
}

// All returns the locations in node order
func (s *Set) All() []models.Location {
	return s.byID
}

// Coordinates returns the points in node order
func (s *Set) Coordinates() []models.Coordinates {
	points := make([]models.Coordinates, len(s.byID))
	for i := range s.byID {
		points[i] = s.byID[i].GetCoords()
	}
	return points
}

// MissingCoordinates returns the ids loaded without coordinates
func (s *Set) MissingCoordinates() []int {
	return s.missing
}

// SetCoordinates fills in coordinates for id, typically after geocoding
func (s *Set) SetCoordinates(id int, c models.Coordinates) error {
	loc, ok := s.ByID(id)
	if !ok {
		return fmt.Errorf("unknown location id %d", id)
	}
	loc.Lat = c.Lat
	loc.Lng = c.Lng

	for i, m := range s.missing {
		if m == id {
			s.missing = append(s.missing[:i], s.missing[i+1:]...)
			break
		}
	}
	return nil
}

// NodeID converts an internal node index to the external id
func NodeID(node int) int {
	return node + 1
}
