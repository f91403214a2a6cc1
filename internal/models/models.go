package models

import (
	"math"
	"time"
)

// Coordinates represents a geographic point in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether no coordinates were given
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Location is a single stop of the round trip. ID 1 is the depot.
type Location struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Street      string  `json:"street"`
	HouseNumber string  `json:"house_number"`
	ZipCode     string  `json:"zip_code"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// GetCoords returns the coordinates of the location
func (l *Location) GetCoords() Coordinates {
	return Coordinates{Lat: l.Lat, Lng: l.Lng}
}

// Address returns a single-line postal address suitable for geocoding
func (l *Location) Address() string {
	addr := l.Street
	if l.HouseNumber != "" {
		addr += " " + l.HouseNumber
	}
	if l.ZipCode != "" || l.City != "" {
		addr += ", " + l.ZipCode + " " + l.City
	}
	return addr
}

// TourStop is one visited location in a planned tour
type TourStop struct {
	Order            int       `json:"order"`
	Location         *Location `json:"location"`
	DistanceFromPrev float64   `json:"distance_from_prev_km"`
	CumulativeKm     float64   `json:"cumulative_km"`
}

// TourResult is the full result of planning a round trip
type TourResult struct {
	RunID        string        `json:"run_id"`
	TotalKm      float64       `json:"total_km"`
	Stops        []TourStop    `json:"stops"`
	Sequence     []int         `json:"sequence"`
	States       int           `json:"states"`
	SolveElapsed time.Duration `json:"solve_elapsed_ns"`
}

// TourRun is the stored summary of a finished plan
type TourRun struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Nodes     int       `json:"nodes"`
	TotalKm   float64   `json:"total_km"`
	Sequence  []int     `json:"sequence"`
	ElapsedMs int64     `json:"elapsed_ms"`
}

// DistanceCacheEntry represents a cached distance lookup
type DistanceCacheEntry struct {
	Provider    string      `json:"provider"`
	Origin      Coordinates `json:"origin"`
	Destination Coordinates `json:"destination"`
	DistanceKm  float64     `json:"distance_km"`
}

// RoundCoordinate rounds to 5 decimal places (~1m), the precision used for cache keys
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}
