package testutil

import (
	"context"
	"fmt"
	"math"
	"sync"

	"tour-planner/internal/models"
)

// DistanceCall tracks a call to the distance calculator
type DistanceCall struct {
	Origin models.Coordinates
	Dest   models.Coordinates
}

// MockDistanceCalculator is a mock implementation for testing.
// It calculates planar Euclidean distance (scaled) between coordinates for deterministic tests.
type MockDistanceCalculator struct {
	ScaleFactor float64
	Overrides   map[string]float64
	Err         error

	mu    sync.Mutex
	Calls []DistanceCall
}

func NewMockDistanceCalculator() *MockDistanceCalculator {
	return &MockDistanceCalculator{
		ScaleFactor: 1,
		Overrides:   make(map[string]float64),
	}
}

func (m *MockDistanceCalculator) makeKey(origin, dest models.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// SetDistance sets a custom distance for a specific origin-destination pair
func (m *MockDistanceCalculator) SetDistance(origin, dest models.Coordinates, km float64) {
	m.Overrides[m.makeKey(origin, dest)] = km
}

func (m *MockDistanceCalculator) Provider() string { return "mock" }

// Distance returns the distance between two points
func (m *MockDistanceCalculator) Distance(ctx context.Context, origin, dest models.Coordinates) (float64, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, DistanceCall{Origin: origin, Dest: dest})
	m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}
	if km, ok := m.Overrides[m.makeKey(origin, dest)]; ok {
		return km, nil
	}

	dLat := dest.Lat - origin.Lat
	dLng := dest.Lng - origin.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * m.ScaleFactor, nil
}

// Matrix returns a matrix of distances between all pairs of points
func (m *MockDistanceCalculator) Matrix(ctx context.Context, points []models.Coordinates) ([][]float64, error) {
	n := len(points)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				continue
			}
			d, err := m.Distance(ctx, points[i], points[j])
			if err != nil {
				return nil, err
			}
			matrix[i][j] = d
		}
	}
	return matrix, nil
}

// ResetCalls clears the recorded calls
func (m *MockDistanceCalculator) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// MockDistanceCache is a mock implementation of DistanceCacheRepository for testing
type MockDistanceCache struct {
	mu      sync.Mutex
	entries map[string]models.DistanceCacheEntry
	Gets    int
}

func NewMockDistanceCache() *MockDistanceCache {
	return &MockDistanceCache{
		entries: make(map[string]models.DistanceCacheEntry),
	}
}

func (c *MockDistanceCache) cacheKey(provider string, origin, dest models.Coordinates) string {
	return fmt.Sprintf("%s:%.5f,%.5f->%.5f,%.5f", provider,
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng))
}

func (c *MockDistanceCache) Get(ctx context.Context, provider string, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if entry, ok := c.entries[c.cacheKey(provider, origin, dest)]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (c *MockDistanceCache) Set(entry models.DistanceCacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.cacheKey(entry.Provider, entry.Origin, entry.Destination)] = entry
}

func (c *MockDistanceCache) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	for _, entry := range entries {
		c.Set(entry)
	}
	return nil
}

func (c *MockDistanceCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]models.DistanceCacheEntry)
	return nil
}

// Count returns the number of entries in the cache
func (c *MockDistanceCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
