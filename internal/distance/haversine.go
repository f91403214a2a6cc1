package distance

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"tour-planner/internal/database"
	"tour-planner/internal/models"
)

// EarthRadiusKm is the mean earth radius used by Haversine
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometres
func Haversine(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	// Rounding can push h marginally past 1 for antipodal points
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

type haversineCalculator struct {
	cache  database.DistanceCacheRepository
	logger zerolog.Logger
}

// NewHaversineCalculator creates a great-circle calculator. cache may be nil.
func NewHaversineCalculator(cache database.DistanceCacheRepository, logger zerolog.Logger) Calculator {
	return &haversineCalculator{cache: cache, logger: logger}
}

func (c *haversineCalculator) Provider() string { return ProviderHaversine }

func (c *haversineCalculator) Distance(ctx context.Context, origin, dest models.Coordinates) (float64, error) {
	if samePoint(origin, dest) {
		return 0, nil
	}
	return pairDistance(origin, dest), nil
}

// pairDistance evaluates the pair in a fixed orientation so d(a,b) and d(b,a)
// are bitwise equal.
func pairDistance(a, b models.Coordinates) float64 {
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lng < a.Lng) {
		a, b = b, a
	}
	return Haversine(a, b)
}

func (c *haversineCalculator) Matrix(ctx context.Context, points []models.Coordinates) ([][]float64, error) {
	n := len(points)
	matrix := newMatrix(n)

	var fresh []models.DistanceCacheEntry
	hits := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if samePoint(points[i], points[j]) {
				continue
			}

			d, hit, err := c.lookup(ctx, points[i], points[j])
			if err != nil {
				return nil, err
			}
			if hit {
				hits++
			} else {
				d = pairDistance(points[i], points[j])
				fresh = append(fresh, models.DistanceCacheEntry{
					Provider:    ProviderHaversine,
					Origin:      points[i],
					Destination: points[j],
					DistanceKm:  d,
				})
			}
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}

	if c.cache != nil && len(fresh) > 0 {
		if err := c.cache.SetBatch(ctx, fresh); err != nil {
			return nil, err
		}
	}

	c.logger.Debug().
		Int("points", n).
		Int("cached", hits).
		Int("computed", len(fresh)).
		Msg("haversine matrix built")

	return matrix, nil
}

func (c *haversineCalculator) lookup(ctx context.Context, a, b models.Coordinates) (float64, bool, error) {
	if c.cache == nil {
		return 0, false, nil
	}
	cached, err := c.cache.Get(ctx, ProviderHaversine, a, b)
	if err != nil {
		return 0, false, err
	}
	if cached == nil {
		return 0, false, nil
	}
	return cached.DistanceKm, true, nil
}
