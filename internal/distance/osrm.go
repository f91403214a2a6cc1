package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tour-planner/internal/database"
	"tour-planner/internal/models"
)

// DefaultOSRMBaseURL is the public OSRM demo server
const DefaultOSRMBaseURL = "https://router.project-osrm.org"

// maxOSRMCoordinates is the maximum number of coordinates OSRM public API accepts
const maxOSRMCoordinates = 80

type osrmCalculator struct {
	baseURL    string
	httpClient *http.Client
	cache      database.DistanceCacheRepository
	logger     zerolog.Logger
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
}

// NewOSRMCalculator creates a road-distance calculator backed by an OSRM table
// service. An empty baseURL uses the public demo server. cache may be nil.
func NewOSRMCalculator(baseURL string, cache database.DistanceCacheRepository, logger zerolog.Logger) Calculator {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	return &osrmCalculator{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}
}

func (c *osrmCalculator) Provider() string { return ProviderOSRM }

func (c *osrmCalculator) Distance(ctx context.Context, origin, dest models.Coordinates) (float64, error) {
	if samePoint(origin, dest) {
		return 0, nil
	}
	matrix, err := c.Matrix(ctx, []models.Coordinates{origin, dest})
	if err != nil {
		return 0, err
	}
	return matrix[0][1], nil
}

// Matrix returns road distances. They need not be symmetric.
func (c *osrmCalculator) Matrix(ctx context.Context, points []models.Coordinates) ([][]float64, error) {
	n := len(points)
	matrix := newMatrix(n)
	if n < 2 {
		return matrix, nil
	}

	// First, check cache for all pairs
	missing := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || samePoint(points[i], points[j]) {
				continue
			}
			if c.cache == nil {
				missing++
				continue
			}
			cached, err := c.cache.Get(ctx, ProviderOSRM, points[i], points[j])
			if err != nil {
				return nil, err
			}
			if cached == nil {
				missing++
				continue
			}
			matrix[i][j] = cached.DistanceKm
		}
	}

	if missing == 0 {
		c.logger.Debug().Int("points", n).Msg("OSRM distance matrix all cached")
		return matrix, nil
	}

	if n > maxOSRMCoordinates {
		return nil, &ErrDistanceCalculationFailed{
			Provider: ProviderOSRM,
			Reason:   fmt.Sprintf("%d points exceed the table service limit of %d", n, maxOSRMCoordinates),
		}
	}

	c.logger.Info().Int("points", n).Int("missing", missing).Msg("OSRM distance matrix request")
	return c.fetchMatrix(ctx, points, matrix)
}

func (c *osrmCalculator) fetchMatrix(ctx context.Context, points []models.Coordinates, matrix [][]float64) ([][]float64, error) {
	n := len(points)
	coords := make([]string, n)
	for i, p := range points {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}

	queryURL := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance", c.baseURL, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, c.fail(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Int("points", n).Msg("OSRM API request failed")
		return nil, c.fail(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().Int("points", n).Int("status", resp.StatusCode).Str("body", string(body)).Msg("OSRM API error")
		return nil, c.fail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var osrmResp osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		return nil, c.fail(err.Error())
	}

	if osrmResp.Code != "Ok" {
		return nil, c.fail(fmt.Sprintf("OSRM error: %s %s", osrmResp.Code, osrmResp.Message))
	}
	if len(osrmResp.Distances) != n {
		return nil, c.fail(fmt.Sprintf("expected %d rows, got %d", n, len(osrmResp.Distances)))
	}

	var cacheEntries []models.DistanceCacheEntry
	for i := 0; i < n; i++ {
		if len(osrmResp.Distances[i]) != n {
			return nil, c.fail(fmt.Sprintf("row %d has %d columns, expected %d", i, len(osrmResp.Distances[i]), n))
		}
		for j := 0; j < n; j++ {
			if i == j || samePoint(points[i], points[j]) {
				continue
			}
			meters := osrmResp.Distances[i][j]
			if meters == nil {
				return nil, c.fail(fmt.Sprintf("no route between points %d and %d", i, j))
			}
			km := *meters / 1000
			matrix[i][j] = km
			cacheEntries = append(cacheEntries, models.DistanceCacheEntry{
				Provider:    ProviderOSRM,
				Origin:      points[i],
				Destination: points[j],
				DistanceKm:  km,
			})
		}
	}

	if c.cache != nil && len(cacheEntries) > 0 {
		if err := c.cache.SetBatch(ctx, cacheEntries); err != nil {
			return nil, err
		}
	}

	return matrix, nil
}

func (c *osrmCalculator) fail(reason string) error {
	return &ErrDistanceCalculationFailed{Provider: ProviderOSRM, Reason: reason}
}
