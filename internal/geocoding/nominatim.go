// Package geocoding resolves postal addresses to coordinates for locations
// whose CSV rows carry none.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tour-planner/internal/models"
)

// DefaultNominatimBaseURL is the public OpenStreetMap Nominatim instance
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

const userAgent = "TourPlanner/1.0"

// GeocodingResult contains the result of a geocoding operation
type GeocodingResult struct {
	Coords      models.Coordinates
	DisplayName string
}

// Geocoder provides address-to-coordinates conversion
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodingResult, error)
	GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error)
}

// ErrGeocodingFailed is returned when an address cannot be geocoded
type ErrGeocodingFailed struct {
	Address string
	Reason  string
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for address: %s - %s", e.Address, e.Reason)
}

type nominatimGeocoder struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *time.Ticker
	backoff     time.Duration
	logger      zerolog.Logger
}

type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimGeocoder creates a new Nominatim geocoder limited to one request
// per second, the public instance's usage policy. An empty baseURL uses the
// public instance.
func NewNominatimGeocoder(baseURL string, logger zerolog.Logger) Geocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	return &nominatimGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: time.NewTicker(1 * time.Second),
		backoff:     1 * time.Second,
		logger:      logger,
	}
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	select {
	case <-g.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	queryURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(address))
	g.logger.Debug().Str("address", address).Msg("geocoding request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("address", address).Msg("geocoding API request failed")
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Error().Str("address", address).Int("status", resp.StatusCode).Msg("geocoding API error")
		return nil, &ErrGeocodingFailed{
			Address: address,
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	if len(results) == 0 {
		return nil, &ErrGeocodingFailed{Address: address, Reason: "no results found"}
	}

	result := results[0]
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, &ErrGeocodingFailed{Address: address, Reason: "invalid latitude"}
	}
	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, &ErrGeocodingFailed{Address: address, Reason: "invalid longitude"}
	}

	g.logger.Debug().
		Str("address", address).
		Float64("lat", lat).
		Float64("lng", lng).
		Str("display_name", result.DisplayName).
		Msg("geocoding response")

	return &GeocodingResult{
		Coords:      models.Coordinates{Lat: lat, Lng: lng},
		DisplayName: result.DisplayName,
	}, nil
}

func (g *nominatimGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error) {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		result, err := g.Geocode(ctx, address)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if i < maxRetries-1 {
			backoff := g.backoff << uint(i)
			g.logger.Warn().Err(err).Str("address", address).Int("attempt", i+1).Dur("backoff", backoff).Msg("geocoding retry")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if lastErr == nil {
		lastErr = &ErrGeocodingFailed{Address: address, Reason: "no attempts made"}
	}
	g.logger.Error().Err(lastErr).Str("address", address).Int("attempts", maxRetries).Msg("geocoding failed")
	return nil, lastErr
}
