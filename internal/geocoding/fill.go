package geocoding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tour-planner/internal/locations"
)

// FillMissing geocodes every location of set that was loaded without
// coordinates. It stops at the first address that cannot be resolved.
func FillMissing(ctx context.Context, g Geocoder, set *locations.Set, maxRetries int, logger zerolog.Logger) error {
	missing := append([]int(nil), set.MissingCoordinates()...)
	if len(missing) == 0 {
		return nil
	}
	logger.Info().Int("count", len(missing)).Msg("geocoding locations without coordinates")

	for _, id := range missing {
		loc, _ := set.ByID(id)
		result, err := g.GeocodeWithRetry(ctx, loc.Address(), maxRetries)
		if err != nil {
			return fmt.Errorf("location %d (%s): %w", id, loc.Name, err)
		}
		if err := set.SetCoordinates(id, result.Coords); err != nil {
			return err
		}
		logger.Debug().Int("id", id).Str("name", loc.Name).Float64("lat", result.Coords.Lat).Float64("lng", result.Coords.Lng).Msg("location geocoded")
	}
	return nil
}
