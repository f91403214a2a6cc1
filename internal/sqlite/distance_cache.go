package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tour-planner/internal/models"
)

type distanceCacheRepository struct {
	store *Store
}

func (r *distanceCacheRepository) Get(ctx context.Context, provider string, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT provider, origin_lat, origin_lng, dest_lat, dest_lng, distance_km
	          FROM distance_cache
	          WHERE provider = ? AND origin_lat = ? AND origin_lng = ? AND dest_lat = ? AND dest_lng = ?`

	var entry models.DistanceCacheEntry
	err := r.store.db.QueryRowContext(ctx, query, provider,
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng),
	).Scan(
		&entry.Provider,
		&entry.Origin.Lat, &entry.Origin.Lng,
		&entry.Destination.Lat, &entry.Destination.Lng,
		&entry.DistanceKm,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distance cache entry: %w", err)
	}

	return &entry, nil
}

func (r *distanceCacheRepository) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT OR REPLACE INTO distance_cache
	          (provider, origin_lat, origin_lng, dest_lat, dest_lng, distance_km)
	          VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		_, err := stmt.ExecContext(ctx, entry.Provider,
			models.RoundCoordinate(entry.Origin.Lat), models.RoundCoordinate(entry.Origin.Lng),
			models.RoundCoordinate(entry.Destination.Lat), models.RoundCoordinate(entry.Destination.Lng),
			entry.DistanceKm)
		if err != nil {
			return fmt.Errorf("failed to insert batch entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *distanceCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM distance_cache"); err != nil {
		return fmt.Errorf("failed to clear distance cache: %w", err)
	}

	return nil
}
