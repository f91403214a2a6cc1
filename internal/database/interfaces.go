package database

import (
	"context"

	"tour-planner/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Runs() RunRepository
	DistanceCache() DistanceCacheRepository
}

// RunRepository handles tour run history
type RunRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.TourRun, int, error)
	GetByID(ctx context.Context, id string) (*models.TourRun, error)
	Create(ctx context.Context, run *models.TourRun) error
	Delete(ctx context.Context, id string) error
}

// DistanceCacheRepository handles distance cache persistence.
// Get returns nil, nil on a miss.
type DistanceCacheRepository interface {
	Get(ctx context.Context, provider string, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error)
	SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error
	Clear(ctx context.Context) error
}
