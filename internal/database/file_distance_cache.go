package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"tour-planner/internal/models"
)

// FileDistanceCacheData represents the structure of the cache file
type FileDistanceCacheData struct {
	Entries []models.DistanceCacheEntry `json:"entries"`
}

// FileDistanceCache is a file-based implementation of DistanceCacheRepository
type FileDistanceCache struct {
	filePath string
	data     *FileDistanceCacheData
	index    map[string]int // cache key -> position in Entries
	mu       sync.RWMutex
	logger   zerolog.Logger
}

// NewFileDistanceCache opens (or creates) the cache file at filePath.
// An empty filePath uses ~/.tour-planner/cache/distances.json.
func NewFileDistanceCache(filePath string, logger zerolog.Logger) (*FileDistanceCache, error) {
	if filePath == "" {
		var err error
		filePath, err = GetDistanceCachePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get cache file path: %w", err)
		}
	}
	logger.Debug().Str("path", filePath).Msg("using distance cache file")

	cache := &FileDistanceCache{
		filePath: filePath,
		data:     &FileDistanceCacheData{Entries: []models.DistanceCacheEntry{}},
		index:    make(map[string]int),
		logger:   logger,
	}

	if err := cache.load(); err != nil {
		return nil, err
	}

	return cache, nil
}

func (c *FileDistanceCache) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		c.data = &FileDistanceCacheData{Entries: []models.DistanceCacheEntry{}}
		return c.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, c.data); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}

	if c.data.Entries == nil {
		c.data.Entries = []models.DistanceCacheEntry{}
	}

	c.rebuildIndex()

	c.logger.Debug().Int("entries", len(c.data.Entries)).Msg("loaded distance cache")
	return nil
}

func (c *FileDistanceCache) saveUnlocked() error {
	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tmpFile := c.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}

	if err := os.Rename(tmpFile, c.filePath); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}

	return nil
}

func (c *FileDistanceCache) Get(ctx context.Context, provider string, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.index[MakeCacheKey(provider, origin, dest)]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot modify cache data without the lock
	entryCopy := c.data.Entries[idx]
	return &entryCopy, nil
}

func (c *FileDistanceCache) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		key := MakeCacheKey(entry.Provider, entry.Origin, entry.Destination)

		if idx, ok := c.index[key]; ok {
			c.data.Entries[idx] = entry
		} else {
			c.data.Entries = append(c.data.Entries, entry)
			c.index[key] = len(c.data.Entries) - 1
		}
	}

	return c.saveUnlocked()
}

func (c *FileDistanceCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Entries = []models.DistanceCacheEntry{}
	c.index = make(map[string]int)
	return c.saveUnlocked()
}

// Len returns the number of cached entries
func (c *FileDistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data.Entries)
}

// MakeCacheKey creates a unique key for a provider and coordinate pair
func MakeCacheKey(provider string, origin, dest models.Coordinates) string {
	return fmt.Sprintf("%s:%.5f,%.5f->%.5f,%.5f", provider,
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng))
}

// rebuildIndex creates the index map from the current entries slice.
// Must be called with the mutex already held.
func (c *FileDistanceCache) rebuildIndex() {
	c.index = make(map[string]int)
	for i := range c.data.Entries {
		e := c.data.Entries[i]
		c.index[MakeCacheKey(e.Provider, e.Origin, e.Destination)] = i
	}
}
