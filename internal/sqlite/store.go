package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"tour-planner/internal/database"

	_ "modernc.org/sqlite"
)

const (
	schemaVersion = 1
	memoryPath    = ":memory:"
)

// Store is a SQLite-based data store implementing database.DataStore
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	logger zerolog.Logger

	runRepo           database.RunRepository
	distanceCacheRepo database.DistanceCacheRepository
}

// New creates a new SQLite store at the specified path. ":memory:" opens a
// private in-memory database.
func New(dbPath string, logger zerolog.Logger) (*Store, error) {
	if dbPath != memoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logger.Debug().Str("path", dbPath).Msg("opening SQLite database")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	if dbPath == memoryPath {
		// Every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.runRepo = &runRepository{store: store}
	store.distanceCacheRepo = &distanceCacheRepository{store: store}

	return store, nil
}

// GetDBPath returns the current database file path
func (s *Store) GetDBPath() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist, create everything
		return s.createSchema()
	}

	if version < schemaVersion {
		return s.runMigrations(version)
	}

	return nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT INTO schema_version (version) VALUES (1);

	-- Finished tour plans
	CREATE TABLE IF NOT EXISTS tour_runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		nodes INTEGER NOT NULL,
		total_km REAL NOT NULL,
		sequence TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);

	-- Distance cache
	CREATE TABLE IF NOT EXISTS distance_cache (
		provider TEXT NOT NULL,
		origin_lat REAL NOT NULL,
		origin_lng REAL NOT NULL,
		dest_lat REAL NOT NULL,
		dest_lng REAL NOT NULL,
		distance_km REAL NOT NULL,
		PRIMARY KEY (provider, origin_lat, origin_lng, dest_lat, dest_lng)
	);

	CREATE INDEX IF NOT EXISTS idx_tour_runs_created ON tour_runs(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Debug().Int("version", schemaVersion).Msg("SQLite schema initialized")
	return nil
}

func (s *Store) runMigrations(fromVersion int) error {
	s.logger.Info().Int("from", fromVersion).Int("to", schemaVersion).Msg("migrating schema")
	_, err := s.db.Exec("UPDATE schema_version SET version = ?", schemaVersion)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.dbPath != memoryPath {
		// Checkpoint WAL before closing
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// HealthCheck verifies the database connection
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repository accessors
func (s *Store) Runs() database.RunRepository                     { return s.runRepo }
func (s *Store) DistanceCache() database.DistanceCacheRepository { return s.distanceCacheRepo }
