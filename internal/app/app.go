// Package app assembles the tour planner from its configuration. Both the
// CLI and the server binary build their dependencies through New.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tour-planner/internal/config"
	"tour-planner/internal/database"
	"tour-planner/internal/distance"
	"tour-planner/internal/geocoding"
	"tour-planner/internal/heldkarp"
	"tour-planner/internal/metrics"
	"tour-planner/internal/planner"
	"tour-planner/internal/server"
	"tour-planner/internal/sqlite"
)

const shutdownTimeout = 30 * time.Second

// App holds the wired application state
type App struct {
	Config config.Config
	Logger zerolog.Logger

	// Store is set only for the sqlite driver
	Store database.DataStore
	// Cache is nil for the none driver
	Cache    database.DistanceCacheRepository
	Planner  *planner.Planner
	Registry *prometheus.Registry
}

// New opens the configured store and builds the planner on top of it
func New(cfg config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: metrics.Init(logger),
	}

	var runs database.RunRepository
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		path := cfg.Store.Path
		if path == "" {
			var err error
			if path, err = database.GetDefaultDBPath(); err != nil {
				return nil, err
			}
		}
		store, err := sqlite.New(path, logger.With().Str("component", "sqlite").Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.Store = store
		a.Cache = store.DistanceCache()
		if cfg.Store.History {
			runs = store.Runs()
		}
	case config.DriverFile:
		cache, err := database.NewFileDistanceCache(cfg.Store.Path, logger.With().Str("component", "cache").Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to open distance cache: %w", err)
		}
		a.Cache = cache
	case config.DriverNone:
	}

	calc, err := newCalculator(cfg, a.Cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var geocoder geocoding.Geocoder
	if cfg.Geocoding.Enabled {
		geocoder = geocoding.NewNominatimGeocoder(cfg.Geocoding.BaseURL, logger.With().Str("component", "geocoding").Logger())
	}

	solver := heldkarp.New(
		heldkarp.WithWorkers(cfg.Solver.Workers),
		heldkarp.WithMaxNodes(cfg.Solver.MaxNodes),
		heldkarp.WithLogger(logger.With().Str("component", "heldkarp").Logger()),
		heldkarp.WithLayerHook(metrics.ObserveLayer),
	)

	a.Planner = planner.New(planner.Config{
		Calculator:     calc,
		Solver:         solver,
		Geocoder:       geocoder,
		GeocodeRetries: cfg.Geocoding.MaxRetries,
		Runs:           runs,
		Timeout:        cfg.SolveTimeout(),
		Logger:         logger.With().Str("component", "planner").Logger(),
	})

	return a, nil
}

func newCalculator(cfg config.Config, cache database.DistanceCacheRepository, logger zerolog.Logger) (distance.Calculator, error) {
	l := logger.With().Str("component", "distance").Logger()
	switch cfg.Distance.Provider {
	case distance.ProviderHaversine:
		return distance.NewHaversineCalculator(cache, l), nil
	case distance.ProviderOSRM:
		return distance.NewOSRMCalculator(cfg.Distance.OSRMBaseURL, cache, l), nil
	default:
		return nil, fmt.Errorf("unknown distance provider %q", cfg.Distance.Provider)
	}
}

// Runs returns the run history, or nil when the store keeps none
func (a *App) Runs() database.RunRepository {
	if a.Store == nil {
		return nil
	}
	return a.Store.Runs()
}

// Server builds the HTTP server for this app. The server closes the store
// on shutdown.
func (a *App) Server() (*server.Server, error) {
	srv := a.Config.Server
	return server.New(server.Config{
		Addr:         srv.Addr,
		ReadTimeout:  seconds(srv.ReadTimeoutSeconds),
		WriteTimeout: seconds(srv.WriteTimeoutSeconds),
		IdleTimeout:  seconds(srv.IdleTimeoutSeconds),
		MaxBodyBytes: srv.MaxBodyBytes,
		Planner:      a.Planner,
		Store:        a.Store,
		Registry:     a.Registry,
		Logger:       a.Logger.With().Str("component", "server").Logger(),
	})
}

// Serve runs the HTTP server until ctx is done, then shuts it down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv, err := a.Server()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if _, err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	a.Logger.Info().Msg("starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}

	a.Logger.Info().Msg("server stopped")
	return nil
}

// Close releases the store. Safe to call more than once.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
