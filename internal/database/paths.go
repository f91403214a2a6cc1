package database

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDirName        = ".tour-planner"
	CacheDirName      = "cache"
	DistanceCacheFile = "distances.json"
	SQLiteDBFileName  = "tours.db"
)

// GetAppDir returns ~/.tour-planner, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// GetCacheDir returns ~/.tour-planner/cache, creating it if needed
func GetCacheDir() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}

	cacheDir := filepath.Join(appDir, CacheDirName)
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	return cacheDir, nil
}

// GetDistanceCachePath returns ~/.tour-planner/cache/distances.json
func GetDistanceCachePath() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, DistanceCacheFile), nil
}

// GetDefaultDBPath returns the default SQLite database path: ~/.tour-planner/tours.db
func GetDefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, SQLiteDBFileName), nil
}
