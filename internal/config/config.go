// Package config loads tour-planner settings from defaults, an optional YAML
// file named by TOURPLAN_CONFIG and TOURPLAN_* environment variables, in
// that order.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverNone   = "none"
)

// DefaultInputPath is the location file read when none is given
const DefaultInputPath = "msg_standorte_deutschland.csv"

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
		MaxBodyBytes        int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`
	Solver struct {
		Workers        int `yaml:"workers"`
		MaxNodes       int `yaml:"max_nodes"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"solver"`
	Store struct {
		Driver  string `yaml:"driver"`
		Path    string `yaml:"path"`
		History bool   `yaml:"history"`
	} `yaml:"store"`
	Input struct {
		Path      string `yaml:"path"`
		Delimiter string `yaml:"delimiter"`
	} `yaml:"input"`
	Distance struct {
		Provider    string `yaml:"provider"`
		OSRMBaseURL string `yaml:"osrm_base_url"`
	} `yaml:"distance"`
	Geocoding struct {
		Enabled    bool   `yaml:"enabled"`
		BaseURL    string `yaml:"base_url"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"geocoding"`
}

func Default() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":8080"
	c.Server.ReadTimeoutSeconds = 15
	c.Server.WriteTimeoutSeconds = 120
	c.Server.IdleTimeoutSeconds = 60
	c.Server.MaxBodyBytes = 1 << 20
	c.Solver.Workers = runtime.GOMAXPROCS(0)
	c.Solver.MaxNodes = 24
	c.Solver.TimeoutSeconds = 60
	c.Store.Driver = DriverSQLite
	c.Store.History = true
	c.Input.Path = DefaultInputPath
	c.Input.Delimiter = ","
	c.Distance.Provider = "haversine"
	c.Geocoding.Enabled = false
	c.Geocoding.MaxRetries = 3
	return c
}

// Load builds the configuration from defaults, the file named by
// TOURPLAN_CONFIG and the environment.
func Load() (Config, error) {
	return LoadPath(os.Getenv("TOURPLAN_CONFIG"))
}

// LoadPath is Load with an explicit config file. An empty path skips the
// file layer.
func LoadPath(path string) (Config, error) {
	c := Default()
	if path != "" {
		if err := c.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TOURPLAN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TOURPLAN_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = isTrue(v)
	}
	if v := os.Getenv("TOURPLAN_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if err := envInt("TOURPLAN_WORKERS", &c.Solver.Workers); err != nil {
		return err
	}
	if err := envInt("TOURPLAN_MAX_NODES", &c.Solver.MaxNodes); err != nil {
		return err
	}
	if err := envInt("TOURPLAN_SOLVE_TIMEOUT_SECONDS", &c.Solver.TimeoutSeconds); err != nil {
		return err
	}
	if v := os.Getenv("TOURPLAN_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("TOURPLAN_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("TOURPLAN_HISTORY"); v != "" {
		c.Store.History = isTrue(v)
	}
	if v := os.Getenv("TOURPLAN_INPUT"); v != "" {
		c.Input.Path = v
	}
	if v := os.Getenv("TOURPLAN_DISTANCE_PROVIDER"); v != "" {
		c.Distance.Provider = v
	}
	if v := os.Getenv("TOURPLAN_OSRM_URL"); v != "" {
		c.Distance.OSRMBaseURL = v
	}
	if v := os.Getenv("TOURPLAN_GEOCODING"); v != "" {
		c.Geocoding.Enabled = isTrue(v)
	}
	return nil
}

// Validate rejects settings no component can run with
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverFile, DriverNone:
	default:
		return fmt.Errorf("store.driver must be sqlite, file or none, got %q", c.Store.Driver)
	}
	switch c.Distance.Provider {
	case "haversine", "osrm":
	default:
		return fmt.Errorf("distance.provider must be haversine or osrm, got %q", c.Distance.Provider)
	}
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Solver.TimeoutSeconds < 0 {
		return fmt.Errorf("solver.timeout_seconds must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	return nil
}

// Comma returns the input field delimiter
func (c Config) Comma() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// SolveTimeout returns the solve deadline, zero meaning none
func (c Config) SolveTimeout() time.Duration {
	return time.Duration(c.Solver.TimeoutSeconds) * time.Second
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func isTrue(v string) bool {
	return v == "1" || v == "true"
}
