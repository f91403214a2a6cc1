// Command tourplan computes the exact shortest round trip through a set of
// locations and manages the stored run history and distance cache.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tour-planner/internal/app"
	"tour-planner/internal/config"
	"tour-planner/internal/heldkarp"
	"tour-planner/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	configPath string
	cache      string
	dbPath     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tourplan",
		Short:         "Exact shortest round trip planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("TOURPLAN_CONFIG"), "YAML config file")
	flags.StringVar(&opts.cache, "cache", "", "distance cache and history store: sqlite, file or none")
	flags.StringVar(&opts.dbPath, "db", "", "database or cache file path")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSolveCmd(opts),
		newRunsCmd(opts),
		newCacheCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// loadConfig layers the shared flags over the file and environment settings
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadPath(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.cache != "" {
		cfg.Store.Driver = o.cache
	}
	if o.dbPath != "" {
		cfg.Store.Path = o.dbPath
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, cfg.Validate()
}

func openApp(cfg config.Config, logOut io.Writer) (*app.App, error) {
	logger := logging.NewWithWriter(cfg, logOut)
	return app.New(cfg, logger)
}

// errorMessage marks solver defects so they are never mistaken for bad input
func errorMessage(err error) string {
	var inconsistency *heldkarp.InconsistencyError
	if errors.As(err, &inconsistency) {
		return "internal error: " + err.Error()
	}
	return "error: " + err.Error()
}
