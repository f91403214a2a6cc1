package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tour-planner/internal/locations"
	"tour-planner/internal/report"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type solveOptions struct {
	input     string
	format    string
	timeout   time.Duration
	workers   int
	noHistory bool
}

func newSolveCmd(root *rootOptions) *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Plan the shortest round trip through the input locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "location CSV file")
	flags.StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")
	flags.DurationVar(&opts.timeout, "timeout", 0, "abandon the solve after this long (0 keeps the configured limit)")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines per DP layer (0 keeps the configured value)")
	flags.BoolVar(&opts.noHistory, "no-history", false, "do not record the run")
	return cmd
}

func runSolve(cmd *cobra.Command, root *rootOptions, opts *solveOptions) error {
	if opts.format != formatText && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q, want text or json", opts.format)
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if opts.input != "" {
		cfg.Input.Path = opts.input
	}
	if opts.workers > 0 {
		cfg.Solver.Workers = opts.workers
	}
	if opts.noHistory {
		cfg.Store.History = false
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		cfg.Solver.TimeoutSeconds = 0
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	a, err := openApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Planner.PlanFile(ctx, cfg.Input.Path, locations.Options{Comma: cfg.Comma()})
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		return report.WriteJSON(cmd.OutOrStdout(), result)
	}
	return report.WriteText(cmd.OutOrStdout(), result)
}
