package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tour-planner/internal/app"
	"tour-planner/internal/database"
	"tour-planner/internal/report"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the stored run history",
	}
	cmd.AddCommand(newRunsListCmd(root), newRunsShowCmd(root))
	return cmd
}

func newRunsListCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			a, repo, err := openHistory(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, total, err := repo.List(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			return report.WriteRuns(cmd.OutOrStdout(), runs, total)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show")
	return cmd
}

func newRunsShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, repo, err := openHistory(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := repo.GetByID(cmd.Context(), args[0])
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return report.WriteRun(cmd.OutOrStdout(), run)
		},
	}
}

func openHistory(cmd *cobra.Command, root *rootOptions) (*app.App, database.RunRepository, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := openApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	repo := a.Runs()
	if repo == nil {
		a.Close()
		return nil, nil, fmt.Errorf("run history needs the sqlite store, current store is %q", cfg.Store.Driver)
	}
	return a, repo, nil
}
