package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the distance cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached distance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Cache == nil {
				return fmt.Errorf("no distance cache configured")
			}
			if err := a.Cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "distance cache cleared")
			return nil
		},
	})
	return cmd
}
