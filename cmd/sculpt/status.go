package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/route-sculpture/internal/printcheck"
)

func newStatusCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Quick config-only printability check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.sculptureConfig()
			if err != nil {
				return err
			}
			q := printcheck.QuickStatus(cfg)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", q.Status, q.Message)
			if q.Status == printcheck.StatusError {
				return fmt.Errorf("config cannot be printed")
			}
			return nil
		},
	}
}
