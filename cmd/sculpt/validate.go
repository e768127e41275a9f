package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/route-sculpture/internal/printcheck"
)

func newValidateCmd(g *globalOptions) *cobra.Command {
	var (
		in     inputOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a sculpture against 3D printing constraints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := in.load(cmd.Context(), g)
			if err != nil {
				return err
			}
			res := sc.Validate()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printReport(cmd, res)
			}
			if !res.IsPrintReady {
				return fmt.Errorf("not print ready: %s", res.Summary)
			}
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, res printcheck.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (score %d)\n", res.Summary, res.Score)
	for _, c := range res.Checks {
		mark := "ok"
		if !c.Passed {
			mark = string(c.Severity)
		}
		fmt.Fprintf(out, "  [%-7s] %s: %s\n", mark, c.Name, c.Message)
		if !c.Passed && c.Suggestion != "" {
			fmt.Fprintf(out, "            %s\n", c.Suggestion)
		}
	}
	st := res.Stats
	fmt.Fprintf(out, "estimated %.0f min, %.1f g, %.0f x %.0f x %.0f mm\n",
		st.EstimatedPrintTimeMinutes, st.MaterialUsageGrams,
		st.Dimensions.Width, st.Dimensions.Depth, st.Dimensions.Height)
}
