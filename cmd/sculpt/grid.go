package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/route"
)

func newGridCmd(g *globalOptions) *cobra.Command {
	var (
		routePath string
		pngPath   string
		htmlPath  string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Build the elevation grid for a route",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.sculptureConfig()
			if err != nil {
				return err
			}
			svc, err := g.serviceConfig()
			if err != nil {
				return err
			}
			r, err := route.Load(routePath)
			if err != nil {
				return err
			}

			res, err := elevation.NewBuilder(tileSource(svc)).Build(cmd.Context(), r, cfg.TerrainResolution, cfg.TerrainMode)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if res.Grid == nil {
				fmt.Fprintln(out, "route has no elevation data, no grid built")
				return nil
			}

			st := res.Grid.Stats()
			fmt.Fprintf(out, "grid %dx%d (%s mode)\n", res.GridSize, res.GridSize, res.Mode)
			fmt.Fprintf(out, "elevation min %.1f m, max %.1f m, mean %.1f m\n", st.Min, st.Max, st.Mean)
			fmt.Fprintf(out, "tile coverage %.0f%%\n", res.TileCoverage*100)

			title := r.Source
			if title == "" {
				title = "Elevation grid"
			}
			if pngPath != "" {
				n, err := writeOutput(pngPath, func(w io.Writer) error {
					return elevation.RenderPNG(w, res.Grid, title, 0)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s (%d bytes)\n", pngPath, n)
			}
			if htmlPath != "" {
				n, err := writeOutput(htmlPath, func(w io.Writer) error {
					return elevation.RenderHeatmapHTML(w, res.Grid, title)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s (%d bytes)\n", htmlPath, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&routePath, "route", "r", "", "route JSON file")
	cmd.Flags().StringVar(&pngPath, "png", "", "write a heat map PNG here")
	cmd.Flags().StringVar(&htmlPath, "html", "", "write an interactive heat map page here")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grid as JSON")
	cmd.MarkFlagRequired("route")
	return cmd
}
