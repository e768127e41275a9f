package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/route-sculpture/internal/stl"
)

func newExportCmd(g *globalOptions) *cobra.Command {
	var (
		in      inputOptions
		outPath string
		format  string
		scale   float64
		combine bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a sculpture as an STL file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := in.load(cmd.Context(), g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			check := stl.ValidateMeshForPrinting(sc.Scene)
			for _, w := range check.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			if !check.Valid {
				return fmt.Errorf("scene is not exportable")
			}

			opts := stl.Options{Format: stl.Format(format), Scale: scale}
			dest := outPath
			if dest != "" {
				opts.Filename = filepath.Base(dest)
			}
			var res stl.Result
			if combine {
				if opts.Filename == "" {
					opts.Filename = stl.GenerateFilename(sc.Config, in.name)
				}
				res = stl.ExportCombined(sc.Scene.Meshes, opts)
			} else {
				res = sc.Export(in.name, opts)
			}
			if !res.Success {
				return fmt.Errorf("export failed: %s", res.Error)
			}
			if dest == "" {
				dest = res.Filename
			}
			if _, err := writeOutput(dest, func(w io.Writer) error {
				_, err := w.Write(res.Data)
				return err
			}); err != nil {
				return err
			}

			dims := stl.CalculatePrintDimensions(sc.Config)
			fmt.Fprintf(out, "wrote %s (%d bytes, %d vertices, %d triangles)\n",
				dest, res.FileSize, res.Stats.Vertices, res.Stats.Triangles)
			fmt.Fprintf(out, "print size %.0f x %.0f x %.1f mm\n", dims.Width, dims.Depth, dims.Height)
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: generated from name, shape and size)")
	cmd.Flags().StringVar(&format, "format", string(stl.FormatBinary), "binary or ascii")
	cmd.Flags().Float64Var(&scale, "scale", stl.DefaultScale, "uniform scale applied before writing")
	cmd.Flags().BoolVar(&combine, "combine", false, "merge all meshes into one solid before writing")
	return cmd
}
