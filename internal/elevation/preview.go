package elevation

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// gridXYZ adapts a Grid to plotter.GridXYZ. Columns run along X, rows along Y.
type gridXYZ struct{ g Grid }

func (x gridXYZ) Dims() (c, r int)   { return x.g.Size(), x.g.Size() }
func (x gridXYZ) Z(c, r int) float64 { return x.g[r][c] }
func (x gridXYZ) X(c int) float64    { return float64(c) }
func (x gridXYZ) Y(r int) float64    { return float64(r) }

// RenderPNG draws the grid as a heat map PNG of roughly sizePx square.
func RenderPNG(w io.Writer, g Grid, title string, sizePx int) error {
	if g.Size() < 2 {
		return fmt.Errorf("grid too small to plot: %d cells per side", g.Size())
	}
	if sizePx <= 0 {
		sizePx = 512
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column (west → east)"
	p.Y.Label.Text = "Row (south → north)"

	hm := plotter.NewHeatMap(gridXYZ{g}, palette.Heat(16, 1))
	if hm.Max == hm.Min {
		// Flat terrain; widen the range so the palette index stays finite.
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	side := vg.Points(float64(sizePx) * 0.75) // 96 dpi output
	wt, err := p.WriterTo(side, side, "png")
	if err != nil {
		return fmt.Errorf("failed to create plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// RenderHeatmapHTML renders an interactive go-echarts page of the grid.
// Large grids are strided so the page stays under maxPoints cells.
func RenderHeatmapHTML(w io.Writer, g Grid, title string) error {
	if g.Size() == 0 {
		return fmt.Errorf("empty grid")
	}
	const maxPoints = 16384
	stride := 1
	for (g.Size()/stride)*(g.Size()/stride) > maxPoints {
		stride++
	}

	stats := g.Stats()
	data := make([]opts.ScatterData, 0, (g.Size()/stride+1)*(g.Size()/stride+1))
	for r := 0; r < g.Size(); r += stride {
		for c := 0; c < g.Size(); c += stride {
			data = append(data, opts.ScatterData{Value: []interface{}{c, r, g[r][c]}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "800px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("grid=%d stride=%d min=%.1fm max=%.1fm", g.Size(), stride, stats.Min, stats.Max)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: g.Size() - 1, Name: "col"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: g.Size() - 1, Name: "row"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(stats.Min),
			Max:        float32(stats.Max),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("elevation", data)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
