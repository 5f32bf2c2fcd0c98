// Package charts renders PNG charts of stored observations into the static
// file tree. Rendering never panics; failures come back as errors and the
// pipeline degrades to a response without the affected chart.
package charts

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/skywatchwx/skywatch/internal/rollup"
	"github.com/skywatchwx/skywatch/internal/weather"
)

var (
	avgColor      = color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff}
	minColor      = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	maxColor      = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	humidityColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xb0}
	windColor     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xb0}
)

// Renderer writes chart PNGs beneath a static directory. Charts for a city
// always land at the same path, so a re-render replaces the previous file.
type Renderer struct {
	staticDir string
}

// NewRenderer creates a Renderer rooted at staticDir.
func NewRenderer(staticDir string) *Renderer {
	return &Renderer{staticDir: staticDir}
}

// paths returns the on-disk target and the web path it will be served from.
func (r *Renderer) paths(city, chart string) (string, string) {
	rel := filepath.Join("plots", weather.Slug(city), chart+".png")
	return filepath.Join(r.staticDir, rel), "/static/" + filepath.ToSlash(rel)
}

// Summary renders the daily-aggregate chart: average temperature with the
// min/max range, stacked above humidity and wind panels. An empty summary
// produces no file and an empty path.
func (r *Renderer) Summary(city string, summaries []rollup.DailySummary) (string, error) {
	if len(summaries) == 0 {
		return "", nil
	}

	dayTicks := make([]plot.Tick, len(summaries))
	dayLabels := make([]string, len(summaries))
	for i, s := range summaries {
		label := s.Day.Format("Jan 02")
		dayTicks[i] = plot.Tick{Value: float64(i), Label: label}
		dayLabels[i] = label
	}

	tempPanel := plot.New()
	tempPanel.Title.Text = fmt.Sprintf("Daily Temperature for %s", city)
	tempPanel.Y.Label.Text = "Temperature (°C)"
	tempPanel.X.Tick.Marker = plot.ConstantTicks(dayTicks)

	avgXYs := make(plotter.XYs, len(summaries))
	minXYs := make(plotter.XYs, len(summaries))
	maxXYs := make(plotter.XYs, len(summaries))
	for i, s := range summaries {
		avgXYs[i] = plotter.XY{X: float64(i), Y: s.AvgTemp}
		minXYs[i] = plotter.XY{X: float64(i), Y: s.MinTemp}
		maxXYs[i] = plotter.XY{X: float64(i), Y: s.MaxTemp}
	}

	avgLine, err := plotter.NewLine(avgXYs)
	if err != nil {
		return "", fmt.Errorf("building average temperature line: %w", err)
	}
	avgLine.Color = avgColor
	avgLine.Width = vg.Points(2)

	minLine, err := plotter.NewLine(minXYs)
	if err != nil {
		return "", fmt.Errorf("building min temperature line: %w", err)
	}
	minLine.Color = minColor
	minLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	maxLine, err := plotter.NewLine(maxXYs)
	if err != nil {
		return "", fmt.Errorf("building max temperature line: %w", err)
	}
	maxLine.Color = maxColor
	maxLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	tempPanel.Add(avgLine, minLine, maxLine)
	tempPanel.Legend.Add("avg", avgLine)
	tempPanel.Legend.Add("min", minLine)
	tempPanel.Legend.Add("max", maxLine)
	tempPanel.Legend.Top = true

	humidity := make(plotter.Values, len(summaries))
	wind := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		humidity[i] = s.AvgHumidity
		wind[i] = s.AvgWindSpeed
	}

	humidityPanel, err := barPanel("Average Humidity", "Humidity (%)", dayLabels, humidity, humidityColor)
	if err != nil {
		return "", err
	}
	windPanel, err := barPanel("Average Wind Speed", "Wind (m/s)", dayLabels, wind, windColor)
	if err != nil {
		return "", err
	}

	target, webPath := r.paths(city, "summary")
	if err := writePanels(target, 8*vg.Inch, 9*vg.Inch, tempPanel, humidityPanel, windPanel); err != nil {
		return "", err
	}
	return webPath, nil
}

// Forecast renders the forecast horizon: temperature over time above a
// humidity panel. An empty forecast produces no file and an empty path.
func (r *Renderer) Forecast(city string, obs []weather.Observation) (string, error) {
	if len(obs) == 0 {
		return "", nil
	}

	tempPanel := plot.New()
	tempPanel.Title.Text = fmt.Sprintf("Forecast Temperature for %s", city)
	tempPanel.Y.Label.Text = "Temperature (°C)"
	tempPanel.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02 15h"}

	xys := make(plotter.XYs, len(obs))
	for i, o := range obs {
		xys[i] = plotter.XY{X: float64(o.ObservedAt.Unix()), Y: o.Temperature}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return "", fmt.Errorf("building forecast temperature line: %w", err)
	}
	line.Color = avgColor
	line.Width = vg.Points(2)
	tempPanel.Add(line)

	humidityPanel := plot.New()
	humidityPanel.Title.Text = "Forecast Humidity"
	humidityPanel.Y.Label.Text = "Humidity (%)"
	humidityPanel.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02 15h"}

	humXYs := make(plotter.XYs, len(obs))
	for i, o := range obs {
		humXYs[i] = plotter.XY{X: float64(o.ObservedAt.Unix()), Y: float64(o.Humidity)}
	}

	humLine, err := plotter.NewLine(humXYs)
	if err != nil {
		return "", fmt.Errorf("building forecast humidity line: %w", err)
	}
	humLine.Color = humidityColor
	humLine.Width = vg.Points(1)
	humidityPanel.Add(humLine)

	target, webPath := r.paths(city, "forecast")
	if err := writePanels(target, 8*vg.Inch, 6*vg.Inch, tempPanel, humidityPanel); err != nil {
		return "", err
	}
	return webPath, nil
}

func barPanel(title, yLabel string, labels []string, values plotter.Values, fill color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	bars, err := plotter.NewBarChart(values, vg.Points(16))
	if err != nil {
		return nil, fmt.Errorf("building %s bars: %w", title, err)
	}
	bars.Color = fill
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	return p, nil
}

// writePanels stacks plots vertically into one PNG.
func writePanels(path string, width, height vg.Length, panels ...*plot.Plot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: len(panels), Cols: 1, PadY: vg.Points(10)}

	grid := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		grid[i] = []*plot.Plot{p}
	}

	canvases := plot.Align(grid, tiles, dc)
	for i, p := range panels {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}

	pngCanvas := vgimg.PngCanvas{Canvas: img}
	if _, err := pngCanvas.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing chart: %w", err)
	}
	return f.Close()
}
