package charts

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/skywatchwx/skywatch/internal/rollup"
)

// tempGrid adapts hourly buckets to plotter.GridXYZ. Columns are the 24
// hours of the day, rows are the days present; cells with no samples are
// NaN and the heatmap leaves them blank.
type tempGrid struct {
	days []time.Time
	vals [][]float64
}

func (g tempGrid) Dims() (c, r int)   { return 24, len(g.days) }
func (g tempGrid) Z(c, r int) float64 { return g.vals[r][c] }
func (g tempGrid) X(c int) float64    { return float64(c) }
func (g tempGrid) Y(r int) float64    { return float64(r) }

func newTempGrid(buckets map[rollup.HourKey]float64) tempGrid {
	seen := make(map[time.Time]bool)
	for key := range buckets {
		seen[key.Day] = true
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	rowOf := make(map[time.Time]int, len(days))
	vals := make([][]float64, len(days))
	for i, day := range days {
		rowOf[day] = i
		vals[i] = make([]float64, 24)
		for h := range vals[i] {
			vals[i][h] = math.NaN()
		}
	}

	for key, avg := range buckets {
		vals[rowOf[key.Day]][key.Hour] = avg
	}

	return tempGrid{days: days, vals: vals}
}

// Heatmap renders average temperature per (day, hour) cell. An empty bucket
// map produces no file and an empty path.
func (r *Renderer) Heatmap(city string, buckets map[rollup.HourKey]float64) (string, error) {
	if len(buckets) == 0 {
		return "", nil
	}

	grid := newTempGrid(buckets)

	colorMap := moreland.SmoothBlueRed()
	colorMap.SetMin(0)
	colorMap.SetMax(1)

	heat := plotter.NewHeatMap(grid, colorMap.Palette(255))
	if heat.Min == heat.Max {
		// A flat grid would collapse the palette range.
		heat.Max = heat.Min + 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Hourly Temperature Heatmap for %s", city)
	p.X.Label.Text = "Hour (UTC)"

	hourTicks := make([]plot.Tick, 0, 8)
	for h := 0; h < 24; h += 3 {
		hourTicks = append(hourTicks, plot.Tick{Value: float64(h), Label: fmt.Sprintf("%02d", h)})
	}
	p.X.Tick.Marker = plot.ConstantTicks(hourTicks)

	dayTicks := make([]plot.Tick, len(grid.days))
	for i, day := range grid.days {
		dayTicks[i] = plot.Tick{Value: float64(i), Label: day.Format("Jan 02")}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(dayTicks)

	p.Add(heat)

	target, webPath := r.paths(city, "heatmap")
	if err := writePanels(target, 8*vg.Inch, 4*vg.Inch, p); err != nil {
		return "", err
	}
	return webPath, nil
}
