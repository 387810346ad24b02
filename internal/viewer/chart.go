package viewer

import (
	"fmt"
	"math"

	"github.com/companysim/cosim/internal/missing"
)

// Chart layout in SVG user units.
const (
	chartPlotHeight  = 300
	chartSlotWidth   = 64
	chartBarWidth    = 44
	chartMarginLeft  = 64
	chartMarginRight = 24
	chartMarginTop   = 40
	chartMarginBase  = 130
	chartMinWidth    = 480
	chartTargetTicks = 5
)

// barChart is the precomputed geometry of the missing-value chart.
type barChart struct {
	Title   string
	Width   int
	Height  int
	PlotX   int
	PlotY   int
	PlotW   int
	PlotH   int
	XLabelY int
	Bars    []bar
	Ticks   []tick
}

type bar struct {
	Label  string
	Count  int
	X, Y   float64
	W, H   float64
	Color  string
	LabelX float64
	LabelY float64
}

type tick struct {
	Y     float64
	Value int
}

// newBarChart lays out one bar per column with missing values, colored along
// a blue to red diverging palette in column order.
func newBarChart(title string, cols []missing.Column) barChart {
	width := chartMarginLeft + chartMarginRight + chartSlotWidth*len(cols)
	if width < chartMinWidth {
		width = chartMinWidth
	}
	c := barChart{
		Title:  title,
		Width:  width,
		Height: chartMarginTop + chartPlotHeight + chartMarginBase,
		PlotX:  chartMarginLeft,
		PlotY:  chartMarginTop,
		PlotW:  width - chartMarginLeft - chartMarginRight,
		PlotH:  chartPlotHeight,
	}
	c.XLabelY = c.Height - 12

	most := 0
	for _, col := range cols {
		if col.Missing > most {
			most = col.Missing
		}
	}
	step := tickStep(most)
	top := step * int(math.Ceil(float64(most)/float64(step)))
	if top == 0 {
		top = step
	}

	scale := float64(chartPlotHeight) / float64(top)
	base := float64(chartMarginTop + chartPlotHeight)

	for v := 0; v <= top; v += step {
		c.Ticks = append(c.Ticks, tick{Y: base - float64(v)*scale, Value: v})
	}

	for i, col := range cols {
		h := float64(col.Missing) * scale
		x := float64(chartMarginLeft + i*chartSlotWidth + (chartSlotWidth-chartBarWidth)/2)
		c.Bars = append(c.Bars, bar{
			Label:  col.Name,
			Count:  col.Missing,
			X:      x,
			Y:      base - h,
			W:      chartBarWidth,
			H:      h,
			Color:  coolwarm(i, len(cols)),
			LabelX: x + chartBarWidth/2,
			LabelY: base + 14,
		})
	}
	return c
}

// tickStep returns a 1, 2 or 5 times power-of-ten step giving about
// chartTargetTicks intervals up to most.
func tickStep(most int) int {
	if most <= chartTargetTicks {
		return 1
	}
	raw := float64(most) / chartTargetTicks
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return int(m * mag)
		}
	}
	return int(10 * mag)
}

// coolwarm interpolates the diverging palette: blue, light grey, red.
func coolwarm(i, n int) string {
	cold := [3]float64{59, 76, 192}
	mid := [3]float64{221, 221, 221}
	warm := [3]float64{180, 4, 38}

	t := 0.5
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	from, to := cold, mid
	if t > 0.5 {
		from, to = mid, warm
		t = (t - 0.5) * 2
	} else {
		t *= 2
	}

	var rgb [3]int
	for k := range rgb {
		rgb[k] = int(math.Round(from[k] + (to[k]-from[k])*t))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}
