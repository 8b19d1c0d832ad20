package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Bars draws one bar per bin in data units, from the bottom of the y axis up
// to the bin count. Empty bins are skipped and bars are clipped to the axes.
type Bars struct {
	Centers []float64
	Counts  []int
	Offset  float64
	Width   float64

	Color     color.Color
	LineStyle draw.LineStyle
}

func (b *Bars) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	for i, center := range b.Centers {
		if i >= len(b.Counts) || b.Counts[i] <= 0 {
			continue
		}
		x := center + b.Offset
		x0 := clamp(x-b.Width/2, plt.X.Min, plt.X.Max)
		x1 := clamp(x+b.Width/2, plt.X.Min, plt.X.Max)
		if x1 <= x0 {
			continue
		}

		bottom := plt.Y.Min
		top := math.Min(float64(b.Counts[i]), plt.Y.Max)
		if top <= bottom {
			continue
		}

		left, right := trX(x0), trX(x1)
		low, high := trY(bottom), trY(top)

		c.FillPolygon(b.Color, []vg.Point{
			{X: left, Y: low}, {X: right, Y: low},
			{X: right, Y: high}, {X: left, Y: high},
		})

		// the base sits on the axis and a clipped top has no edge
		if float64(b.Counts[i]) <= plt.Y.Max {
			c.StrokeLines(b.LineStyle, []vg.Point{
				{X: left, Y: low}, {X: left, Y: high},
				{X: right, Y: high}, {X: right, Y: low},
			})
		} else {
			c.StrokeLine2(b.LineStyle, left, low, left, high)
			c.StrokeLine2(b.LineStyle, right, low, right, high)
		}
	}
}

// ErrorBars draws count ± error as capped vertical segments. Ends that
// leave the y range are clipped and lose their cap.
type ErrorBars struct {
	Centers []float64
	Counts  []int
	Errors  []float64
	Offset  float64

	CapWidth  vg.Length
	LineStyle draw.LineStyle
}

func (e *ErrorBars) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	for i, center := range e.Centers {
		if i >= len(e.Counts) || i >= len(e.Errors) || e.Counts[i] <= 0 {
			continue
		}
		x := center + e.Offset
		if x < plt.X.Min || x > plt.X.Max {
			continue
		}

		y := float64(e.Counts[i])
		lo, hi := y-e.Errors[i], y+e.Errors[i]
		loClipped, hiClipped := lo < plt.Y.Min, hi > plt.Y.Max
		lo = clamp(lo, plt.Y.Min, plt.Y.Max)
		hi = clamp(hi, plt.Y.Min, plt.Y.Max)
		if hi <= lo {
			continue
		}

		px := trX(x)
		pLo, pHi := trY(lo), trY(hi)
		c.StrokeLine2(e.LineStyle, px, pLo, px, pHi)

		half := e.CapWidth / 2
		if !loClipped {
			c.StrokeLine2(e.LineStyle, px-half, pLo, px+half, pLo)
		}
		if !hiClipped {
			c.StrokeLine2(e.LineStyle, px-half, pHi, px+half, pHi)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
