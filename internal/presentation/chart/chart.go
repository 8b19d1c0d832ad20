package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/penwyp/go-bubble-hist/internal/config"
	"github.com/penwyp/go-bubble-hist/internal/data/histogram"
	"github.com/penwyp/go-bubble-hist/internal/util"
)

// ErrNoGroups is returned when there is nothing to draw.
var ErrNoGroups = errors.New("no time groups to render")

const (
	barLineWidth   = 0.6
	errorLineWidth = 0.8
	capWidth       = 6 // two 3pt cap halves
	tickFontSize   = 8
	legendFontSize = 8
)

// Offsets returns the bar width and the per-series x offset that lays n
// series side by side, centered on the bin center, inside fraction of one
// bin width.
func Offsets(n int, binWidth, fraction float64) (float64, []float64) {
	if n <= 0 {
		return 0, nil
	}
	barW := (fraction / float64(n)) * binWidth
	offsets := make([]float64, n)
	for i := range offsets {
		offsets[i] = (float64(i) - float64(n-1)/2) * barW
	}
	return barW, offsets
}

// LinearTicks places labelled major ticks every major units and unlabelled
// minor ticks every minor units inside [min, max].
func LinearTicks(min, max, major, minor float64) []plot.Tick {
	const eps = 1e-9
	var ticks []plot.Tick

	if major > 0 {
		for k := math.Ceil(min/major - eps); k*major <= max+eps; k++ {
			v := tickValue(k, major)
			ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
		}
	}
	if minor > 0 {
		for k := math.Ceil(min/minor - eps); k*minor <= max+eps; k++ {
			v := tickValue(k, minor)
			if major > 0 {
				r := v / major
				if math.Abs(r-math.Round(r)) < eps {
					continue
				}
			}
			ticks = append(ticks, plot.Tick{Value: v})
		}
	}
	return ticks
}

// tickValue returns k*step with negative zero folded to zero, so the origin
// is labelled "0".
func tickValue(k, step float64) float64 {
	v := k * step
	if v == 0 {
		return 0
	}
	return v
}

// Render builds the grouped bar chart. Colors are resolved for every group
// before any plotter is created.
func Render(centers []float64, groups []histogram.Group, cfg *config.Config) (*plot.Plot, error) {
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}

	times := make([]float64, len(groups))
	for i, g := range groups {
		times[i] = g.Time
	}
	palette, err := Palette(times, cfg.Colors)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.BackgroundColor = color.White

	p.Title.Text = cfg.Title
	p.Title.Padding = vg.Points(6)
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel

	barW, offsets := Offsets(len(groups), cfg.BinWidth, cfg.BarWidthFraction)
	util.LogDebugf("Rendering %d series, bar width %g, offsets %v", len(groups), barW, offsets)

	black := color.Black
	legend := &Legend{
		FontSize:   vg.Points(legendFontSize),
		Margin:     vg.Points(4),
		Padding:    vg.Points(4),
		Background: color.White,
		Border:     draw.LineStyle{Color: black, Width: vg.Points(errorLineWidth)},
		Swatch:     draw.LineStyle{Color: black, Width: vg.Points(barLineWidth)},
	}

	errorBars := make([]plot.Plotter, 0, len(groups))
	for i, g := range groups {
		p.Add(&Bars{
			Centers:   centers,
			Counts:    g.Counts,
			Offset:    offsets[i],
			Width:     barW,
			Color:     palette[i],
			LineStyle: draw.LineStyle{Color: black, Width: vg.Points(barLineWidth)},
		})
		errorBars = append(errorBars, &ErrorBars{
			Centers:   centers,
			Counts:    g.Counts,
			Errors:    g.Errors,
			Offset:    offsets[i],
			CapWidth:  vg.Points(capWidth),
			LineStyle: draw.LineStyle{Color: black, Width: vg.Points(errorLineWidth)},
		})
		legend.Entries = append(legend.Entries, LegendEntry{
			Label: config.FormatGroup(g.Time),
			Color: palette[i],
		})
	}
	// error bars sit on top of every bar series, the legend on top of both
	p.Add(errorBars...)
	p.Add(legend)

	p.Y.Scale = plot.LogScale{}
	p.Y.Min, p.Y.Max = cfg.YMin, cfg.YMax
	yTicks := make([]plot.Tick, len(cfg.YTicks))
	for i, t := range cfg.YTicks {
		yTicks[i] = plot.Tick{Value: t.Value, Label: t.Label}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	p.X.Min, p.X.Max = 0, cfg.DMax
	p.X.Tick.Marker = plot.ConstantTicks(LinearTicks(0, cfg.DMax, cfg.XMajorTick, cfg.XMinorTick))
	p.X.Tick.Label.Font.Size = vg.Points(tickFontSize)
	p.X.Tick.Length = vg.Points(6)

	if err := checkRanges(p); err != nil {
		return nil, err
	}
	return p, nil
}

func checkRanges(p *plot.Plot) error {
	if !(p.Y.Min > 0) || p.Y.Max <= p.Y.Min {
		return fmt.Errorf("invalid log axis range [%g, %g]", p.Y.Min, p.Y.Max)
	}
	if p.X.Max <= p.X.Min {
		return fmt.Errorf("invalid x axis range [%g, %g]", p.X.Min, p.X.Max)
	}
	return nil
}
