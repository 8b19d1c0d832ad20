package chart

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// LegendEntry is one swatch and its label.
type LegendEntry struct {
	Label string
	Color color.Color
}

// Legend is a boxed legend pinned to the upper-right corner of the data
// area, with an opaque background.
type Legend struct {
	Entries []LegendEntry

	FontSize   vg.Length
	Margin     vg.Length
	Padding    vg.Length
	Background color.Color
	Border     draw.LineStyle
	Swatch     draw.LineStyle
}

// Box returns the legend rectangle inside c.
func (l *Legend) Box(c draw.Canvas, sty text.Style) vg.Rectangle {
	rowH, textW := l.metrics(sty)
	n := vg.Length(len(l.Entries))

	width := l.Padding*3 + rowH*1.5 + textW
	height := l.Padding*2 + n*rowH + (n-1)*l.rowGap(rowH)

	corner := vg.Point{X: c.Max.X - l.Margin, Y: c.Max.Y - l.Margin}
	return vg.Rectangle{
		Min: vg.Point{X: corner.X - width, Y: corner.Y - height},
		Max: corner,
	}
}

func (l *Legend) Plot(c draw.Canvas, plt *plot.Plot) {
	if len(l.Entries) == 0 {
		return
	}

	sty := plt.Legend.TextStyle
	sty.Font.Size = l.FontSize
	sty.XAlign = text.XLeft
	sty.YAlign = text.YCenter

	box := l.Box(c, sty)
	outline := []vg.Point{
		box.Min, {X: box.Max.X, Y: box.Min.Y},
		box.Max, {X: box.Min.X, Y: box.Max.Y},
	}
	c.FillPolygon(l.Background, outline)
	c.StrokeLines(l.Border, append(outline, box.Min))

	rowH, _ := l.metrics(sty)
	swatchW := rowH * 1.5
	for i, e := range l.Entries {
		yc := box.Max.Y - l.Padding - rowH/2 - vg.Length(i)*(rowH+l.rowGap(rowH))
		x0 := box.Min.X + l.Padding
		sw := []vg.Point{
			{X: x0, Y: yc - rowH*0.35}, {X: x0 + swatchW, Y: yc - rowH*0.35},
			{X: x0 + swatchW, Y: yc + rowH*0.35}, {X: x0, Y: yc + rowH*0.35},
		}
		c.FillPolygon(e.Color, sw)
		c.StrokeLines(l.Swatch, append(sw, sw[0]))
		c.FillText(sty, vg.Point{X: x0 + swatchW + l.Padding, Y: yc}, e.Label)
	}
}

func (l *Legend) metrics(sty text.Style) (rowH, textW vg.Length) {
	for _, e := range l.Entries {
		if h := sty.Height(e.Label); h > rowH {
			rowH = h
		}
		if w := sty.Width(e.Label); w > textW {
			textW = w
		}
	}
	return rowH, textW
}

func (l *Legend) rowGap(rowH vg.Length) vg.Length {
	return rowH * 0.4
}
