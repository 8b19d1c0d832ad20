package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/penwyp/go-bubble-hist/internal/config"
	"github.com/penwyp/go-bubble-hist/internal/util"
)

// TableFormatter prints one row per bin and one column per time group.
type TableFormatter struct {
	color bool
}

func NewTableFormatter(color bool) *TableFormatter {
	return &TableFormatter{color: color}
}

func (f *TableFormatter) Format(w io.Writer, r *Report) error {
	res := r.Result
	if res == nil {
		return fmt.Errorf("no histogram to format")
	}

	headers := []string{"Bin (um)", "Center"}
	for _, g := range res.Groups {
		headers = append(headers, "t="+config.FormatGroup(g.Time))
	}

	rows := make([][]string, 0, len(res.Centers)+1)
	for i, center := range res.Centers {
		row := []string{binRange(res.Edges, i), formatFloat(center)}
		for _, g := range res.Groups {
			row = append(row, formatCount(g.Counts[i], g.Errors[i]))
		}
		rows = append(rows, row)
	}

	totals := []string{"Total", ""}
	for _, g := range res.Groups {
		totals = append(totals, strconv.Itoa(g.Total()))
	}

	widths := f.calculateColumnWidths(headers, rows, totals)

	var sb strings.Builder
	if r.Title != "" {
		sb.WriteString(util.Bold(r.Title, f.color))
		sb.WriteString("\n")
	}
	f.writeBorder(&sb, widths, "top")
	f.writeRow(&sb, headers, widths, true)
	f.writeBorder(&sb, widths, "middle")
	for _, row := range rows {
		f.writeRow(&sb, row, widths, false)
	}
	f.writeBorder(&sb, widths, "middle")
	f.writeRow(&sb, totals, widths, false)
	f.writeBorder(&sb, widths, "bottom")
	if r.Output != "" {
		fmt.Fprintf(&sb, "Saved %s\n", r.Output)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TableFormatter) calculateColumnWidths(headers []string, rows [][]string, totals []string) []int {
	widths := make([]int, len(headers))
	measure := func(values []string) {
		for i, v := range values {
			if dw := util.GetDisplayWidth(v); dw > widths[i] {
				widths[i] = dw
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	measure(totals)
	return widths
}

func (f *TableFormatter) writeBorder(sb *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}

// writeRow left-aligns the bin column and right-aligns the numbers
func (f *TableFormatter) writeRow(sb *strings.Builder, values []string, widths []int, header bool) {
	sb.WriteString("│")
	for i, value := range values {
		var cell string
		if i == 0 {
			cell = util.PadRight(value, widths[i])
		} else {
			cell = util.PadLeft(value, widths[i])
		}
		if header {
			cell = util.Bold(cell, f.color)
		}
		sb.WriteString(" " + cell + " │")
	}
	sb.WriteString("\n")
}

func binRange(edges []float64, i int) string {
	closing := ")"
	if i == len(edges)-2 {
		closing = "]"
	}
	return fmt.Sprintf("[%s, %s%s", formatFloat(edges[i]), formatFloat(edges[i+1]), closing)
}

func formatCount(count int, err float64) string {
	if count == 0 {
		return "0"
	}
	return fmt.Sprintf("%d ± %.2f", count, err)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
