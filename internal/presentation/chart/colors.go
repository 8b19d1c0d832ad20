package chart

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/penwyp/go-bubble-hist/internal/config"
)

var (
	// ErrMissingColor is returned when a time group has no color entry.
	ErrMissingColor = errors.New("missing color for time group")
	// ErrUnknownColor is returned when a color entry cannot be parsed.
	ErrUnknownColor = errors.New("unknown color")
)

// ParseColor accepts an SVG/CSS color name or a #rgb / #rrggbb hex value.
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}

	if strings.HasPrefix(name, "#") {
		hex := name[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			v, err := strconv.ParseUint(hex, 16, 32)
			if err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// Palette resolves one color per time group, in group order. Every group is
// checked before anything is returned.
func Palette(groups []float64, colors map[float64]string) ([]color.Color, error) {
	var missing []string
	for _, g := range groups {
		if _, ok := colors[g]; !ok {
			missing = append(missing, config.FormatGroup(g))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColor, strings.Join(missing, ", "))
	}

	palette := make([]color.Color, len(groups))
	for i, g := range groups {
		c, err := ParseColor(colors[g])
		if err != nil {
			return nil, fmt.Errorf("time group %s: %w", config.FormatGroup(g), err)
		}
		palette[i] = c
	}
	return palette, nil
}
