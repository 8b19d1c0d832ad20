package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for any configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Tick is a fixed axis tick with its printed label.
type Tick struct {
	Value float64 `yaml:"value" validate:"gt=0"`
	Label string  `yaml:"label"`
}

// LogConfig controls the application log.
type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"omitempty,oneof=text json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// Config holds every presentation and input constant for one run.
// It is built once at start-up and treated as read-only afterwards.
type Config struct {
	InputFile      string `yaml:"input_file" validate:"required"`
	DiameterColumn string `yaml:"diameter_column" validate:"required"`
	TimeColumn     string `yaml:"time_column" validate:"required"`

	Title  string `yaml:"title" validate:"required"`
	XLabel string `yaml:"x_label"`
	YLabel string `yaml:"y_label"`

	BinWidth float64 `yaml:"bin_width" validate:"gt=0"`
	DMin     float64 `yaml:"d_min" validate:"gte=0"`
	DMax     float64 `yaml:"d_max" validate:"gtfield=DMin"`

	YMin   float64 `yaml:"y_min" validate:"gt=0"`
	YMax   float64 `yaml:"y_max" validate:"gtfield=YMin"`
	YTicks []Tick  `yaml:"y_ticks" validate:"min=1,dive"`

	XMajorTick float64 `yaml:"x_major_tick" validate:"gt=0"`
	XMinorTick float64 `yaml:"x_minor_tick" validate:"gt=0"`

	TimeGroups []float64          `yaml:"time_groups" validate:"min=1"`
	Colors     map[float64]string `yaml:"colors" validate:"min=1"`

	// BarWidthFraction is the share of one bin taken by all series together.
	BarWidthFraction float64 `yaml:"bar_width_fraction" validate:"gt=0,lte=1"`

	FigureWidthInch  float64 `yaml:"figure_width_inch" validate:"gt=0"`
	FigureHeightInch float64 `yaml:"figure_height_inch" validate:"gt=0"`
	DPI              int     `yaml:"dpi" validate:"gt=0"`

	OutputDir string `yaml:"output_dir"`
	Show      bool   `yaml:"show"`

	Log LogConfig `yaml:"log"`
}

// Default returns the configuration used for the Labrasol bubble runs.
func Default() *Config {
	return &Config{
		InputFile:      "random_bubble_bins.csv",
		DiameterColumn: "diameter_um",
		TimeColumn:     "time",
		Title:          "2% Labrasol unloaded",
		XLabel:         "Bin Center Diameter (um)",
		YLabel:         "Count",
		BinWidth:       50,
		DMin:           1,
		DMax:           900,
		YMin:           0.1,
		YMax:           100,
		YTicks: []Tick{
			{Value: 0.1, Label: "0.1"},
			{Value: 1, Label: "1"},
			{Value: 10, Label: "10"},
			{Value: 100, Label: "100"},
		},
		XMajorTick:       200,
		XMinorTick:       100,
		TimeGroups:       []float64{0, 5, 15},
		Colors:           map[float64]string{0: "black", 5: "red", 15: "blue"},
		BarWidthFraction: 0.78,
		FigureWidthInch:  6.0,
		FigureHeightInch: 4.5,
		DPI:              150,
		OutputDir:        ".",
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			File:       "~/.go-bubble-hist/logs/app.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// OutputFile is the image file name derived from the title.
func (c *Config) OutputFile() string {
	return strings.ToLower(strings.ReplaceAll(c.Title, " ", "_")) + "_plot.png"
}

// OutputPath joins OutputDir and OutputFile.
func (c *Config) OutputPath() string {
	dir := c.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, c.OutputFile())
}

// Validate checks field constraints and that every time group has a color.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatValidationError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.XMinorTick > c.XMajorTick {
		return fmt.Errorf("%w: x_minor_tick (%g) must not exceed x_major_tick (%g)",
			ErrInvalidConfig, c.XMinorTick, c.XMajorTick)
	}

	for _, tick := range c.YTicks {
		if tick.Value < c.YMin || tick.Value > c.YMax {
			return fmt.Errorf("%w: y tick %g outside [%g, %g]", ErrInvalidConfig, tick.Value, c.YMin, c.YMax)
		}
	}

	seen := make(map[float64]bool, len(c.TimeGroups))
	for _, g := range c.TimeGroups {
		if seen[g] {
			return fmt.Errorf("%w: duplicate time group %s", ErrInvalidConfig, FormatGroup(g))
		}
		seen[g] = true
	}

	if missing := c.MissingColors(); len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, g := range missing {
			labels[i] = FormatGroup(g)
		}
		return fmt.Errorf("%w: no color configured for time group(s) %s",
			ErrInvalidConfig, strings.Join(labels, ", "))
	}

	return nil
}

// MissingColors lists time groups without a color entry, in group order.
func (c *Config) MissingColors() []float64 {
	var missing []float64
	for _, g := range c.TimeGroups {
		if _, ok := c.Colors[g]; !ok {
			missing = append(missing, g)
		}
	}
	return missing
}

// FormatGroup renders a time-group value the way it appears in labels.
func FormatGroup(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationError(err validator.FieldError) string {
	field := err.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
