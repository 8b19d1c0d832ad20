package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/penwyp/go-bubble-hist/internal/config"
	"github.com/penwyp/go-bubble-hist/internal/data/histogram"
	"github.com/penwyp/go-bubble-hist/internal/data/loader"
	"github.com/penwyp/go-bubble-hist/internal/presentation/chart"
	"github.com/penwyp/go-bubble-hist/internal/presentation/formatter"
	"github.com/penwyp/go-bubble-hist/internal/presentation/output"
	"github.com/penwyp/go-bubble-hist/internal/util"
)

// Stage names used to prefix pipeline errors.
const (
	StageValidate  = "validate"
	StagePreflight = "preflight"
	StageLoad      = "load"
	StageBin       = "bin"
	StageRender    = "render"
	StageSave      = "save"
	StageSummary   = "summary"
	StageShow      = "show"
)

// Result is what one pipeline run produced.
type Result struct {
	Columns   *loader.Columns
	Histogram *histogram.Result
	Image     *output.Image
}

// ViewerFunc opens a saved image.
type ViewerFunc func(ctx context.Context, path string) error

type Analyzer struct {
	config    *config.Config
	out       io.Writer
	formatter formatter.Formatter
	viewer    ViewerFunc
	canShow   func() bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithOutput sets where the summary is printed.
func WithOutput(w io.Writer) Option {
	return func(a *Analyzer) { a.out = w }
}

// WithSummary sets the summary formatter. A nil formatter prints nothing.
func WithSummary(f formatter.Formatter) Option {
	return func(a *Analyzer) { a.formatter = f }
}

// WithViewer replaces the image viewer and the check deciding whether it may run.
func WithViewer(viewer ViewerFunc, canShow func() bool) Option {
	return func(a *Analyzer) {
		a.viewer = viewer
		a.canShow = canShow
	}
}

func New(cfg *config.Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		config:  cfg,
		out:     os.Stdout,
		viewer:  output.Show,
		canShow: output.CanShow,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run loads, bins, renders and saves one chart. Nothing is written when
// any stage before save fails.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	cfg := a.config
	util.LogInfo("Starting histogram run", util.F("input", cfg.InputFile))

	// Phase 1: Validate configuration, including the color of every group
	validateStart := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, stageError(StageValidate, err)
	}
	util.LogDebug(fmt.Sprintf("Phase 1 - Config validation duration: %v", time.Since(validateStart)))

	// Phase 2: Make sure the output can be written before doing any work
	outPath := cfg.OutputPath()
	preflightStart := time.Now()
	if err := output.CheckWritable(outPath); err != nil {
		return nil, stageError(StagePreflight, err)
	}
	util.LogDebug(fmt.Sprintf("Phase 2 - Output preflight duration: %v", time.Since(preflightStart)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: Load both columns
	loadStart := time.Now()
	cols, err := loader.Load(cfg.InputFile, cfg.DiameterColumn, cfg.TimeColumn)
	if err != nil {
		return nil, stageError(StageLoad, err)
	}
	util.LogDebug(fmt.Sprintf("Phase 3 - Load duration: %v, %d rows", time.Since(loadStart), cols.RowCount))
	util.LogInfo("Loaded input",
		util.F("rows", cols.RowCount),
		util.F("diameters", len(cols.Diameters)),
		util.F("times", len(cols.Times)),
		util.F("dropped_diameters", cols.DroppedDiameters),
		util.F("dropped_times", cols.DroppedTimes))
	if len(cols.Diameters) == 0 {
		util.LogWarn("No usable diameters in input; every histogram will be empty",
			util.F("column", cfg.DiameterColumn))
	}

	// Phase 4: Bin every time group
	binStart := time.Now()
	hist, err := histogram.Build(cols.Diameters, cols.Times, cfg.DMax, cfg.BinWidth, cfg.TimeGroups)
	if err != nil {
		return nil, stageError(StageBin, err)
	}
	util.LogDebug(fmt.Sprintf("Phase 4 - Binning duration: %v, %d bins", time.Since(binStart), len(hist.Centers)))

	// Phase 5: Build the chart
	renderStart := time.Now()
	p, err := chart.Render(hist.Centers, hist.Groups, cfg)
	if err != nil {
		return nil, stageError(StageRender, err)
	}
	util.LogDebug(fmt.Sprintf("Phase 5 - Render duration: %v", time.Since(renderStart)))

	// Phase 6: Write the PNG
	saveStart := time.Now()
	img, err := output.Save(p, outPath, output.Options{
		WidthInch:  cfg.FigureWidthInch,
		HeightInch: cfg.FigureHeightInch,
		DPI:        cfg.DPI,
	})
	if err != nil {
		return nil, stageError(StageSave, err)
	}
	util.LogDebug(fmt.Sprintf("Phase 6 - Save duration: %v", time.Since(saveStart)))
	util.LogInfo("Saved plot",
		util.F("path", img.Path),
		util.F("width", img.Width),
		util.F("height", img.Height),
		util.F("bytes", img.Bytes))

	result := &Result{Columns: cols, Histogram: hist, Image: img}

	// Phase 7: Print the summary
	if a.formatter != nil {
		report := &formatter.Report{
			Title:  cfg.Title,
			Input:  cfg.InputFile,
			Output: img.Path,
			Result: hist,
		}
		if err := a.formatter.Format(a.out, report); err != nil {
			return result, stageError(StageSummary, err)
		}
	}

	// Phase 8: Optionally open the image
	if cfg.Show {
		if a.canShow == nil || !a.canShow() {
			util.LogWarn("Display requested but stdout is not a terminal; skipping viewer")
		} else if err := a.viewer(ctx, img.Path); err != nil {
			return result, stageError(StageShow, err)
		}
	}

	util.LogDebug(fmt.Sprintf("Total run duration: %v", time.Since(startTime)))
	return result, nil
}

func stageError(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
