package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-bubble-hist/internal/analyzer"
	"github.com/penwyp/go-bubble-hist/internal/config"
	"github.com/penwyp/go-bubble-hist/internal/presentation/formatter"
	"github.com/penwyp/go-bubble-hist/internal/util"
	"github.com/penwyp/go-bubble-hist/internal/watch"
)

type rootOptions struct {
	// Logging related
	debug bool
	quiet bool

	// Configuration
	configFile string

	// Input and labels
	input    string
	title    string
	binWidth float64

	// Output related
	outDir  string
	show    bool
	summary string

	watch bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&rootOptions{})
}

func newRootCmdWithOptions(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "go-bubble-hist [flags]",
		Short: "Bubble size histogram plotter",
		Long: `go-bubble-hist bins bubble diameters from a CSV file by time group and
draws them as side-by-side bars with Poisson error bars on a log-scale count axis.

The chart is written to <title>_plot.png, with the title lowercased and spaces
replaced by underscores.

Examples:
  go-bubble-hist                                  # Plot random_bubble_bins.csv with built-in settings
  go-bubble-hist -i run3.csv --title "Run 3"      # Plot another file under another title
  go-bubble-hist -c labrasol.yaml --out-dir out   # Use a config file, write into out/
  go-bubble-hist --bin-width 25 --summary json    # Narrower bins, print the histogram as JSON
  go-bubble-hist -w                               # Re-plot whenever the input file changes`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, opts)
		},
	}

	// Configuration
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "",
		"YAML configuration file (built-in defaults when unset)")

	// Input and labels
	cmd.Flags().StringVarP(&opts.input, "input", "i", "",
		"Input CSV file")
	cmd.Flags().StringVar(&opts.title, "title", "",
		"Chart title, also used to name the output file")
	cmd.Flags().Float64Var(&opts.binWidth, "bin-width", 0,
		"Histogram bin width in diameter units")

	// Output configuration
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "",
		"Directory for the PNG file")
	cmd.Flags().BoolVar(&opts.show, "show", false,
		"Open the chart in the system image viewer after saving")
	cmd.Flags().StringVar(&opts.summary, "summary", "table",
		"Summary format printed after saving (table, json)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false,
		"Do not print a summary")

	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false,
		"Re-plot whenever the input file changes")

	// System and debugging
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false,
		"Enable debug mode")

	return cmd
}

func runPlot(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	if err := initLogging(cfg, opts.debug, cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer util.CloseLogger()

	var summary formatter.Formatter
	if !opts.quiet {
		summary, err = formatter.New(opts.summary, colorEnabled(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := analyzer.New(cfg, analyzer.WithOutput(cmd.OutOrStdout()), analyzer.WithSummary(summary))
	if _, err := a.Run(ctx); err != nil {
		return err
	}

	if !opts.watch {
		return nil
	}
	return watchInput(ctx, cfg, a)
}

func watchInput(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer) error {
	fw, err := watch.NewFileWatcher(cfg.InputFile, watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch input: %w", err)
	}
	defer fw.Close()

	return fw.Run(ctx, func(ctx context.Context) error {
		_, err := a.Run(ctx)
		return err
	})
}

// buildConfig loads the config file, if any, and applies flags the user
// set explicitly on top of it.
func buildConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(util.ExpandPath(opts.configFile))
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputFile = opts.input
	}
	if flags.Changed("title") {
		cfg.Title = opts.title
	}
	if flags.Changed("bin-width") {
		cfg.BinWidth = opts.binWidth
	}
	if flags.Changed("out-dir") {
		cfg.OutputDir = opts.outDir
	}
	if flags.Changed("show") {
		cfg.Show = opts.show
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// initLogging writes every level to the configured log file and mirrors
// warnings to stderr. When the log directory cannot be created the run
// continues with console logging only.
func initLogging(cfg *config.Config, debug bool, console io.Writer) error {
	logFile := ""
	var dirErr error
	if cfg.Log.File != "" {
		logFile = util.ExpandPath(cfg.Log.File)
		if err := util.EnsureDir(filepath.Dir(logFile)); err != nil {
			dirErr = err
			logFile = ""
		}
	}

	err := util.InitLogger(util.LoggerOptions{
		Level:          cfg.Log.Level,
		Format:         util.LogFormat(cfg.Log.Format),
		File:           logFile,
		MaxSizeMB:      cfg.Log.MaxSizeMB,
		MaxBackups:     cfg.Log.MaxBackups,
		DebugToConsole: debug,
		WarnToConsole:  true,
		Console:        console,
	})
	if err != nil {
		return err
	}

	if dirErr != nil {
		util.LogWarn("Log directory unavailable; logging to console only",
			util.F("path", cfg.Log.File), util.F("error", dirErr.Error()))
	}
	return nil
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && util.IsTerminal(f)
}

func Execute() error {
	return rootCmd.Execute()
}
