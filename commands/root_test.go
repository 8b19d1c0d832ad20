package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-bubble-hist/internal/config"
	"github.com/penwyp/go-bubble-hist/internal/presentation/formatter"
	"github.com/penwyp/go-bubble-hist/internal/testing/fixtures"
)

func parse(t *testing.T, args ...string) (*rootOptions, *config.Config) {
	t.Helper()
	opts := &rootOptions{}
	cmd := newRootCmdWithOptions(opts)
	require.NoError(t, cmd.ParseFlags(args))
	cfg, err := buildConfig(cmd, opts)
	require.NoError(t, err)
	return opts, cfg
}

func TestBuildConfigDefaults(t *testing.T) {
	opts, cfg := parse(t)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "table", opts.summary)
	assert.False(t, opts.quiet)
	assert.False(t, opts.watch)
	assert.False(t, cfg.Show)
}

func TestBuildConfigFlagOverrides(t *testing.T) {
	_, cfg := parse(t,
		"-i", "run3.csv",
		"--title", "Run 3",
		"--bin-width", "25",
		"--out-dir", "plots",
		"--show",
		"--debug",
	)

	assert.Equal(t, "run3.csv", cfg.InputFile)
	assert.Equal(t, "Run 3", cfg.Title)
	assert.Equal(t, 25.0, cfg.BinWidth)
	assert.Equal(t, "plots", cfg.OutputDir)
	assert.True(t, cfg.Show)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "run_3_plot.png", cfg.OutputFile())
}

func TestBuildConfigFileThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: From File\nbin_width: 10\ninput_file: a.csv\n"), 0644))

	_, cfg := parse(t, "-c", path, "--bin-width", "20")

	assert.Equal(t, "From File", cfg.Title, "unset flags keep file values")
	assert.Equal(t, "a.csv", cfg.InputFile)
	assert.Equal(t, 20.0, cfg.BinWidth, "explicit flags win")
}

func TestBuildConfigBadFile(t *testing.T) {
	opts := &rootOptions{}
	cmd := newRootCmdWithOptions(opts)
	require.NoError(t, cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")}))

	_, err := buildConfig(cmd, opts)
	assert.Error(t, err)
}

func writeRunConfig(t *testing.T, dir, input, groups string) string {
	t.Helper()
	return writeRunConfigWithLog(t, dir, input, groups, filepath.Join(dir, "logs", "app.log"))
}

func writeRunConfigWithLog(t *testing.T, dir, input, groups, logFile string) string {
	t.Helper()
	body := fmt.Sprintf(`input_file: %s
output_dir: %s
bin_width: 50
d_max: 100
x_major_tick: 50
x_minor_tick: 25
time_groups: %s
log:
  file: %s
`, input, dir, groups, logFile)
	path := filepath.Join(dir, "plot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestExecuteWritesPlotAndSummary(t *testing.T) {
	dir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(dir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)
	cfgPath := writeRunConfig(t, dir, input, "[0, 5]")

	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-c", cfgPath, "--summary", "json"})
	require.NoError(t, cmd.Execute())

	plotPath := filepath.Join(dir, "2%_labrasol_unloaded_plot.png")
	_, err = os.Stat(plotPath)
	require.NoError(t, err)

	var report formatter.Report
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, plotPath, report.Output)
	assert.Equal(t, []int{1, 1, 0}, report.Result.Groups[0].Counts)

	_, err = os.Stat(filepath.Join(dir, "logs", "app.log"))
	assert.NoError(t, err, "log file created")
}

func TestExecuteQuiet(t *testing.T) {
	dir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(dir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)
	cfgPath := writeRunConfig(t, dir, input, "[0, 5]")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-c", cfgPath, "-q"})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, out.String())
}

func TestExecuteMissingColorFails(t *testing.T) {
	dir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(dir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)
	cfgPath := writeRunConfig(t, dir, input, "[0, 5, 30]")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-c", cfgPath, "-q"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no color configured for time group(s) 30")

	_, statErr := os.Stat(filepath.Join(dir, "2%_labrasol_unloaded_plot.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteUnknownSummary(t *testing.T) {
	dir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(dir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)
	cfgPath := writeRunConfig(t, dir, input, "[0, 5]")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-c", cfgPath, "--summary", "xml"})
	assert.Error(t, cmd.Execute())
}

func TestExecuteRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

func TestExecuteWarningsReachStderr(t *testing.T) {
	dir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(dir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)
	cfgPath := writeRunConfig(t, dir, input, "[0, 5]")

	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-c", cfgPath, "-q"})
	require.NoError(t, cmd.Execute())

	// the scenario drops one diameter but no time, so the columns differ in length
	assert.Contains(t, stderr.String(), "[WARN] Diameter and time columns differ in length")
	assert.NotContains(t, stderr.String(), "[INFO]")
	assert.Empty(t, out.String())
}

func TestExecuteUnusableLogDirFallsBackToConsole(t *testing.T) {
	dir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(dir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)

	// a regular file where the log directory should be
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfgPath := writeRunConfigWithLog(t, dir, input, "[0, 5]", filepath.Join(blocker, "logs", "app.log"))

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-c", cfgPath, "-q"})
	require.NoError(t, cmd.Execute())

	_, err = os.Stat(filepath.Join(dir, "2%_labrasol_unloaded_plot.png"))
	assert.NoError(t, err, "plot still written")
	assert.Contains(t, stderr.String(), "Log directory unavailable")
}
