//go:build e2e
// +build e2e

package commands

import (
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-bubble-hist/internal/presentation/formatter"
	"github.com/penwyp/go-bubble-hist/internal/testing/fixtures"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "test-bubble-hist")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "../cmd")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))
	return binaryPath
}

// TestRootCommandDefaultPlot runs the binary with built-in settings on generated data
func TestRootCommandDefaultPlot(t *testing.T) {
	tempDir := t.TempDir()
	generator := fixtures.NewTestDataGenerator(tempDir)
	input, err := generator.GenerateBubbles("random_bubble_bins.csv", []float64{0, 5, 15}, 300, 7)
	require.NoError(t, err)

	binaryPath := buildBinary(t)

	cmd := exec.Command(binaryPath, "-i", input, "--out-dir", tempDir)
	cmd.Env = append(os.Environ(), "HOME="+tempDir)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "Command should succeed: %s", string(output))

	outputStr := string(output)
	assert.Contains(t, outputStr, "2% Labrasol unloaded", "Should print the title")
	assert.Contains(t, outputStr, "t=15", "Should show every time group")
	assert.Contains(t, outputStr, "Total", "Should show totals")

	plotPath := filepath.Join(tempDir, "2%_labrasol_unloaded_plot.png")
	assert.Contains(t, outputStr, "Saved "+plotPath)

	f, err := os.Open(plotPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Width)
	assert.Equal(t, 675, cfg.Height)
}

// TestRootCommandJSONSummary checks the JSON summary of the four-row example
func TestRootCommandJSONSummary(t *testing.T) {
	tempDir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(tempDir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)

	cfgPath := filepath.Join(tempDir, "plot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"d_max: 100\nx_major_tick: 50\nx_minor_tick: 25\ntime_groups: [0, 5]\n"), 0644))

	binaryPath := buildBinary(t)

	cmd := exec.Command(binaryPath, "-c", cfgPath, "-i", input, "--out-dir", tempDir,
		"--title", "Scenario", "--summary", "json")
	cmd.Env = append(os.Environ(), "HOME="+tempDir)
	output, err := cmd.Output()
	require.NoError(t, err)

	var report formatter.Report
	require.NoError(t, sonic.Unmarshal(output, &report))
	assert.Equal(t, filepath.Join(tempDir, "scenario_plot.png"), report.Output)
	require.NotNil(t, report.Result)
	assert.Equal(t, []float64{0, 50, 100, 150}, report.Result.Edges)
	assert.Equal(t, []int{1, 1, 0}, report.Result.Groups[0].Counts)
	assert.Equal(t, []int{1, 0, 0}, report.Result.Groups[1].Counts)
}

// TestRootCommandMissingColor exits non-zero and writes no image
func TestRootCommandMissingColor(t *testing.T) {
	tempDir := t.TempDir()
	input, err := fixtures.NewTestDataGenerator(tempDir).GenerateScenario("bubbles.csv")
	require.NoError(t, err)

	cfgPath := filepath.Join(tempDir, "plot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("time_groups: [0, 5, 30]\n"), 0644))

	binaryPath := buildBinary(t)

	cmd := exec.Command(binaryPath, "-c", cfgPath, "-i", input, "--out-dir", tempDir)
	cmd.Env = append(os.Environ(), "HOME="+tempDir)
	output, err := cmd.CombinedOutput()
	require.Error(t, err, "Command should fail: %s", string(output))
	assert.Contains(t, string(output), "no color configured for time group(s) 30")

	_, statErr := os.Stat(filepath.Join(tempDir, "2%_labrasol_unloaded_plot.png"))
	assert.True(t, os.IsNotExist(statErr))
}
