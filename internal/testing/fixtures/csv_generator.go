package fixtures

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

// Row is one CSV record as raw cell text, so tests can inject bad values.
type Row struct {
	Diameter string
	Time     string
}

// NumRow builds a Row from numbers.
func NumRow(diameter, time float64) Row {
	return Row{
		Diameter: strconv.FormatFloat(diameter, 'f', -1, 64),
		Time:     strconv.FormatFloat(time, 'f', -1, 64),
	}
}

// TestDataGenerator writes bubble-size CSV files for tests
type TestDataGenerator struct {
	baseDir        string
	diameterColumn string
	timeColumn     string
}

// NewTestDataGenerator creates a generator using the default column names
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir:        baseDir,
		diameterColumn: "diameter_um",
		timeColumn:     "time",
	}
}

// WithColumns overrides the header names
func (g *TestDataGenerator) WithColumns(diameter, time string) *TestDataGenerator {
	g.diameterColumn = diameter
	g.timeColumn = time
	return g
}

// WriteRows writes rows under name and returns the file path
func (g *TestDataGenerator) WriteRows(name string, rows []Row) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(g.baseDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", g.diameterColumn, g.timeColumn}); err != nil {
		return "", err
	}
	for i, r := range rows {
		if err := w.Write([]string{strconv.Itoa(i + 1), r.Diameter, r.Time}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// GenerateScenario writes the four-row example: two clean time-0 rows,
// one clean time-5 row and one time-5 row with a non-numeric diameter.
func (g *TestDataGenerator) GenerateScenario(name string) (string, error) {
	return g.WriteRows(name, []Row{
		NumRow(10, 0),
		NumRow(60, 0),
		NumRow(10, 5),
		{Diameter: "bad", Time: "5"},
	})
}

// GenerateBubbles writes perGroup log-normally distributed diameters for
// each time group, with bubbles growing over time. The seed makes the file
// reproducible.
func (g *TestDataGenerator) GenerateBubbles(name string, groups []float64, perGroup int, seed int64) (string, error) {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]Row, 0, len(groups)*perGroup)
	for _, t := range groups {
		for i := 0; i < perGroup; i++ {
			d := 60 * (1 + t/15) * rngLogNormal(rng, 0.6)
			rows = append(rows, NumRow(float64(int(d*10))/10, t))
		}
	}
	return g.WriteRows(name, rows)
}

func rngLogNormal(rng *rand.Rand, sigma float64) float64 {
	return math.Exp(rng.NormFloat64() * sigma)
}
