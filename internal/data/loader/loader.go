package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/penwyp/go-bubble-hist/internal/util"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrColumnNotFound is returned when a requested column is absent from the header.
	ErrColumnNotFound = errors.New("column not found")
	// ErrEmptyInput is returned for a file without a header row.
	ErrEmptyInput = errors.New("input file is empty")
)

// Columns holds the two numeric columns after cleaning.
//
// Each column drops its own non-numeric cells, so Diameters and Times are
// not guaranteed to stay row-aligned once their missing cells differ.
// Binning still pairs them by index position.
type Columns struct {
	Diameters []float64
	Times     []float64

	RowCount         int
	DroppedDiameters int
	DroppedTimes     int
}

// Aligned reports whether both columns kept the same rows.
func (c *Columns) Aligned() bool {
	return c.DroppedDiameters == 0 && c.DroppedTimes == 0
}

// Load reads a header-led CSV file and extracts the two named columns.
func Load(path, diameterColumn, timeColumn string) (*Columns, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	defer file.Close()

	util.LogDebugf("Start reading input file: %s", path)

	cols, err := Read(file, diameterColumn, timeColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cols, nil
}

// Read parses CSV data from r and extracts the two named columns.
func Read(r io.Reader, diameterColumn, timeColumn string) (*Columns, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	diameterIdx, err := columnIndex(header, diameterColumn)
	if err != nil {
		return nil, err
	}
	timeIdx, err := columnIndex(header, timeColumn)
	if err != nil {
		return nil, err
	}

	cols := &Columns{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", cols.RowCount+1, err)
		}
		cols.RowCount++

		if v, ok := cell(record, diameterIdx); ok {
			cols.Diameters = append(cols.Diameters, v)
		} else {
			cols.DroppedDiameters++
		}

		if v, ok := cell(record, timeIdx); ok {
			cols.Times = append(cols.Times, v)
		} else {
			cols.DroppedTimes++
		}
	}

	util.LogDebug("Input columns cleaned",
		util.F("rows", cols.RowCount),
		util.F("diameters", len(cols.Diameters)),
		util.F("times", len(cols.Times)),
		util.F("dropped_diameters", cols.DroppedDiameters),
		util.F("dropped_times", cols.DroppedTimes))

	return cols, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q (have %s)", ErrColumnNotFound, name, strings.Join(header, ", "))
}

// cell coerces one field to a number. Absent, empty, non-numeric and NaN
// cells are reported as missing.
func cell(record []string, idx int) (float64, bool) {
	if idx >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
