package histogram

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/penwyp/go-bubble-hist/internal/util"
)

// ErrInvalidBinning is returned for a non-positive bin width or a negative domain.
var ErrInvalidBinning = errors.New("invalid binning")

// Group is the histogram of one time group.
type Group struct {
	Time   float64   `json:"time"`
	Counts []int     `json:"counts"`
	Errors []float64 `json:"errors"`
}

// Total returns the number of diameters counted in any bin.
func (g Group) Total() int {
	total := 0
	for _, c := range g.Counts {
		total += c
	}
	return total
}

// Result is the binned form of one input file.
type Result struct {
	Width   float64   `json:"width"`
	Edges   []float64 `json:"edges"`
	Centers []float64 `json:"centers"`
	Groups  []Group   `json:"groups"`
}

// Edges returns 0, w, 2w, ... up to and including the first multiple of w
// that is not below max+w, so max is always covered by a bin start.
func Edges(max, width float64) ([]float64, error) {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: bin width %g must be positive", ErrInvalidBinning, width)
	}
	if max < 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return nil, fmt.Errorf("%w: maximum diameter %g must be non-negative", ErrInvalidBinning, max)
	}

	n := int(math.Floor((max+width)/width + 1e-9))
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = float64(i) * width
	}
	return edges, nil
}

// Centers returns the midpoint of every bin.
func Centers(edges []float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	centers := make([]float64, len(edges)-1)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}
	return centers
}

// Count bins values into [edges[i], edges[i+1]). The last bin also takes
// values equal to the final edge; anything else outside the edges is ignored.
func Count(values, edges []float64) []int {
	if len(edges) < 2 {
		return nil
	}
	lo, hi := edges[0], edges[len(edges)-1]

	inRange := make([]float64, 0, len(values))
	onLastEdge := 0
	for _, v := range values {
		switch {
		case v >= lo && v < hi:
			inRange = append(inRange, v)
		case v == hi:
			onLastEdge++
		}
	}
	sort.Float64s(inRange)

	weighted := stat.Histogram(nil, edges, inRange, nil)

	counts := make([]int, len(weighted))
	for i, w := range weighted {
		counts[i] = int(w)
	}
	counts[len(counts)-1] += onLastEdge
	return counts
}

// PoissonErrors returns sqrt(count) for every bin.
func PoissonErrors(counts []int) []float64 {
	errs := make([]float64, len(counts))
	for i, c := range counts {
		errs[i] = math.Sqrt(float64(c))
	}
	return errs
}

// Select returns the diameters whose time label at the same index equals t.
// Indices beyond the shorter slice are ignored.
func Select(diameters, times []float64, t float64) []float64 {
	n := len(diameters)
	if len(times) < n {
		n = len(times)
	}
	var out []float64
	for i := 0; i < n; i++ {
		if times[i] == t {
			out = append(out, diameters[i])
		}
	}
	return out
}

// Build bins the diameters of each time group, in the given group order.
func Build(diameters, times []float64, max, width float64, groups []float64) (*Result, error) {
	edges, err := Edges(max, width)
	if err != nil {
		return nil, err
	}

	if len(diameters) != len(times) {
		util.LogWarn("Diameter and time columns differ in length after cleaning; pairing by position",
			util.F("diameters", len(diameters)), util.F("times", len(times)))
	}

	result := &Result{
		Width:   width,
		Edges:   edges,
		Centers: Centers(edges),
		Groups:  make([]Group, 0, len(groups)),
	}

	for _, t := range groups {
		counts := Count(Select(diameters, times, t), edges)
		g := Group{
			Time:   t,
			Counts: counts,
			Errors: PoissonErrors(counts),
		}
		util.LogDebugf("Time group %g: %d diameters binned", t, g.Total())
		result.Groups = append(result.Groups, g)
	}

	return result, nil
}
