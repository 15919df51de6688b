// Package stats computes descriptive statistics over ranked scores.
package stats

import (
	"slices"

	"github.com/icco/cinerank/lib/validation"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sequence of scores. Mode is only meaningful when
// UniqueMode is true; otherwise the sequence has no unique mode.
type Summary struct {
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Mode       float64 `json:"mode"`
	UniqueMode bool    `json:"unique_mode"`
	StdDev     float64 `json:"stddev"`
}

// Summarize computes mean, median, mode and population standard deviation.
func Summarize(scores []float64) (Summary, error) {
	if len(scores) == 0 {
		return Summary{}, validation.Invalid("scores", "[]", "at least one score is required")
	}

	mean, std := stat.PopMeanStdDev(scores, nil)
	mode, unique := Mode(scores)

	return Summary{
		Count:      len(scores),
		Mean:       mean,
		Median:     Median(scores),
		Mode:       mode,
		UniqueMode: unique,
		StdDev:     std,
	}, nil
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. It does not modify scores.
func Median(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mode returns the most frequent value and true, or false when two or more
// values share the highest frequency. Values are compared exactly, so
// scores that differ only in the last bit count separately.
func Mode(scores []float64) (float64, bool) {
	counts := make(map[float64]int, len(scores))

	best, ties := 0, 0
	var mode float64
	for _, s := range scores {
		counts[s]++

		switch n := counts[s]; {
		case n > best:
			best, ties, mode = n, 1, s
		case n == best:
			ties++
		}
	}

	if ties != 1 {
		return 0, false
	}
	return mode, true
}

// Rounded returns a copy with every metric rounded to places decimals, half
// away from zero.
func (s Summary) Rounded(places int32) Summary {
	round := func(v float64) float64 {
		return decimal.NewFromFloat(v).Round(places).InexactFloat64()
	}
	s.Mean = round(s.Mean)
	s.Median = round(s.Median)
	s.Mode = round(s.Mode)
	s.StdDev = round(s.StdDev)
	return s
}
