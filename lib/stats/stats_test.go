package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/icco/cinerank/lib/validation"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("Summarize(nil) error = %v, want ErrInvalid", err)
	}
	var verr *validation.ValidationError
	if !errors.As(err, &verr) || verr.Field != "scores" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSummarizeSingle(t *testing.T) {
	got, err := Summarize([]float64{7.0})
	if err != nil {
		t.Fatal(err)
	}
	want := Summary{Count: 1, Mean: 7, Median: 7, Mode: 7, UniqueMode: true, StdDev: 0}
	if got != want {
		t.Errorf("Summarize([7]) = %+v, want %+v", got, want)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		in         []float64
		mean       float64
		median     float64
		mode       float64
		uniqueMode bool
		stddev     float64
	}{
		{"two modes", []float64{5, 5, 8, 8}, 6.5, 6.5, 0, false, 1.5},
		{"unique mode", []float64{8.1, 7.9, 8.1, 6.0}, 7.525, 8.0, 8.1, true, math.Sqrt(0.781875)},
		{"all distinct", []float64{1, 2, 3}, 2, 2, 0, false, math.Sqrt(2.0 / 3.0)},
		{"odd count unsorted", []float64{9, 1, 5}, 5, 5, 0, false, math.Sqrt(32.0 / 3.0)},
		{"late winner", []float64{5, 8, 8}, 7, 8, 8, true, math.Sqrt(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got.Count != len(tt.in) {
				t.Errorf("Count = %d", got.Count)
			}
			if !almostEqual(got.Mean, tt.mean) {
				t.Errorf("Mean = %v, want %v", got.Mean, tt.mean)
			}
			if !almostEqual(got.Median, tt.median) {
				t.Errorf("Median = %v, want %v", got.Median, tt.median)
			}
			if got.UniqueMode != tt.uniqueMode {
				t.Errorf("UniqueMode = %v, want %v", got.UniqueMode, tt.uniqueMode)
			}
			if tt.uniqueMode && !almostEqual(got.Mode, tt.mode) {
				t.Errorf("Mode = %v, want %v", got.Mode, tt.mode)
			}
			if math.Abs(got.StdDev-tt.stddev) > 1e-4 {
				t.Errorf("StdDev = %v, want %v", got.StdDev, tt.stddev)
			}
		})
	}
}

func TestMedianDoesNotReorder(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input reordered: %v", in)
	}
}

func TestModeExactValues(t *testing.T) {
	// computed at run time; the constant expression 0.1+0.2 is exactly 0.3
	a, b := 0.1, 0.2
	sum := a + b
	next := math.Nextafter(7.1, 8)

	tests := []struct {
		name   string
		scores []float64
		mode   float64
		unique bool
	}{
		{"distinct sum", []float64{sum, 0.3}, 0, false},
		{"distinct sum with extra", []float64{sum, 0.3, 5}, 0, false},
		{"last bit tie", []float64{7.1, 7.1, next, next}, 0, false},
		{"last bit majority", []float64{7.1, next, next}, next, true},
		{"plain", []float64{7.25, 7.25, 6}, 7.25, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, unique := Mode(tt.scores)
			if unique != tt.unique || (unique && mode != tt.mode) {
				t.Errorf("Mode(%v) = %v, %v, want %v, %v", tt.scores, mode, unique, tt.mode, tt.unique)
			}
		})
	}
}

func TestRounded(t *testing.T) {
	s := Summary{Count: 3, Mean: 7.3333333, Median: 7.125, Mode: 8, UniqueMode: true, StdDev: 0.4714045}
	got := s.Rounded(2)
	want := Summary{Count: 3, Mean: 7.33, Median: 7.13, Mode: 8, UniqueMode: true, StdDev: 0.47}
	if got != want {
		t.Errorf("Rounded(2) = %+v, want %+v", got, want)
	}
	if s.Mean != 7.3333333 {
		t.Error("Rounded modified the receiver")
	}
}
