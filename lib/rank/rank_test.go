package rank

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
)

func rec(id int, score float64) models.MovieRecord {
	return models.MovieRecord{ID: id, Title: "t", ReleaseDate: "1995-01-01", Score: score}
}

func ids(set models.RankedSet) []int {
	out := make([]int, len(set))
	for i, m := range set {
		out[i] = m.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeRank(t *testing.T) {
	action := []models.MovieRecord{rec(1, 8.5), rec(2, 8.1), rec(3, 7.0)}
	adventure := []models.MovieRecord{rec(4, 8.3), rec(2, 8.1), rec(5, 6.2)}

	tests := []struct {
		name       string
		in         [][]models.MovieRecord
		topN       int
		descending bool
		want       []int
	}{
		{"best three", [][]models.MovieRecord{action, adventure}, 3, true, []int{1, 4, 2}},
		{"worst three", [][]models.MovieRecord{action, adventure}, 3, false, []int{5, 3, 2}},
		{"fewer than top", [][]models.MovieRecord{action, adventure}, 10, true, []int{1, 4, 2, 3, 5}},
		{"no input", nil, 5, true, []int{}},
		{"empty lists", [][]models.MovieRecord{{}, {}}, 5, true, []int{}},
		{"ties keep input order desc", [][]models.MovieRecord{{rec(9, 7), rec(8, 7)}, {rec(7, 7)}}, 3, true, []int{9, 8, 7}},
		{"ties keep input order asc", [][]models.MovieRecord{{rec(9, 7), rec(8, 7)}, {rec(7, 7)}}, 3, false, []int{9, 8, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeRank(tt.in, tt.topN, tt.descending)
			if err != nil {
				t.Fatalf("MergeRank() error = %v", err)
			}
			if !equalInts(ids(got), tt.want) {
				t.Errorf("MergeRank() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestMergeRankKeepsFirstDuplicate(t *testing.T) {
	first := models.MovieRecord{ID: 1, Title: "first", ReleaseDate: "1999-01-01", Score: 7}
	second := models.MovieRecord{ID: 1, Title: "second", ReleaseDate: "1999-01-01", Score: 9}

	got, err := MergeRank([][]models.MovieRecord{{first}, {second}}, 5, true)
	if err != nil {
		t.Fatalf("MergeRank() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "first" {
		t.Errorf("MergeRank() = %+v, want only the first occurrence", got)
	}
}

func TestMergeRankInvalidTopN(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := MergeRank([][]models.MovieRecord{{rec(1, 5)}}, n, true)
		var verr *validation.ValidationError
		if !errors.As(err, &verr) || verr.Field != "top_n" {
			t.Errorf("MergeRank(topN=%d) error = %v, want top_n ValidationError", n, err)
		}
	}
}

func TestMergeRankDoesNotMutateInput(t *testing.T) {
	in := []models.MovieRecord{rec(1, 5), rec(2, 9), rec(3, 7)}
	if _, err := MergeRank([][]models.MovieRecord{in}, 3, true); err != nil {
		t.Fatal(err)
	}
	if !equalInts(ids(in), []int{1, 2, 3}) {
		t.Errorf("input reordered: %v", ids(in))
	}
}

// TestMergeRankProperties checks the ranking invariants over random input.
func TestMergeRankProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		var in [][]models.MovieRecord
		inputIDs := map[int]bool{}
		for g := 0; g < 1+r.Intn(4); g++ {
			var list []models.MovieRecord
			for n := 0; n < r.Intn(25); n++ {
				id := 1 + r.Intn(30)
				// duplicates share a score, as TMDb returns the same movie
				list = append(list, rec(id, float64(id%11)))
				inputIDs[id] = true
			}
			in = append(in, list)
		}
		topN := 1 + r.Intn(15)
		descending := r.Intn(2) == 0

		got, err := MergeRank(in, topN, descending)
		if err != nil {
			t.Fatal(err)
		}

		if want := min(topN, len(inputIDs)); len(got) != want {
			t.Fatalf("len = %d, want %d", len(got), want)
		}

		seen := map[int]bool{}
		for j, m := range got {
			if seen[m.ID] {
				t.Fatalf("duplicate id %d in %v", m.ID, ids(got))
			}
			seen[m.ID] = true
			if !inputIDs[m.ID] {
				t.Fatalf("id %d not in input", m.ID)
			}
			if j == 0 {
				continue
			}
			prev := got[j-1].Score
			if descending && prev < m.Score {
				t.Fatalf("not non-increasing at %d: %v", j, got)
			}
			if !descending && prev > m.Score {
				t.Fatalf("not non-decreasing at %d: %v", j, got)
			}
		}
	}
}
