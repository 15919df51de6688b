// Package rank merges per-genre result lists into a single ranked set.
package rank

import (
	"cmp"
	"slices"

	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
)

// MergeRank concatenates the per-genre lists, drops repeated IDs, sorts by
// score and keeps the first topN records.
//
// A movie matching several requested genres shows up once per genre. The
// first occurrence in input order is kept and later ones are dropped; the
// copies are expected to be identical, so which one survives does not
// matter beyond being deterministic.
//
// Descending puts the best scores first, ascending the worst. The sort is
// stable: records with equal scores keep their relative input order, which
// is the order the displayed rank follows.
func MergeRank(genreResults [][]models.MovieRecord, topN int, descending bool) (models.RankedSet, error) {
	if err := validation.ValidateTopN(topN); err != nil {
		return nil, err
	}

	var total int
	for _, list := range genreResults {
		total += len(list)
	}

	seen := make(map[int]struct{}, total)
	pool := make([]models.MovieRecord, 0, total)
	for _, list := range genreResults {
		for _, m := range list {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			pool = append(pool, m)
		}
	}

	slices.SortStableFunc(pool, func(a, b models.MovieRecord) int {
		if descending {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Score, b.Score)
	})

	if len(pool) > topN {
		pool = pool[:topN]
	}
	return models.RankedSet(pool), nil
}
