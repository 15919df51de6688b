// Package pipeline wires fetching, validation, ranking and statistics into a
// single sequential run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/icco/cinerank/lib/rank"
	"github.com/icco/cinerank/lib/stats"
	"github.com/icco/cinerank/lib/tmdb"
	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
)

// Fetcher is the part of the TMDb client the pipeline needs.
type Fetcher interface {
	DiscoverMovies(ctx context.Context, q models.GenreQuery, order tmdb.SortOrder) ([]tmdb.Movie, error)
}

type Options struct {
	Queries    []models.GenreQuery
	TopN       int
	Descending bool
	// AllowPartial keeps going when a genre fails instead of aborting.
	AllowPartial bool
}

// Failure records a genre whose fetch failed in a partial run.
type Failure struct {
	Query models.GenreQuery
	Err   error
}

// Discard records a raw result rejected by validation.
type Discard struct {
	GenreID int
	MovieID int
	Err     error
}

type Result struct {
	RunID    uuid.UUID
	Options  Options
	Ranked   models.RankedSet
	Summary  *stats.Summary
	Failures []Failure
	Discards []Discard
}

// Run fetches every query in order, one call each, and ranks the merged
// results. Queries and top-N are validated before any request is made.
func Run(ctx context.Context, f Fetcher, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Queries) == 0 {
		return nil, validation.Invalid("genres", "[]", "at least one genre is required")
	}
	for _, q := range opts.Queries {
		if err := validation.ValidateQuery(q); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateTopN(opts.TopN); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.New(), Options: opts}
	logger = logger.With(slog.String("run_id", res.RunID.String()))
	logger.Info("Starting run",
		slog.Int("genres", len(opts.Queries)),
		slog.Int("top_n", opts.TopN),
		slog.Bool("descending", opts.Descending))

	order := tmdb.OrderFor(opts.Descending)
	perGenre := make([][]models.MovieRecord, 0, len(opts.Queries))
	for _, q := range opts.Queries {
		raw, err := f.DiscoverMovies(ctx, q, order)
		if err != nil {
			if !opts.AllowPartial || ctx.Err() != nil {
				return nil, fmt.Errorf("failed to fetch genre %d: %w", q.GenreID, err)
			}
			logger.Warn("Skipping genre after fetch failure",
				slog.Int("genre_id", q.GenreID),
				slog.Any("error", err))
			res.Failures = append(res.Failures, Failure{Query: q, Err: err})
			continue
		}

		records := make([]models.MovieRecord, 0, len(raw))
		for _, m := range raw {
			rec, err := ToRecord(m)
			if err != nil {
				logger.Warn("Discarding invalid movie",
					slog.Int("genre_id", q.GenreID),
					slog.Int("movie_id", m.ID),
					slog.Any("error", err))
				res.Discards = append(res.Discards, Discard{GenreID: q.GenreID, MovieID: m.ID, Err: err})
				continue
			}
			records = append(records, rec)
		}
		perGenre = append(perGenre, records)
	}

	if len(res.Failures) == len(opts.Queries) {
		errs := make([]error, len(res.Failures))
		for i, fl := range res.Failures {
			errs[i] = fl.Err
		}
		return nil, fmt.Errorf("failed to fetch every genre: %w", errors.Join(errs...))
	}

	ranked, err := rank.MergeRank(perGenre, opts.TopN, opts.Descending)
	if err != nil {
		return nil, err
	}
	res.Ranked = ranked

	if len(ranked) > 0 {
		summary, err := stats.Summarize(ranked.Scores())
		if err != nil {
			return nil, fmt.Errorf("failed to summarize scores: %w", err)
		}
		res.Summary = &summary
	}

	logger.Info("Finished run",
		slog.Int("ranked", len(res.Ranked)),
		slog.Int("failed_genres", len(res.Failures)),
		slog.Int("discarded", len(res.Discards)))

	return res, nil
}

// ToRecord validates a raw TMDb movie and converts it to a MovieRecord.
// Surrounding whitespace in the title is trimmed; nothing else is coerced.
func ToRecord(m tmdb.Movie) (models.MovieRecord, error) {
	if m.VoteAverage == nil {
		return models.MovieRecord{}, validation.Invalid("vote_average", "null", "missing score")
	}
	rec := models.MovieRecord{
		ID:          m.ID,
		Title:       strings.TrimSpace(m.Title),
		ReleaseDate: strings.TrimSpace(m.ReleaseDate),
		Score:       *m.VoteAverage,
		PosterPath:  strings.TrimSpace(m.PosterPath),
	}
	if err := validation.ValidateRecord(rec); err != nil {
		return models.MovieRecord{}, err
	}
	return rec, nil
}

// GenreIDs returns the genre ids of the run's queries in order.
func (r *Result) GenreIDs() []int {
	out := make([]int, len(r.Options.Queries))
	for i, q := range r.Options.Queries {
		out[i] = q.GenreID
	}
	return out
}

// Queries builds one query per genre over the same date range.
func Queries(genreIDs []int, from, to string) []models.GenreQuery {
	qs := make([]models.GenreQuery, len(genreIDs))
	for i, id := range genreIDs {
		qs[i] = models.GenreQuery{GenreID: id, DateFrom: from, DateTo: to}
	}
	return qs
}
