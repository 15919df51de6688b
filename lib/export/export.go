// Package export writes ranked results to files.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/icco/cinerank/lib/lock"
	"github.com/icco/cinerank/lib/pipeline"
	"github.com/icco/cinerank/lib/rank"
	"github.com/icco/cinerank/lib/stats"
	"github.com/icco/cinerank/models"
)

// Format names one output kind.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatText   Format = "txt"
	FormatXLSX   Format = "xlsx"
	FormatCharts Format = "charts"
	FormatSQLite Format = "sqlite"
)

// AllFormats is the default set, in the order they are written. Charts come
// before the workbook so it can embed them.
var AllFormats = []Format{FormatJSON, FormatCSV, FormatText, FormatCharts, FormatXLSX, FormatSQLite}

const (
	JSONFile     = "resultados_peliculas.json"
	CSVFile      = "peliculas_preparadas.csv"
	TextFile     = "resultados_peliculas.txt"
	WorkbookFile = "peliculas_analisis.xlsx"
	SQLiteFile   = "cinerank.db"
)

// ParseFormats parses a comma separated list such as "json,csv".
func ParseFormats(s string) ([]Format, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return AllFormats, nil
	}

	want := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		switch f {
		case FormatJSON, FormatCSV, FormatText, FormatXLSX, FormatCharts, FormatSQLite:
			want[f] = true
		case "":
		default:
			return nil, fmt.Errorf("unknown export format %q", part)
		}
	}

	var out []Format
	for _, f := range AllFormats {
		if want[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

// Report is everything an export needs from a run.
type Report struct {
	RunID      string
	GenreIDs   []int
	DateFrom   string
	DateTo     string
	TopN       int
	Descending bool
	Records    models.RankedSet
	Summary    *stats.Summary
	CreatedAt  time.Time
}

// ReportFromResult builds a report from a pipeline run.
func ReportFromResult(res *pipeline.Result) Report {
	r := Report{
		RunID:      res.RunID.String(),
		GenreIDs:   res.GenreIDs(),
		TopN:       res.Options.TopN,
		Descending: res.Options.Descending,
		Records:    res.Ranked,
		Summary:    res.Summary,
		CreatedAt:  time.Now(),
	}
	if len(res.Options.Queries) > 0 {
		r.DateFrom = res.Options.Queries[0].DateFrom
		r.DateTo = res.Options.Queries[0].DateTo
	}
	return r
}

// ReportFromRecords builds a report for records that did not come from a
// pipeline run, such as a reloaded JSON export. The records are ranked best
// first with repeated IDs dropped, the same way a run ranks its results.
func ReportFromRecords(records []models.MovieRecord) (Report, error) {
	ranked, err := rank.MergeRank([][]models.MovieRecord{records}, max(len(records), 1), true)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		RunID:      uuid.NewString(),
		TopN:       len(ranked),
		Descending: true,
		Records:    ranked,
		CreatedAt:  time.Now(),
	}
	if len(ranked) > 0 {
		s, err := stats.Summarize(ranked.Scores())
		if err != nil {
			return Report{}, err
		}
		r.Summary = &s
	}
	return r, nil
}

// Run converts the report into the rows stored in the SQLite export.
func (r Report) Run() *models.Run {
	genres := make([]string, len(r.GenreIDs))
	for i, id := range r.GenreIDs {
		genres[i] = strconv.Itoa(id)
	}

	run := &models.Run{
		UUID:       r.RunID,
		Genres:     strings.Join(genres, ","),
		DateFrom:   r.DateFrom,
		DateTo:     r.DateTo,
		TopN:       r.TopN,
		Descending: r.Descending,
		Count:      len(r.Records),
	}
	if r.Summary != nil {
		run.Mean = r.Summary.Mean
		run.Median = r.Summary.Median
		run.Mode = r.Summary.Mode
		run.UniqueMode = r.Summary.UniqueMode
		run.StdDev = r.Summary.StdDev
	}
	for i, m := range r.Records {
		run.Movies = append(run.Movies, models.RankedMovie{
			Position:    i + 1,
			TMDbID:      m.ID,
			Title:       m.Title,
			ReleaseDate: m.ReleaseDate,
			Score:       m.Score,
			PosterPath:  m.PosterPath,
		})
	}
	return run
}

type Exporter struct {
	dir         string
	logger      *slog.Logger
	lock        *lock.FileLock
	lockTimeout time.Duration
}

func New(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		dir:         dir,
		logger:      logger,
		lock:        lock.NewFileLock(dir, logger),
		lockTimeout: 30 * time.Second,
	}
}

// Export writes the requested formats into the output directory and returns
// the paths written. The directory is locked for the duration.
func (e *Exporter) Export(ctx context.Context, r Report, formats []Format) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ok, err := e.lock.TryLock(ctx, "export", e.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to lock output directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("output directory %s is locked by another export", e.dir)
	}
	defer func() {
		if err := e.lock.Unlock(ctx, "export"); err != nil {
			e.logger.Error("Failed to release export lock", slog.Any("error", err))
		}
	}()

	var written, charts []string
	for _, f := range formats {
		var paths []string
		switch f {
		case FormatJSON:
			paths, err = e.writeFile(JSONFile, func(path string) error { return WriteJSONFile(path, r.Records) })
		case FormatCSV:
			paths, err = e.writeFile(CSVFile, func(path string) error { return WriteCSVFile(path, r.Records) })
		case FormatText:
			paths, err = e.writeFile(TextFile, func(path string) error { return WriteTextFile(path, r.Records) })
		case FormatCharts:
			charts, err = WriteCharts(e.dir, r.Records)
			paths = charts
		case FormatXLSX:
			paths, err = e.writeFile(WorkbookFile, func(path string) error { return WriteWorkbook(path, r.Records, r.Summary, charts) })
		case FormatSQLite:
			paths, err = e.writeFile(SQLiteFile, func(path string) error { return WriteSQLite(ctx, path, r, e.logger) })
		default:
			err = fmt.Errorf("unknown export format %q", f)
		}
		if err != nil {
			return written, fmt.Errorf("failed to export %s: %w", f, err)
		}
		for _, p := range paths {
			e.logger.Info("Exported file", slog.String("format", string(f)), slog.String("path", p))
		}
		written = append(written, paths...)
	}

	return written, nil
}

func (e *Exporter) writeFile(name string, write func(path string) error) ([]string, error) {
	path := filepath.Join(e.dir, name)
	if err := write(path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
