package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/icco/cinerank/handlers/templates"
	"github.com/icco/cinerank/lib/db"
	"github.com/icco/cinerank/lib/export"
	"github.com/icco/cinerank/lib/health"
	"github.com/icco/cinerank/lib/stats"
	"github.com/icco/cinerank/lib/types"
	"github.com/icco/cinerank/models"
	"github.com/tidwall/pretty"
	"gorm.io/gorm"
)

const (
	runsPageSize   = 50
	frequentTitles = 5
)

// NewRouter serves the runs stored in gormDB.
func NewRouter(gormDB *gorm.DB, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", HandleHome(gormDB))
	r.Get("/runs", HandleRuns(gormDB))
	r.Get("/runs/{id}.json", HandleRunJSON(gormDB))
	r.Get("/runs/{id}", HandleRun(gormDB))
	r.Get("/health", health.Check(gormDB, logger))
	return r
}

type errorData struct {
	Message string
}

func renderError(w http.ResponseWriter, message string, status int) {
	tmpl, err := templates.ParseTemplates("base.html", "error.html")
	if err != nil {
		slog.Error("Failed to parse error template", slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, errorData{Message: message}); err != nil {
		slog.Error("Failed to execute error template", slog.Any("error", err))
	}
}

func render(w http.ResponseWriter, data any, page string) {
	tmpl, err := templates.ParseTemplates("base.html", page)
	if err != nil {
		slog.Error("Failed to parse template", slog.String("page", page), slog.Any("error", err))
		renderError(w, "Something went wrong while loading the page.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("Failed to execute template", slog.String("page", page), slog.Any("error", err))
		renderError(w, "Something went wrong while displaying the page.", http.StatusInternalServerError)
	}
}

type runPage struct {
	Run  *models.Run
	Mode string
}

func newRunPage(run *models.Run) runPage {
	return runPage{
		Run:  run,
		Mode: export.ModeLabel(stats.Summary{Mode: run.Mode, UniqueMode: run.UniqueMode}),
	}
}

// HandleHome shows the most recent run.
func HandleHome(gormDB *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		run, err := db.LatestRun(req.Context(), gormDB)
		if err != nil {
			if errors.Is(err, db.ErrRunNotFound) {
				renderError(w, "No runs have been stored yet. Run `cinerank run` with the sqlite format first.", http.StatusNotFound)
				return
			}
			slog.Error("Failed to get latest run", slog.Any("error", err))
			renderError(w, "We couldn't load the latest run. Please try again later.", http.StatusInternalServerError)
			return
		}

		render(w, newRunPage(run), "run.html")
	}
}

// HandleRuns lists stored runs newest first.
func HandleRuns(gormDB *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		runs, err := db.ListRuns(req.Context(), gormDB, runsPageSize)
		if err != nil {
			slog.Error("Failed to list runs", slog.Any("error", err))
			renderError(w, "We couldn't load the list of runs.", http.StatusInternalServerError)
			return
		}

		s, err := db.Stats(req.Context(), gormDB, frequentTitles)
		if err != nil {
			slog.Error("Failed to get run stats", slog.Any("error", err))
			renderError(w, "We couldn't load the run statistics.", http.StatusInternalServerError)
			return
		}

		render(w, struct {
			Runs  []models.Run
			Stats types.RunStats
		}{Runs: runs, Stats: s}, "runs.html")
	}
}

// lookupRun validates the id path parameter and loads the run. It writes the
// error response itself and returns nil when there is nothing to show.
func lookupRun(gormDB *gorm.DB, w http.ResponseWriter, req *http.Request, fail func(http.ResponseWriter, string, int)) *models.Run {
	id := chi.URLParam(req, "id")
	if _, err := uuid.Parse(id); err != nil {
		fail(w, "Invalid run id.", http.StatusBadRequest)
		return nil
	}

	run, err := db.GetRun(req.Context(), gormDB, id)
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			fail(w, "We couldn't find that run.", http.StatusNotFound)
			return nil
		}
		slog.Error("Failed to get run", slog.String("id", id), slog.Any("error", err))
		fail(w, "We couldn't load that run.", http.StatusInternalServerError)
		return nil
	}
	return run
}

// HandleRun shows one run by its UUID.
func HandleRun(gormDB *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if run := lookupRun(gormDB, w, req, renderError); run != nil {
			render(w, newRunPage(run), "run.html")
		}
	}
}

type summaryJSON struct {
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Median float64  `json:"median"`
	Mode   *float64 `json:"mode"`
	StdDev float64  `json:"std_dev"`
}

type runJSON struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	Genres     string               `json:"genres"`
	DateFrom   string               `json:"date_from"`
	DateTo     string               `json:"date_to"`
	TopN       int                  `json:"top_n"`
	Descending bool                 `json:"descending"`
	Summary    *summaryJSON         `json:"summary"`
	Movies     []models.MovieRecord `json:"movies"`
}

func newRunJSON(run *models.Run) runJSON {
	out := runJSON{
		ID:         run.UUID,
		CreatedAt:  run.CreatedAt,
		Genres:     run.Genres,
		DateFrom:   run.DateFrom,
		DateTo:     run.DateTo,
		TopN:       run.TopN,
		Descending: run.Descending,
		Movies:     make([]models.MovieRecord, 0, len(run.Movies)),
	}
	for _, m := range run.Movies {
		out.Movies = append(out.Movies, m.Record())
	}
	if run.Count > 0 {
		out.Summary = &summaryJSON{Count: run.Count, Mean: run.Mean, Median: run.Median, StdDev: run.StdDev}
		if run.UniqueMode {
			mode := run.Mode
			out.Summary.Mode = &mode
		}
	}
	return out
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Failed to encode error response", slog.Any("error", err))
	}
}

// HandleRunJSON serves one run as JSON. ?pretty indents the body.
func HandleRunJSON(gormDB *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		run := lookupRun(gormDB, w, req, jsonError)
		if run == nil {
			return
		}

		body, err := json.Marshal(newRunJSON(run))
		if err != nil {
			slog.Error("Failed to encode run", slog.Any("error", err))
			jsonError(w, "failed to encode run", http.StatusInternalServerError)
			return
		}
		if req.URL.Query().Has("pretty") {
			body = pretty.Pretty(body)
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(body); err != nil {
			slog.Error("Failed to write run", slog.Any("error", err))
		}
	}
}
