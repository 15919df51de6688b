package tmdb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
)

const discoverBody = `{
	"page": 1,
	"results": [
		{"id": 278, "title": "Cadena perpetua", "release_date": "1994-09-23", "vote_average": 8.7, "vote_count": 27000},
		{"id": 680, "title": "Pulp Fiction", "release_date": "1994-09-10", "vote_average": 8.5, "vote_count": 28000}
	]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, testLogger())
}

var query = models.GenreQuery{GenreID: 28, DateFrom: "1990-01-01", DateTo: "2000-12-31"}

func TestDiscoverMoviesQuery(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/discover/movie" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"api_key":                  "secret",
			"language":                 "es",
			"sort_by":                  "vote_average.asc",
			"vote_count.gte":           "100",
			"with_genres":              "28",
			"primary_release_date.gte": "1990-01-01",
			"primary_release_date.lte": "2000-12-31",
			"page":                     "1",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("param %s = %q, want %q", k, got, v)
			}
		}
		_, _ = io.WriteString(w, discoverBody)
	})

	movies, err := c.DiscoverMovies(context.Background(), query, SortAsc)
	if err != nil {
		t.Fatalf("DiscoverMovies() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(movies) != 2 {
		t.Fatalf("len = %d, want 2", len(movies))
	}
	// order from the server is preserved
	if movies[0].ID != 278 || movies[1].ID != 680 {
		t.Errorf("unexpected order: %+v", movies)
	}
	if movies[0].VoteAverage == nil || *movies[0].VoteAverage != 8.7 {
		t.Errorf("vote_average not parsed: %+v", movies[0])
	}
}

func TestDiscoverMoviesDefaultsToDescending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort_by"); got != "vote_average.desc" {
			t.Errorf("sort_by = %q", got)
		}
		_, _ = io.WriteString(w, `{"results":[]}`)
	})

	if _, err := c.DiscoverMovies(context.Background(), query, ""); err != nil {
		t.Fatalf("DiscoverMovies() error = %v", err)
	}
}

func TestDiscoverMoviesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"malformed json", http.StatusOK, `{"results": [`, ErrParse},
		{"missing results", http.StatusOK, `{"page": 1}`, ErrParse},
		{"unauthorized", http.StatusUnauthorized, `{"status_code":7,"status_message":"Invalid API key"}`, ErrNetwork},
		{"server error", http.StatusBadGateway, `oops`, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.DiscoverMovies(context.Background(), query, SortDesc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if strings.Contains(err.Error(), "secret") {
				t.Errorf("error leaks api key: %v", err)
			}
		})
	}
}

func TestDiscoverMoviesStatusMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status_code":7,"status_message":"Invalid API key"}`)
	})

	_, err := c.DiscoverMovies(context.Background(), query, SortDesc)
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if nerr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", nerr.StatusCode)
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %v", err)
	}
}

func TestDiscoverMoviesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "secret", BaseURL: base}, testLogger())
	_, err := c.DiscoverMovies(context.Background(), query, SortDesc)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestDiscoverMoviesRejectsInvalidQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid query")
	})

	bad := query
	bad.DateFrom = "1990/01/01"
	_, err := c.DiscoverMovies(context.Background(), bad, SortDesc)
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("error = %v, want validation.ErrInvalid", err)
	}
}

func TestGenres(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"genres":[{"id":28,"name":"Acción"},{"id":12,"name":"Aventura"}]}`)
	})

	genres, err := c.Genres(context.Background())
	if err != nil {
		t.Fatalf("Genres() error = %v", err)
	}
	want := []models.Genre{{ID: 28, Name: "Acción"}, {ID: 12, Name: "Aventura"}}
	if len(genres) != len(want) {
		t.Fatalf("genres = %+v", genres)
	}
	for i := range want {
		if genres[i] != want[i] {
			t.Errorf("genres[%d] = %+v, want %+v", i, genres[i], want[i])
		}
	}
}

func TestGenresMissingKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[]}`)
	})

	if _, err := c.Genres(context.Background()); !errors.Is(err, ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
}

func TestPosterURL(t *testing.T) {
	if got := PosterURL(""); got != "" {
		t.Errorf("PosterURL(\"\") = %q", got)
	}
	if got := PosterURL("/abc.jpg"); got != "https://image.tmdb.org/t/p/w500/abc.jpg" {
		t.Errorf("PosterURL() = %q", got)
	}
}
