package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"log/slog"

	"github.com/icco/cinerank/lib/validation"
	"github.com/icco/cinerank/models"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "es"
	DefaultMinVotes = 100
)

// SortOrder selects the direction TMDb sorts vote_average in.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// OrderFor maps a ranking direction onto the API sort order.
func OrderFor(descending bool) SortOrder {
	if descending {
		return SortDesc
	}
	return SortAsc
}

// Config holds everything the client needs to talk to TMDb.
type Config struct {
	APIKey     string
	BaseURL    string
	Language   string
	MinVotes   int
	HTTPClient *http.Client
}

// Client calls the TMDb v3 API. It is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	minVotes   int
	httpClient *http.Client
	logger     *slog.Logger
}

// Movie is one entry of a discover response as TMDb sends it.
type Movie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date"`
	PosterPath  string   `json:"poster_path"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
}

type DiscoverResult struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

type GenreListResult struct {
	Genres []models.Genre `json:"genres"`
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		language:   cfg.Language,
		minVotes:   cfg.MinVotes,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.language == "" {
		c.language = DefaultLanguage
	}
	if c.minVotes <= 0 {
		c.minVotes = DefaultMinVotes
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// DiscoverMovies issues exactly one request for the first page of titles in
// a genre released within the query's date range. Results come back in the
// order TMDb returns them.
func (c *Client) DiscoverMovies(ctx context.Context, q models.GenreQuery, order SortOrder) ([]Movie, error) {
	if err := validation.ValidateQuery(q); err != nil {
		return nil, err
	}
	if order != SortAsc {
		order = SortDesc
	}

	params := url.Values{}
	params.Set("sort_by", "vote_average."+string(order))
	params.Set("vote_count.gte", strconv.Itoa(c.minVotes))
	params.Set("with_genres", strconv.Itoa(q.GenreID))
	params.Set("primary_release_date.gte", q.DateFrom)
	params.Set("primary_release_date.lte", q.DateTo)
	params.Set("page", "1")

	body, err := c.get(ctx, "/discover/movie", params)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateDiscoverResponse(body); err != nil {
		return nil, &ParseError{Path: "/discover/movie", Err: err}
	}

	var result DiscoverResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Path: "/discover/movie", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Debug("Discovered movies",
		slog.Int("genre_id", q.GenreID),
		slog.String("from", q.DateFrom),
		slog.String("to", q.DateTo),
		slog.String("order", string(order)),
		slog.Int("count", len(result.Results)))

	return result.Results, nil
}

// Genres returns the movie genre list in the client's language.
func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	body, err := c.get(ctx, "/genre/movie/list", url.Values{})
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateGenreListResponse(body); err != nil {
		return nil, &ParseError{Path: "/genre/movie/list", Err: err}
	}

	var result GenreListResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Path: "/genre/movie/list", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return result.Genres, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, api key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &NetworkError{Path: path, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", statusMessage(body, resp.Status))}
	}

	return body, nil
}

// statusMessage pulls TMDb's status_message out of an error body when there
// is one.
func statusMessage(body []byte, fallback string) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	return fallback
}

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// PosterURL turns a poster_path from a discover response into an image URL,
// or "" when the movie has no poster.
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return posterBaseURL + posterPath
}
