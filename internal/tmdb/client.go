// Package tmdb is a client for The Movie Database v3 API built on
// golang-tmdb.
//
// A Client without an API key serves a small built-in catalogue so the
// command-line tools work offline.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tmdbapi "github.com/cyruzin/golang-tmdb"
)

// DefaultBaseURL is the public v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ErrNotFound is returned by offline lookups for unknown ids.
var ErrNotFound = errors.New("tmdb: movie not found")

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	StatusText string
}

func (e *Error) Error() string {
	return "TMDB API Error: " + e.StatusText
}

// Config configures a Client.
type Config struct {
	APIKey string
	// BaseURL redirects requests away from DefaultBaseURL, e.g. to a proxy.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the TMDB API.
type Client struct {
	apiKey  string
	baseURL *url.URL // nil when requests go to DefaultBaseURL
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		apiKey: cfg.APIKey,
		http:   cfg.HTTPClient,
		logger: cfg.Logger,
	}
	if base := strings.TrimSuffix(cfg.BaseURL, "/"); base != "" && base != DefaultBaseURL {
		if u, err := url.Parse(base); err == nil {
			c.baseURL = u
		} else {
			c.logger.Warn("ignoring invalid tmdb base url", slog.String("error", err.Error()))
		}
	}
	return c
}

// Offline reports whether the client serves the built-in catalogue.
func (c *Client) Offline() bool {
	return c.apiKey == ""
}

// SearchMovies searches titles matching query.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*Page, error) {
	if c.Offline() {
		return searchMock(query), nil
	}
	return c.page(ctx, "search", func(api *tmdbapi.Client) (any, error) {
		return api.GetSearchMovies(query, pageOptions(nil, page))
	})
}

// Trending lists titles trending over window.
func (c *Client) Trending(ctx context.Context, window TimeWindow, page int) (*Page, error) {
	if window != Day {
		window = Week
	}
	if c.Offline() {
		return mockPage(), nil
	}
	return c.page(ctx, "trending", func(api *tmdbapi.Client) (any, error) {
		return api.GetTrending("movie", string(window), pageOptions(nil, page))
	})
}

func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	if c.Offline() {
		return mockPage(), nil
	}
	return c.page(ctx, "popular", func(api *tmdbapi.Client) (any, error) {
		return api.GetMoviePopular(pageOptions(nil, page))
	})
}

func (c *Client) TopRated(ctx context.Context, page int) (*Page, error) {
	if c.Offline() {
		return mockPage(), nil
	}
	return c.page(ctx, "top_rated", func(api *tmdbapi.Client) (any, error) {
		return api.GetMovieTopRated(pageOptions(nil, page))
	})
}

func (c *Client) NowPlaying(ctx context.Context, page int) (*Page, error) {
	if c.Offline() {
		return mockPage(), nil
	}
	return c.page(ctx, "now_playing", func(api *tmdbapi.Client) (any, error) {
		return api.GetMovieNowPlaying(pageOptions(nil, page))
	})
}

func (c *Client) Upcoming(ctx context.Context, page int) (*Page, error) {
	if c.Offline() {
		return mockPage(), nil
	}
	return c.page(ctx, "upcoming", func(api *tmdbapi.Client) (any, error) {
		return api.GetMovieUpcoming(pageOptions(nil, page))
	})
}

// Discover lists titles matching filters, such as with_genres or
// primary_release_year.
func (c *Client) Discover(ctx context.Context, filters map[string]string, page int) (*Page, error) {
	if c.Offline() {
		return mockPage(), nil
	}
	return c.page(ctx, "discover", func(api *tmdbapi.Client) (any, error) {
		return api.GetDiscoverMovie(pageOptions(filters, page))
	})
}

// MovieDetails fetches a movie with its credits, videos, similar titles and
// recommendations.
func (c *Client) MovieDetails(ctx context.Context, id int) (*Details, error) {
	if c.Offline() {
		return mockDetails(id)
	}
	var out Details
	err := c.call(ctx, "details", &out, func(api *tmdbapi.Client) (any, error) {
		return api.GetMovieDetails(id, map[string]string{
			"append_to_response": "credits,videos,similar,recommendations",
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MovieCredits(ctx context.Context, id int) (*Credits, error) {
	if c.Offline() {
		if _, err := mockDetails(id); err != nil {
			return nil, err
		}
		return &Credits{ID: id}, nil
	}
	var out Credits
	err := c.call(ctx, "credits", &out, func(api *tmdbapi.Client) (any, error) {
		return api.GetMovieCredits(id, nil)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres lists the movie genres.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	if c.Offline() {
		return nil, nil
	}
	var out struct {
		Genres []Genre `json:"genres"`
	}
	err := c.call(ctx, "genres", &out, func(api *tmdbapi.Client) (any, error) {
		return api.GetGenreMovieList(nil)
	})
	if err != nil {
		return nil, err
	}
	return out.Genres, nil
}

func pageOptions(filters map[string]string, page int) map[string]string {
	if page < 1 {
		page = 1
	}
	opts := make(map[string]string, len(filters)+1)
	for k, v := range filters {
		opts[k] = v
	}
	opts["page"] = strconv.Itoa(page)
	return opts
}

func (c *Client) page(ctx context.Context, op string, fn func(*tmdbapi.Client) (any, error)) (*Page, error) {
	var out Page
	if err := c.call(ctx, op, &out, fn); err != nil {
		return nil, err
	}
	return &out, nil
}

// call runs fn against a library client bound to ctx and copies the
// response into out. Library responses keep the API's JSON field names,
// so they are re-decoded into this package's types.
func (c *Client) call(ctx context.Context, op string, out any, fn func(*tmdbapi.Client) (any, error)) error {
	api, rt, err := c.bind(ctx)
	if err != nil {
		return err
	}

	res, err := fn(api)
	if err != nil {
		if rt.status != 0 {
			c.logger.Warn("tmdb request rejected", slog.String("op", op), slog.Int("status", rt.status))
			return &Error{StatusCode: rt.status, StatusText: http.StatusText(rt.status)}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("tmdb %s: %w", op, ctxErr)
		}
		c.logger.Warn("tmdb request failed", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Errorf("tmdb %s: %w", op, err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode tmdb %s: %w", op, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", op, err)
	}
	return nil
}

// bind returns a library client whose requests carry ctx. The library has
// no context parameter, so each call gets its own transport.
func (c *Client) bind(ctx context.Context) (*tmdbapi.Client, *boundTransport, error) {
	api, err := tmdbapi.Init(c.apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("init tmdb client: %w", err)
	}

	next := c.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rt := &boundTransport{ctx: ctx, base: c.baseURL, next: next}
	api.SetClientConfig(http.Client{
		Transport: rt,
		Timeout:   c.http.Timeout,
	})
	return api, rt, nil
}

// boundTransport attaches a context to outgoing requests, optionally
// rewrites them onto a different base URL, and records a rejected status.
type boundTransport struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper

	status int
}

func (t *boundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(t.ctx)
	if t.base != nil {
		out.URL.Scheme = t.base.Scheme
		out.URL.Host = t.base.Host
		out.URL.Path = t.base.Path + strings.TrimPrefix(out.URL.Path, "/3")
		out.URL.RawPath = ""
		out.Host = t.base.Host
	}
	out.Header.Set("Accept", "application/json")

	resp, err := t.next.RoundTrip(out)
	if err == nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		t.status = resp.StatusCode
	}
	return resp, err
}
