// Package tmdb is a small client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	"go.uber.org/zap"
)

// DefaultBaseURL is the v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3/"

// DefaultTries bounds attempts per request (0 and 1 both mean a single try).
const DefaultTries = 4

var (
	// ErrNotFound is returned for unknown ids.
	ErrNotFound = errors.New("tmdb: not found")

	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("tmdb: api key rejected")

	// ErrBadResponse is returned when a successful response does not hold
	// the requested record.
	ErrBadResponse = errors.New("tmdb: bad response")
)

// Doer performs HTTP requests; *pester.Client and *http.Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MakePesterClient returns a retrying HTTP client with exponential backoff.
func MakePesterClient(tries int, log *zap.Logger) *pester.Client {
	if log == nil {
		log = zap.NewNop()
	}
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = tries
	client.LogHook = func(e pester.ErrEntry) {
		log.Warn("retrying after failed attempt",
			zap.String("url", e.URL),
			zap.Int("attempt", e.Attempt),
			zap.Error(e.Err),
		)
	}
	return client
}

// Client talks to TMDb with a single API key.
type Client struct {
	base   *url.URL
	apiKey string
	http   Doer
	log    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		if u, err := url.Parse(raw); err == nil {
			c.base = u
		}
	}
}

// WithHTTPClient replaces the retrying client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithLogger sets the client's logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client authenticating with apiKey.
func New(apiKey string, opts ...Option) *Client {
	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{base: base, apiKey: apiKey, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = MakePesterClient(DefaultTries, c.log)
	}
	return c
}

// Show is the subset of a TV show record the app reads.
type Show struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	Overview         string  `json:"overview"`
	FirstAirDate     string  `json:"first_air_date"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Homepage         string  `json:"homepage"`
}

// ShowJSON fetches the raw JSON document for a TV show.
func (c *Client) ShowJSON(ctx context.Context, showID int64) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("tv/%d", showID))
}

// Show fetches and decodes a TV show. The raw document is returned alongside
// so callers can cache it unmodified.
func (c *Client) Show(ctx context.Context, showID int64) (*Show, []byte, error) {
	raw, err := c.ShowJSON(ctx, showID)
	if err != nil {
		return nil, nil, err
	}
	var s Show
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil, errors.Wrapf(ErrBadResponse, "decode show %d: %v", showID, err)
	}
	if s.ID != showID {
		return nil, nil, errors.Wrapf(ErrBadResponse, "asked for show %d, got %d", showID, s.ID)
	}
	return &s, raw, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := c.base.ResolveReference(&url.URL{Path: path})
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "tmdb: %s", path)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("tmdb request", zap.String("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "tmdb: GET %s", path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrapf(ErrNotFound, "%s", path)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("tmdb: GET %s: %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "tmdb: read %s", path)
	}
	return body, nil
}
