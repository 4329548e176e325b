// Package trakt holds the Trakt OAuth2 setup and the few API calls the app
// makes on the user's behalf.
package trakt

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/km-arc/go-tivi/framework/prefs"
)

const (
	AuthURL  = "https://trakt.tv/oauth/authorize"
	TokenURL = "https://api.trakt.tv/oauth/token"

	// DefaultAPIURL is the API root.
	DefaultAPIURL = "https://api.trakt.tv"

	// APIVersion is sent as the trakt-api-version header.
	APIVersion = "2"
)

// Preference keys holding the stored token.
const (
	PrefAccessToken  = "trakt_access_token"
	PrefRefreshToken = "trakt_refresh_token"
	PrefTokenType    = "trakt_token_type"
	PrefTokenExpiry  = "trakt_token_expiry"
)

// ErrNotAuthorized is returned when no token is stored.
var ErrNotAuthorized = errors.New("trakt: not authorized")

// OAuthConfig builds the OAuth2 configuration from the app credentials.
func OAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// ── Token storage ────────────────────────────────────────────────────────────

// SaveToken stores tok in the preferences.
func SaveToken(s *prefs.Store, tok *oauth2.Token) error {
	e := s.Edit().
		PutString(PrefAccessToken, tok.AccessToken).
		PutString(PrefRefreshToken, tok.RefreshToken).
		PutString(PrefTokenType, tok.TokenType)
	if tok.Expiry.IsZero() {
		e.Remove(PrefTokenExpiry)
	} else {
		e.PutString(PrefTokenExpiry, tok.Expiry.UTC().Format(time.RFC3339))
	}
	return errors.Wrap(e.Commit(), "trakt: save token")
}

// LoadToken reads the stored token, if any.
func LoadToken(s *prefs.Store) (*oauth2.Token, bool) {
	access := s.String(PrefAccessToken, "")
	if access == "" {
		return nil, false
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: s.String(PrefRefreshToken, ""),
		TokenType:    s.String(PrefTokenType, "Bearer"),
	}
	if raw := s.String(PrefTokenExpiry, ""); raw != "" {
		if exp, err := time.Parse(time.RFC3339, raw); err == nil {
			tok.Expiry = exp
		}
	}
	return tok, true
}

// ClearToken forgets the stored token.
func ClearToken(s *prefs.Store) error {
	return s.Edit().
		Remove(PrefAccessToken).
		Remove(PrefRefreshToken).
		Remove(PrefTokenType).
		Remove(PrefTokenExpiry).
		Commit()
}

// ── Client ───────────────────────────────────────────────────────────────────

// Client calls the Trakt API with the stored user token.
type Client struct {
	oauth  *oauth2.Config
	store  *prefs.Store
	apiURL string
	log    *zap.Logger
}

// NewClient returns a client for the user whose token lives in store.
func NewClient(cfg *oauth2.Config, store *prefs.Store, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{oauth: cfg, store: store, apiURL: DefaultAPIURL, log: log}
}

// WithAPIURL returns a copy of c talking to another API root.
func (c *Client) WithAPIURL(u string) *Client {
	cp := *c
	cp.apiURL = strings.TrimSuffix(u, "/")
	return &cp
}

// LoginURL returns the page the user visits to authorize the app.
func (c *Client) LoginURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and stores it.
func (c *Client) Exchange(ctx context.Context, code string) error {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return errors.Wrap(err, "trakt: exchange code")
	}
	return SaveToken(c.store, tok)
}

// Authorized reports whether a token is stored.
func (c *Client) Authorized() bool {
	_, ok := LoadToken(c.store)
	return ok
}

// WatchedShows returns the raw JSON list of the user's watched shows.
func (c *Client) WatchedShows(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/sync/watched/shows")
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	tok, ok := LoadToken(c.store)
	if !ok {
		return nil, ErrNotAuthorized
	}

	src := c.oauth.TokenSource(ctx, tok)
	hc := oauth2.NewClient(ctx, src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "trakt: %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", APIVersion)
	req.Header.Set("trakt-api-key", c.oauth.ClientID)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "trakt: GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.Wrapf(ErrNotAuthorized, "GET %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("trakt: GET %s: %s", path, resp.Status)
	}

	// a refreshed token replaces the stored one
	if fresh, err := src.Token(); err == nil && fresh.AccessToken != tok.AccessToken {
		if err := SaveToken(c.store, fresh); err != nil {
			c.log.Warn("could not persist refreshed token", zap.Error(err))
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "trakt: read %s", path)
	}
	return body, nil
}
