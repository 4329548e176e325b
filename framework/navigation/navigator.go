// Package navigation routes in-app deep links ("tivi://app/shows/42") to
// registered destinations.
package navigation

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// ErrUnknownDestination is returned when no destination matches a link.
var ErrUnknownDestination = errors.New("navigation: unknown destination")

// Params are the values captured from a pattern such as /shows/{showID},
// plus the link's query parameters.
type Params struct {
	path  map[string]string
	Query url.Values
}

// Get returns the captured path parameter key.
func (p Params) Get(key string) string { return p.path[key] }

// Destination handles a navigation.
type Destination func(ctx context.Context, p Params) error

// Navigator wraps a chi.Router used as the deep-link route table.
type Navigator struct {
	mux chi.Router
}

// New creates an empty Navigator.
func New() *Navigator {
	mux := chi.NewRouter()
	mux.NotFound(func(http.ResponseWriter, *http.Request) {})
	return &Navigator{mux: mux}
}

// ── Registration ─────────────────────────────────────────────────────────────

// Handle registers d for pattern, e.g. "/shows/{showID}".
func (n *Navigator) Handle(pattern string, d Destination) {
	n.mux.Get(pattern, func(_ http.ResponseWriter, r *http.Request) {
		rw, _ := r.Context().Value(resultKey{}).(*result)
		if rw == nil {
			return
		}
		rw.matched = true

		params := Params{path: map[string]string{}, Query: r.URL.Query()}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, k := range rctx.URLParams.Keys {
				params.path[k] = rctx.URLParams.Values[i]
			}
		}
		rw.err = d(r.Context(), params)
	})
}

// Group registers destinations inline.
func (n *Navigator) Group(fn func(n *Navigator)) {
	n.mux.Group(func(mx chi.Router) {
		fn(&Navigator{mux: mx})
	})
}

// Prefix creates a sub-navigator below pattern, e.g. "/shows".
func (n *Navigator) Prefix(pattern string, fn func(n *Navigator)) {
	n.mux.Route(pattern, func(mx chi.Router) {
		fn(&Navigator{mux: mx})
	})
}

// Middleware wraps every destination registered after it.
func (n *Navigator) Middleware(mw ...func(http.Handler) http.Handler) {
	n.mux.Use(mw...)
}

// ── Navigation ───────────────────────────────────────────────────────────────

// Navigate dispatches link to its destination. link may be a bare path
// ("/shows/42") or a full URI ("tivi://app/shows/42?tab=seasons"); only the
// path and query are routed.
func (n *Navigator) Navigate(ctx context.Context, link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return errors.Wrapf(err, "navigation: parse %q", link)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	res := &result{header: http.Header{}}
	req, err := http.NewRequestWithContext(context.WithValue(ctx, resultKey{}, res), http.MethodGet, path, nil)
	if err != nil {
		return errors.Wrapf(err, "navigation: %q", link)
	}
	req.URL.RawQuery = u.RawQuery

	n.mux.ServeHTTP(res, req)
	if !res.matched {
		return errors.Wrapf(ErrUnknownDestination, "%q", link)
	}
	return res.err
}

// Routes returns the registered patterns.
func (n *Navigator) Routes() []string {
	var out []string
	_ = chi.Walk(n.mux, func(_ string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, route)
		return nil
	})
	return out
}

type resultKey struct{}

// result captures the outcome of one dispatch. It satisfies
// http.ResponseWriter only so the chi mux can drive it.
type result struct {
	header  http.Header
	matched bool
	err     error
}

func (r *result) Header() http.Header         { return r.header }
func (r *result) Write(b []byte) (int, error) { return len(b), nil }
func (r *result) WriteHeader(int)             {}
