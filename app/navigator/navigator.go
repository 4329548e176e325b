// Package navigator routes the app's screens and hands external links to the
// platform.
package navigator

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/navigation"
)

// Screen is one of the app's navigable screens.
type Screen int

const (
	ShowDetails Screen = iota + 1
	Discover
	Settings
)

// Pattern is the deep-link route of s.
func (s Screen) Pattern() string {
	switch s {
	case ShowDetails:
		return "/shows/{showID}"
	case Discover:
		return "/discover"
	case Settings:
		return "/settings"
	}
	return ""
}

func (s Screen) String() string {
	switch s {
	case ShowDetails:
		return "show-details"
	case Discover:
		return "discover"
	case Settings:
		return "settings"
	}
	return "screen(" + strconv.Itoa(int(s)) + ")"
}

// Screens lists every screen.
var Screens = []Screen{ShowDetails, Discover, Settings}

// AppNavigator moves the user between screens.
type AppNavigator interface {
	ShowDetails(ctx context.Context, showID int64) error
	Discover(ctx context.Context) error
	Settings(ctx context.Context) error

	// Navigate follows a deep link ("tivi://app/shows/42") or hands an
	// http(s) link to the platform.
	Navigate(ctx context.Context, link string) error

	// Show installs the destination that presents screen.
	Show(screen Screen, d navigation.Destination)
}

// TiviAppNavigator is the default AppNavigator.
type TiviAppNavigator struct {
	ctx    foundation.Context
	routes *navigation.Navigator
	log    *zap.Logger

	mu      sync.RWMutex
	screens map[Screen]navigation.Destination
}

// NewTiviAppNavigator registers every screen on routes. Screens without a
// destination fail with navigation.ErrUnknownDestination.
func NewTiviAppNavigator(ctx foundation.Context, routes *navigation.Navigator, log *zap.Logger) *TiviAppNavigator {
	if routes == nil {
		routes = navigation.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	n := &TiviAppNavigator{
		ctx:     ctx,
		routes:  routes,
		log:     log,
		screens: make(map[Screen]navigation.Destination),
	}
	for _, s := range Screens {
		routes.Handle(s.Pattern(), n.dispatch(s))
	}
	return n
}

func (n *TiviAppNavigator) dispatch(s Screen) navigation.Destination {
	return func(ctx context.Context, p navigation.Params) error {
		n.mu.RLock()
		d := n.screens[s]
		n.mu.RUnlock()
		if d == nil {
			return errors.Wrapf(navigation.ErrUnknownDestination, "no destination for %s", s)
		}
		n.log.Debug("navigate", zap.Stringer("screen", s))
		return d(ctx, p)
	}
}

func (n *TiviAppNavigator) Show(screen Screen, d navigation.Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.screens[screen] = d
}

func (n *TiviAppNavigator) ShowDetails(ctx context.Context, showID int64) error {
	return n.routes.Navigate(ctx, "/shows/"+strconv.FormatInt(showID, 10))
}

func (n *TiviAppNavigator) Discover(ctx context.Context) error {
	return n.routes.Navigate(ctx, Discover.Pattern())
}

func (n *TiviAppNavigator) Settings(ctx context.Context) error {
	return n.routes.Navigate(ctx, Settings.Pattern())
}

func (n *TiviAppNavigator) Navigate(ctx context.Context, link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return errors.Wrapf(err, "navigator: parse %q", link)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return n.ctx.Open(ctx, link)
	}
	return n.routes.Navigate(ctx, link)
}

// ShowID reads the show id captured by the show-details route.
func ShowID(p navigation.Params) (int64, error) {
	id, err := strconv.ParseInt(p.Get("showID"), 10, 64)
	return id, errors.Wrap(err, "navigator: show id")
}
