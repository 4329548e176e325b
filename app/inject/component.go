package inject

import (
	"github.com/km-arc/go-tivi/app/actions"
	"github.com/km-arc/go-tivi/app/appinitializers"
	"github.com/km-arc/go-tivi/app/navigator"
	"github.com/km-arc/go-tivi/app/tmdb"
	"github.com/km-arc/go-tivi/app/trakt"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/disposable"
	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/prefs"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

// Component exposes every AppModule binding through a named accessor. A
// missing binding is a wiring defect and panics.
type Component struct {
	c *container.Container
}

// NewComponent reads bindings from c.
func NewComponent(c *container.Container) *Component {
	return &Component{c: c}
}

// Container returns the underlying container.
func (k *Component) Container() *container.Container { return k.c }

func (k *Component) Context() foundation.Context {
	return container.Resolve[foundation.Context](k.c, container.Unqualified)
}

func (k *Component) Schedulers() *schedulers.AppSchedulers {
	return container.Resolve[*schedulers.AppSchedulers](k.c, container.Unqualified)
}

func (k *Component) AppPreferences() *prefs.Store {
	return container.Resolve[*prefs.Store](k.c, App)
}

func (k *Component) CacheDir() string {
	return container.Resolve[string](k.c, Cache)
}

// AppInitializers builds a fresh aggregate on every call.
func (k *Component) AppInitializers() *appinitializers.AppInitializers {
	return container.Resolve[*appinitializers.AppInitializers](k.c, container.Unqualified)
}

func (k *Component) AppNavigator() navigator.AppNavigator {
	return container.Resolve[navigator.AppNavigator](k.c, App)
}

func (k *Component) Actions() actions.TiviActions {
	return container.Resolve[actions.TiviActions](k.c, container.Unqualified)
}

func (k *Component) TmdbAPIKey() string {
	return container.Resolve[string](k.c, TmdbAPIKey)
}

func (k *Component) TraktClientID() string {
	return container.Resolve[string](k.c, TraktClientID)
}

func (k *Component) TraktClientSecret() string {
	return container.Resolve[string](k.c, TraktClientSecret)
}

// AppDisposables is cleared every time the process stops.
func (k *Component) AppDisposables() *disposable.Composite {
	return container.Resolve[*disposable.Composite](k.c, ApplicationLevel)
}

// ── remote services ──────────────────────────────────────────────────────────

func (k *Component) TMDb() *tmdb.Client {
	return container.Resolve[*tmdb.Client](k.c, container.Unqualified)
}

func (k *Component) Trakt() *trakt.Client {
	return container.Resolve[*trakt.Client](k.c, container.Unqualified)
}
