// Package inject wires the application's object graph.
package inject

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/km-arc/go-tivi/app/actions"
	"github.com/km-arc/go-tivi/app/appinitializers"
	"github.com/km-arc/go-tivi/app/navigator"
	"github.com/km-arc/go-tivi/app/tivijobs"
	"github.com/km-arc/go-tivi/app/tmdb"
	"github.com/km-arc/go-tivi/app/trakt"
	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/disposable"
	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/jobs"
	"github.com/km-arc/go-tivi/framework/lifecycle"
	"github.com/km-arc/go-tivi/framework/navigation"
	"github.com/km-arc/go-tivi/framework/prefs"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

// AppModule registers the app-wide bindings.
//
// Expects *foundation.Application, *config.Config, *zap.Logger and
// *lifecycle.Process to be bound already, plus *navigation.Navigator and
// *jobs.Manager from the framework providers.
//
// Boot attaches the ApplicationLevel disposable bag to the process lifecycle
// so it is cleared every time the process stops.
type AppModule struct {
	container.BaseProvider

	mu       sync.Mutex
	attached disposable.Disposable
}

func (m *AppModule) Register(app *container.Container) {
	u := container.Unqualified

	container.Provide(app, u, func(r container.Resolver) foundation.Context {
		return container.Resolve[*foundation.Application](r, u)
	})

	container.ProvideSingleton(app, u, func(r container.Resolver) *schedulers.AppSchedulers {
		cfg := container.Resolve[*config.Config](r, u)
		return schedulers.New(cfg.Schedulers.IOPoolSize, logger(r, "schedulers"))
	})

	container.ProvideSingleton(app, App, func(r container.Resolver) *prefs.Store {
		ctx := container.Resolve[foundation.Context](r, u)
		s, err := prefs.Default(ctx.DataDir(), ctx.PackageName(), logger(r, "prefs"))
		if err != nil {
			panic(errors.Wrap(err, "inject: app preferences"))
		}
		return s
	})

	container.ProvideSingleton(app, Cache, func(r container.Resolver) string {
		return container.Resolve[foundation.Context](r, u).CacheDir()
	})

	// ── initializers ─────────────────────────────────────────────────────────

	container.Provide(app, u, func(r container.Resolver) *appinitializers.JobInitializer {
		return &appinitializers.JobInitializer{
			Manager:  container.Resolve[*jobs.Manager](r, u),
			Creator:  container.Resolve[*tivijobs.Creator](r, u),
			Executor: container.Resolve[*schedulers.AppSchedulers](r, u).Network,
		}
	})
	container.Provide(app, u, func(r container.Resolver) *appinitializers.LoggingInitializer {
		return &appinitializers.LoggingInitializer{Logger: container.Resolve[*zap.Logger](r, u)}
	})
	container.Provide(app, u, func(r container.Resolver) *appinitializers.TimeInitializer {
		cfg := container.Resolve[*config.Config](r, u)
		return &appinitializers.TimeInitializer{Zone: cfg.App.TimeZone, Log: logger(r, "time")}
	})
	container.Provide(app, u, func(r container.Resolver) *appinitializers.AppInitializers {
		return appinitializers.New(
			container.Resolve[*appinitializers.JobInitializer](r, u),
			container.Resolve[*appinitializers.LoggingInitializer](r, u),
			container.Resolve[*appinitializers.TimeInitializer](r, u),
		)
	})

	// ── screens & actions ────────────────────────────────────────────────────

	container.ProvideSingleton(app, App, func(r container.Resolver) navigator.AppNavigator {
		return navigator.NewTiviAppNavigator(
			container.Resolve[foundation.Context](r, u),
			container.Resolve[*navigation.Navigator](r, u),
			logger(r, "navigator"),
		)
	})

	container.ProvideSingleton(app, u, func(container.Resolver) actions.TiviActions {
		return actions.NewTiviActions()
	})

	// ── credentials ──────────────────────────────────────────────────────────

	container.Provide(app, TmdbAPIKey, func(r container.Resolver) string {
		return container.Resolve[*config.Config](r, u).Credentials.TmdbAPIKey
	})
	container.Provide(app, TraktClientID, func(r container.Resolver) string {
		return container.Resolve[*config.Config](r, u).Credentials.TraktClientID
	})
	container.Provide(app, TraktClientSecret, func(r container.Resolver) string {
		return container.Resolve[*config.Config](r, u).Credentials.TraktClientSecret
	})

	// ── remote services & jobs ───────────────────────────────────────────────

	container.ProvideSingleton(app, u, func(r container.Resolver) *tmdb.Client {
		return tmdb.New(container.Resolve[string](r, TmdbAPIKey), tmdb.WithLogger(logger(r, "tmdb")))
	})
	container.ProvideSingleton(app, u, func(r container.Resolver) *oauth2.Config {
		return trakt.OAuthConfig(
			container.Resolve[string](r, TraktClientID),
			container.Resolve[string](r, TraktClientSecret),
			container.Resolve[*config.Config](r, u).Credentials.TraktRedirectURI,
		)
	})
	container.ProvideSingleton(app, u, func(r container.Resolver) *trakt.Client {
		return trakt.NewClient(
			container.Resolve[*oauth2.Config](r, u),
			container.Resolve[*prefs.Store](r, App),
			logger(r, "trakt"),
		)
	})
	container.ProvideSingleton(app, u, func(r container.Resolver) *tivijobs.Creator {
		return &tivijobs.Creator{
			TMDb:     container.Resolve[*tmdb.Client](r, u),
			Trakt:    container.Resolve[*trakt.Client](r, u),
			CacheDir: container.Resolve[string](r, Cache),
			Log:      logger(r, "jobs"),
		}
	})

	// ── disposables ──────────────────────────────────────────────────────────

	container.ProvideSingleton(app, ApplicationLevel, func(container.Resolver) *disposable.Composite {
		return disposable.NewComposite()
	})
}

func (m *AppModule) Boot(app *container.Container) {
	process := container.Resolve[*lifecycle.Process](app, container.Unqualified)
	bag := container.Resolve[*disposable.Composite](app, ApplicationLevel)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attached != nil {
		m.attached.Dispose()
	}
	m.attached = bag.ClearOn(process)
}

// Detach stops clearing the ApplicationLevel bag on process stop.
func (m *AppModule) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attached != nil {
		m.attached.Dispose()
		m.attached = nil
	}
}

func logger(r container.Resolver, name string) *zap.Logger {
	return container.Resolve[*zap.Logger](r, container.Unqualified).Named(name)
}
