package inject_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/app/inject"
	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/disposable"
	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/providers"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{
			Name:        "Tivi",
			PackageName: "app.tivi",
			Env:         "testing",
			DataDir:     t.TempDir(),
			CacheRoot:   t.TempDir(),
		},
		Credentials: config.Credentials{
			TmdbAPIKey:        "tmdb0key",
			TraktClientID:     "trakt0id",
			TraktClientSecret: "trakt0secret",
			TraktRedirectURI:  "tivi-auth://oauth2callback",
		},
		Schedulers: config.SchedulerConfig{IOPoolSize: 2},
		Log:        config.LogConfig{Level: "info"},
	}
}

func boot(t *testing.T) (*foundation.Application, *inject.Component, *inject.AppModule) {
	t.Helper()
	a := foundation.New(testConfig(t), zap.NewNop(),
		foundation.WithOpener(func(context.Context, string) error { return nil }))
	module := &inject.AppModule{}
	a.Register(&providers.NavigationServiceProvider{})
	a.Register(&providers.JobsServiceProvider{})
	a.Register(module)
	a.Boot()

	t.Cleanup(func() {
		if a.Resolved(container.KeyOf[*schedulers.AppSchedulers](container.Unqualified)) {
			_ = container.Resolve[*schedulers.AppSchedulers](a.Container, container.Unqualified).Shutdown(context.Background())
		}
	})
	return a, inject.NewComponent(a.Container), module
}

func cancelables(n int) []disposable.Disposable {
	out := make([]disposable.Disposable, n)
	for i := range out {
		_, cancel := context.WithCancel(context.Background())
		out[i] = disposable.FromCancel(cancel)
	}
	return out
}

// ── Scopes ───────────────────────────────────────────────────────────────────

func TestSingletons_AreStable(t *testing.T) {
	_, k, _ := boot(t)

	assert.Same(t, k.Schedulers(), k.Schedulers())
	assert.Same(t, k.AppPreferences(), k.AppPreferences())
	assert.Same(t, k.AppDisposables(), k.AppDisposables())
	assert.Same(t, k.AppNavigator(), k.AppNavigator())
	assert.Same(t, k.Actions(), k.Actions())
	assert.Equal(t, k.CacheDir(), k.CacheDir())
}

func TestTransients_AreRebuilt(t *testing.T) {
	_, k, _ := boot(t)

	first, second := k.AppInitializers(), k.AppInitializers()
	assert.NotSame(t, first, second)
	assert.Equal(t, 3, first.Len())
}

func TestContext_IsTheApplication(t *testing.T) {
	a, k, _ := boot(t)
	assert.Same(t, a, k.Context())
}

func TestQualifiedBindings_DoNotCollide(t *testing.T) {
	a, k, _ := boot(t)

	assert.Equal(t, "tmdb0key", k.TmdbAPIKey())
	assert.Equal(t, "trakt0id", k.TraktClientID())
	assert.Equal(t, "trakt0secret", k.TraktClientSecret())
	assert.Equal(t, a.CacheDir(), k.CacheDir())
	assert.False(t, a.Bound(container.KeyOf[string](container.Unqualified)))
}

// ── Credentials ──────────────────────────────────────────────────────────────

func TestCredentials_NonEmptyAndStable(t *testing.T) {
	a, k, _ := boot(t)
	creds := a.Config().Credentials

	for i := 0; i < 3; i++ {
		assert.Equal(t, creds.TmdbAPIKey, k.TmdbAPIKey())
		assert.Equal(t, creds.TraktClientID, k.TraktClientID())
		assert.Equal(t, creds.TraktClientSecret, k.TraktClientSecret())
	}
	assert.NotEmpty(t, k.TmdbAPIKey())
	assert.NotEmpty(t, k.TraktClientID())
	assert.NotEmpty(t, k.TraktClientSecret())
}

// ── Schedulers ───────────────────────────────────────────────────────────────

func TestSchedulers_Roles(t *testing.T) {
	_, k, _ := boot(t)
	s := k.Schedulers()

	assert.Same(t, s.Disk, s.Network)
	assert.NotEqual(t, s.Database, s.Disk)
	assert.Equal(t, 2, s.IOPoolSize())
	assert.NotNil(t, s.Main)
}

// ── Cache & preferences ──────────────────────────────────────────────────────

func TestCacheDir_UnderCacheRoot(t *testing.T) {
	a, k, _ := boot(t)
	assert.DirExists(t, k.CacheDir())
	assert.Contains(t, k.CacheDir(), a.Config().App.CacheRoot)
}

func TestAppPreferences_DefaultStore(t *testing.T) {
	_, k, _ := boot(t)
	assert.Equal(t, "app.tivi_preferences", k.AppPreferences().Name())
}

// ── ApplicationLevel disposables ─────────────────────────────────────────────

func TestAppDisposables_ClearedOnStop(t *testing.T) {
	a, k, _ := boot(t)
	bag := k.AppDisposables()
	process := a.Lifecycle()
	process.Start()

	handles := cancelables(5)
	require.True(t, bag.AddAll(handles...))
	require.Equal(t, 5, bag.Size())

	process.Stop()

	assert.Equal(t, 0, bag.Size())
	for i, h := range handles {
		assert.True(t, h.IsDisposed(), "handle %d", i)
	}
	assert.False(t, bag.IsDisposed())
}

func TestAppDisposables_UsableAfterClear(t *testing.T) {
	a, k, _ := boot(t)
	bag := k.AppDisposables()
	process := a.Lifecycle()

	process.Start()
	bag.AddAll(cancelables(2)...)
	process.Stop()

	again := cancelables(3)
	require.True(t, bag.AddAll(again...))
	assert.Equal(t, 3, bag.Size())
	for _, h := range again {
		assert.False(t, h.IsDisposed())
	}

	process.Start()
	process.Stop()
	assert.Equal(t, 0, bag.Size())
	for _, h := range again {
		assert.True(t, h.IsDisposed())
	}
}

func TestAppDisposables_NotClearedWithoutStop(t *testing.T) {
	a, k, _ := boot(t)
	a.Lifecycle().Start()
	k.AppDisposables().AddAll(cancelables(2)...)

	assert.Equal(t, 2, k.AppDisposables().Size())
}

func TestAppModule_Detach(t *testing.T) {
	a, k, module := boot(t)
	a.Lifecycle().Start()
	module.Detach()

	k.AppDisposables().AddAll(cancelables(2)...)
	a.Lifecycle().Stop()
	assert.Equal(t, 2, k.AppDisposables().Size())
}

// ── Misconfiguration ─────────────────────────────────────────────────────────

func TestComponent_MissingBindingPanics(t *testing.T) {
	k := inject.NewComponent(container.New())
	assert.Panics(t, func() { k.Actions() })
	assert.Panics(t, func() { k.TmdbAPIKey() })
}
