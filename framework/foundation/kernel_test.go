package foundation_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/lifecycle"
)

func newApp(t *testing.T, opts ...foundation.Option) *foundation.Application {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{
		Name:        "Tivi",
		PackageName: "app.tivi",
		Env:         "testing",
		DataDir:     t.TempDir(),
		CacheRoot:   filepath.Join(t.TempDir(), "cache"),
	}}
	return foundation.New(cfg, zap.NewNop(), opts...)
}

type bootRecorder struct {
	container.BaseProvider
	registered, booted int
}

func (p *bootRecorder) Register(*container.Container) { p.registered++ }
func (p *bootRecorder) Boot(*container.Container)     { p.booted++ }

func TestNew_BindsCoreInstances(t *testing.T) {
	a := newApp(t)

	assert.Same(t, a, container.Resolve[*foundation.Application](a.Container, container.Unqualified))
	assert.Same(t, a.Config(), container.Resolve[*config.Config](a.Container, container.Unqualified))
	assert.Same(t, a.Lifecycle(), container.Resolve[*lifecycle.Process](a.Container, container.Unqualified))
	assert.Same(t, a.Logger(), container.Resolve[*zap.Logger](a.Container, container.Unqualified))
}

func TestCacheDir_CreatedLazily(t *testing.T) {
	a := newApp(t)
	want := filepath.Join(a.Config().App.CacheRoot, "app.tivi")

	assert.NoDirExists(t, want)
	assert.Equal(t, want, a.CacheDir())
	assert.DirExists(t, want)
	assert.Equal(t, want, a.CacheDir())
}

func TestOpen_UsesOpener(t *testing.T) {
	var got string
	a := newApp(t, foundation.WithOpener(func(_ context.Context, target string) error {
		got = target
		return nil
	}))

	require.NoError(t, a.Context().Open(context.Background(), "https://trakt.tv"))
	assert.Equal(t, "https://trakt.tv", got)
}

func TestRun_BootsStartsAndDestroys(t *testing.T) {
	a := newApp(t)
	p := &bootRecorder{}
	a.Register(p)

	var states []lifecycle.State
	err := a.Run(context.Background(), func(context.Context) error {
		states = append(states, a.Lifecycle().State())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, p.registered)
	assert.Equal(t, 1, p.booted)
	assert.Equal(t, []lifecycle.State{lifecycle.Started}, states)
	assert.Equal(t, lifecycle.Destroyed, a.Lifecycle().State())
}

func TestRun_ReturnsMainError(t *testing.T) {
	a := newApp(t)
	boom := errors.New("boom")
	assert.ErrorIs(t, a.Run(context.Background(), func(context.Context) error { return boom }), boom)
}

func TestEnvironmentHelpers(t *testing.T) {
	a := newApp(t)
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsDebug())
	assert.Equal(t, "app.tivi", a.PackageName())
	assert.Equal(t, foundation.Version, a.Version())
}
