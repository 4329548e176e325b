package providers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/jobs"
	"github.com/km-arc/go-tivi/framework/lifecycle"
	"github.com/km-arc/go-tivi/framework/navigation"
	"github.com/km-arc/go-tivi/framework/validation"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider checks the bound configuration once all providers
// are registered.
//
// Expects:
//   - *config.Config
//   - *zap.Logger
//
// Invalid values are logged per field; in production they are fatal.
type ConfigServiceProvider struct {
	container.BaseProvider
}

func (p *ConfigServiceProvider) Register(_ *container.Container) {}

func (p *ConfigServiceProvider) Boot(app *container.Container) {
	cfg := container.Resolve[*config.Config](app, container.Unqualified)
	log := container.Resolve[*zap.Logger](app, container.Unqualified)

	err := config.Validate(cfg)
	if err == nil {
		return
	}
	verrs, _ := err.(*validation.Errors)
	if verrs != nil {
		for _, field := range verrs.Fields() {
			log.Warn("invalid configuration", zap.String("field", field), zap.Strings("errors", verrs.Bag[field]))
		}
	}
	if cfg.App.Env == "production" {
		log.Fatal("configuration rejected", zap.Error(err))
	}
}

// ── JobsServiceProvider ───────────────────────────────────────────────────────

// JobsServiceProvider exposes the process-wide job manager.
//
// Bound:
//   - *jobs.Manager → jobs.Default()
//
// Every pending job is cancelled when the process is destroyed.
type JobsServiceProvider struct {
	container.BaseProvider
}

func (p *JobsServiceProvider) Register(app *container.Container) {
	container.ProvideSingleton(app, container.Unqualified, func(r container.Resolver) *jobs.Manager {
		m := jobs.Default()
		m.SetLogger(container.Resolve[*zap.Logger](r, container.Unqualified).Named("jobs"))
		return m
	})
}

func (p *JobsServiceProvider) Boot(app *container.Container) {
	process := container.Resolve[*lifecycle.Process](app, container.Unqualified)
	process.AddObserver(lifecycle.ObserverFunc(func(e lifecycle.Event) {
		if e != lifecycle.OnDestroy || !app.Resolved(container.KeyOf[*jobs.Manager](container.Unqualified)) {
			return
		}
		n := container.Resolve[*jobs.Manager](app, container.Unqualified).CancelAll()
		if n > 0 {
			container.Resolve[*zap.Logger](app, container.Unqualified).Info("cancelled pending jobs", zap.Int("count", n))
		}
	}))
}

// ── NavigationServiceProvider ─────────────────────────────────────────────────

// NavigationServiceProvider registers the deep-link route table.
//
// Bound:
//   - *navigation.Navigator → a fresh, empty route table per resolution
type NavigationServiceProvider struct {
	container.BaseProvider
}

func (p *NavigationServiceProvider) Register(app *container.Container) {
	container.Provide(app, container.Unqualified, func(container.Resolver) *navigation.Navigator {
		return navigation.New()
	})
}

// ── ShutdownServiceProvider ───────────────────────────────────────────────────

// ShutdownServiceProvider runs hooks, in order and under one deadline, when
// the process is destroyed.
type ShutdownServiceProvider struct {
	container.BaseProvider
	Timeout time.Duration
	Hooks   []ShutdownHook
}

// ShutdownHook releases a resource held in app.
type ShutdownHook func(ctx context.Context, app *container.Container) error

func (p *ShutdownServiceProvider) Register(_ *container.Container) {}

func (p *ShutdownServiceProvider) Boot(app *container.Container) {
	process := container.Resolve[*lifecycle.Process](app, container.Unqualified)
	log := container.Resolve[*zap.Logger](app, container.Unqualified)
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	process.AddObserver(lifecycle.ObserverFunc(func(e lifecycle.Event) {
		if e != lifecycle.OnDestroy {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		for _, hook := range p.Hooks {
			if err := hook(ctx, app); err != nil {
				log.Warn("shutdown hook failed", zap.Error(err))
			}
		}
	}))
}
