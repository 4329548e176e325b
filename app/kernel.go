package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/app/inject"
	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/providers"
	"github.com/km-arc/go-tivi/framework/schedulers"
)

// Tivi is the bootstrapped application: the foundation Application plus
// named accessors for everything AppModule binds.
//
//	tivi := app.New(cfg, log)
//	err := tivi.Run(ctx, func(ctx context.Context) error {
//	    return tivi.Schedulers().Main.Run(ctx)
//	})
type Tivi struct {
	App *foundation.Application
	*inject.Component

	Module *inject.AppModule
}

// New registers the framework providers and AppModule, then boots them.
func New(cfg *config.Config, log *zap.Logger, opts ...foundation.Option) *Tivi {
	a := foundation.New(cfg, log, opts...)
	module := &inject.AppModule{}

	a.Register(&providers.ConfigServiceProvider{})
	a.Register(&providers.NavigationServiceProvider{})
	a.Register(&providers.JobsServiceProvider{})
	a.Register(module)
	a.Register(&providers.ShutdownServiceProvider{
		Timeout: 10 * time.Second,
		Hooks:   []providers.ShutdownHook{shutdownSchedulers},
	})
	a.Boot()

	return &Tivi{
		App:       a,
		Component: inject.NewComponent(a.Container),
		Module:    module,
	}
}

// Init runs the app initializers.
func (t *Tivi) Init(ctx context.Context) error {
	return t.AppInitializers().Init(ctx)
}

// Run initializes the app and runs main inside the process lifecycle.
func (t *Tivi) Run(ctx context.Context, main func(ctx context.Context) error) error {
	if err := t.Init(ctx); err != nil {
		return err
	}
	return t.App.Run(ctx, main)
}

// Logger returns the application logger.
func (t *Tivi) Logger() *zap.Logger { return t.App.Logger() }

func shutdownSchedulers(ctx context.Context, app *container.Container) error {
	key := container.KeyOf[*schedulers.AppSchedulers](container.Unqualified)
	if !app.Resolved(key) {
		return nil
	}
	return container.Resolve[*schedulers.AppSchedulers](app, container.Unqualified).Shutdown(ctx)
}
