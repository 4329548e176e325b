package foundation

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/container"
	"github.com/km-arc/go-tivi/framework/lifecycle"
)

// Context is what components may know about the host application.
type Context interface {
	PackageName() string
	DataDir() string
	CacheDir() string
	// Open hands an external link (an https URL) to the platform.
	Open(ctx context.Context, target string) error
}

// Application is the top-level application handle. It embeds the IoC
// Container and ProviderRegistry so callers can Register providers and
// resolve bindings directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg     *config.Config
	log     *zap.Logger
	process *lifecycle.Process
	opener  Opener

	cacheOnce sync.Once
	cacheDir  string
}

// Option customises an Application.
type Option func(*Application)

// WithOpener replaces the platform link opener.
func WithOpener(o Opener) Option {
	return func(a *Application) { a.opener = o }
}

// WithProcess shares an existing lifecycle owner.
func WithProcess(p *lifecycle.Process) Option {
	return func(a *Application) { a.process = p }
}

// New creates the application. The config, logger, and the application itself
// are bound into the container.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Application {
	if log == nil {
		log = zap.NewNop()
	}
	c := container.New()
	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		cfg:       cfg,
		log:       log,
		process:   lifecycle.NewProcess(),
		opener:    SystemOpener,
	}
	for _, opt := range opts {
		opt(a)
	}

	container.ProvideInstance(c, container.Unqualified, a)
	container.ProvideInstance(c, container.Unqualified, cfg)
	container.ProvideInstance(c, container.Unqualified, log)
	container.ProvideInstance(c, container.Unqualified, a.process)
	return a
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() {
	a.Providers.Boot()
}

// Run boots the application (if needed), brings the process to the
// foreground, and runs main until it returns. The process is destroyed
// afterwards, which delivers OnStop and OnDestroy to observers.
func (a *Application) Run(ctx context.Context, main func(ctx context.Context) error) error {
	if !a.Providers.Booted() {
		a.Boot()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lifecycle.WatchSignals(ctx, a.process)

	a.process.Start()
	defer a.process.Destroy()

	a.log.Info("application started",
		zap.String("package", a.PackageName()),
		zap.String("cache_dir", a.CacheDir()),
	)
	return main(ctx)
}

// ── Context ──────────────────────────────────────────────────────────────────

// Context returns the application as a Context.
func (a *Application) Context() Context { return a }

func (a *Application) PackageName() string { return a.cfg.App.PackageName }
func (a *Application) DataDir() string     { return a.cfg.App.DataDir }

// CacheDir returns <CacheRoot>/<PackageName>, creating it on first use.
// Creation failures are logged and left to the code that writes there.
func (a *Application) CacheDir() string {
	a.cacheOnce.Do(func() {
		a.cacheDir = filepath.Join(a.cfg.App.CacheRoot, a.cfg.App.PackageName)
		if err := os.MkdirAll(a.cacheDir, 0o700); err != nil {
			a.log.Warn("cache dir unavailable", zap.String("dir", a.cacheDir), zap.Error(err))
		}
	})
	return a.cacheDir
}

// Open hands target to the configured opener.
func (a *Application) Open(ctx context.Context, target string) error {
	a.log.Debug("opening external link", zap.String("target", target))
	return a.opener(ctx, target)
}

// ── Accessors ────────────────────────────────────────────────────────────────

func (a *Application) Config() *config.Config        { return a.cfg }
func (a *Application) Logger() *zap.Logger           { return a.log }
func (a *Application) Lifecycle() *lifecycle.Process { return a.process }

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
func (a *Application) Version() string     { return Version }

// Version is set at build time with -ldflags.
var Version = "0.1.0"
