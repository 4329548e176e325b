// Package console is the tivi command line.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-tivi/app"
	"github.com/km-arc/go-tivi/app/navigator"
	"github.com/km-arc/go-tivi/app/tivijobs"
	"github.com/km-arc/go-tivi/app/tmdb"
	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/foundation"
	"github.com/km-arc/go-tivi/framework/jobs"
	"github.com/km-arc/go-tivi/framework/logging"
	"github.com/km-arc/go-tivi/framework/navigation"
)

// CLI is the root command.
type CLI struct {
	EnvFile  []string         `kong:"name='env-file',help='Env files to load instead of .env'"`
	LogLevel string           `kong:"short='l',help='Log level, overrides LOG_LEVEL'"`
	Version  kong.VersionFlag `kong:"short='v',help='Show version and exit.'"`

	Run           RunCmd           `kong:"cmd,default='1',help='Run the app until interrupted (default)'"`
	UpdateShow    UpdateShowCmd    `kong:"cmd,name='update-show',help='Refresh a show from TMDb into the cache'"`
	SyncWatched   SyncWatchedCmd   `kong:"cmd,name='sync-watched',help='Download your Trakt watched shows'"`
	TraktLoginURL TraktLoginURLCmd `kong:"cmd,name='trakt-login-url',help='Print the Trakt authorization URL'"`
	TraktLogin    TraktLoginCmd    `kong:"cmd,name='trakt-login',help='Exchange a Trakt authorization code'"`
	Navigate      NavigateCmd      `kong:"cmd,help='Follow a tivi:// deep link or open a web link'"`
	Prefs         PrefsCmd         `kong:"cmd,help='Read and write app preferences'"`

	Stdout io.Writer         `kong:"-"`
	Opener foundation.Opener `kong:"-"`
	booted *app.Tivi
}

func (cli *CLI) out() io.Writer {
	if cli.Stdout != nil {
		return cli.Stdout
	}
	return os.Stdout
}

// boot loads configuration and wires the app once per invocation.
func (cli *CLI) boot() (*app.Tivi, error) {
	if cli.booted != nil {
		return cli.booted, nil
	}
	cfg := config.Load(cli.EnvFile...)
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	log, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}
	var opts []foundation.Option
	if cli.Opener != nil {
		opts = append(opts, foundation.WithOpener(cli.Opener))
	}
	cli.booted = app.New(cfg, log, opts...)
	return cli.booted, nil
}

// ── run ──────────────────────────────────────────────────────────────────────

// RunCmd runs the main loop until SIGINT or SIGTERM.
type RunCmd struct {
	Sync bool   `kong:"help='Sync Trakt watched shows on start'"`
	Open string `kong:"help='Deep link to follow once running'"`
}

func (c *RunCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	log := tivi.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nav := tivi.AppNavigator()
	for _, s := range navigator.Screens {
		s := s
		nav.Show(s, func(_ context.Context, p navigation.Params) error {
			log.Info("screen shown", zap.Stringer("screen", s), zap.String("show_id", p.Get("showID")))
			return nil
		})
	}

	return tivi.Run(ctx, func(ctx context.Context) error {
		loop := tivi.Schedulers().Main
		if c.Sync {
			if _, err := tivi.Actions().SyncTraktWatched(ctx); err != nil {
				log.Warn("trakt sync not scheduled", zap.Error(err))
			}
		}
		if c.Open != "" {
			loop.Schedule(func(ctx context.Context) {
				if err := nav.Navigate(ctx, c.Open); err != nil {
					log.Warn("navigation failed", zap.String("link", c.Open), zap.Error(err))
				}
			})
		}
		err := loop.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// ── jobs ─────────────────────────────────────────────────────────────────────

// UpdateShowCmd refreshes one show and prints its name.
type UpdateShowCmd struct {
	ShowID  int64         `kong:"arg,help='TMDb show id'"`
	Timeout time.Duration `kong:"default='2m',help='Give up after this long'"`
}

func (c *UpdateShowCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	if err := tivi.Init(ctx); err != nil {
		return err
	}
	if _, err := tivi.Actions().UpdateShowFromTMDb(ctx, c.ShowID); err != nil {
		return err
	}
	if err := waitForJobs(ctx, jobs.Default()); err != nil {
		return err
	}

	raw, err := os.ReadFile(tivijobs.ShowCachePath(tivi.CacheDir(), c.ShowID))
	if err != nil {
		return errors.Errorf("show %d was not updated, see the log", c.ShowID)
	}
	var show tmdb.Show
	if err := json.Unmarshal(raw, &show); err != nil {
		return errors.Wrap(err, "cached show")
	}
	fmt.Fprintf(cli.out(), "%d\t%s\t%d seasons\n", show.ID, show.Name, show.NumberOfSeasons)
	return nil
}

// SyncWatchedCmd downloads the signed-in user's watched shows.
type SyncWatchedCmd struct {
	Timeout time.Duration `kong:"default='2m',help='Give up after this long'"`
}

func (c *SyncWatchedCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	if err := tivi.Init(ctx); err != nil {
		return err
	}
	if _, err := tivi.Actions().SyncTraktWatched(ctx); err != nil {
		return err
	}
	if err := waitForJobs(ctx, jobs.Default()); err != nil {
		return err
	}
	path := tivijobs.WatchedCachePath(tivi.CacheDir())
	if _, err := os.Stat(path); err != nil {
		return errors.New("watched shows were not synced, see the log")
	}
	fmt.Fprintln(cli.out(), path)
	return nil
}

func waitForJobs(ctx context.Context, m *jobs.Manager) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for m.Pending() > 0 {
		select {
		case <-ctx.Done():
			m.CancelAll()
			return errors.Wrap(ctx.Err(), "waiting for jobs")
		case <-tick.C:
		}
	}
	return nil
}

// ── trakt ────────────────────────────────────────────────────────────────────

// TraktLoginURLCmd prints the authorization URL.
type TraktLoginURLCmd struct {
	State string `kong:"help='OAuth state, random when empty'"`
}

func (c *TraktLoginURLCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	state := c.State
	if state == "" {
		state = uuid.NewString()
	}
	fmt.Fprintln(cli.out(), tivi.Trakt().LoginURL(state))
	return nil
}

// TraktLoginCmd stores the token for an authorization code.
type TraktLoginCmd struct {
	Code string `kong:"arg,help='Code from the redirect'"`
}

func (c *TraktLoginCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	if err := tivi.Trakt().Exchange(context.Background(), c.Code); err != nil {
		return err
	}
	fmt.Fprintln(cli.out(), "signed in to Trakt")
	return nil
}

// ── navigate ─────────────────────────────────────────────────────────────────

// NavigateCmd follows a link through the app navigator.
type NavigateCmd struct {
	Link string `kong:"arg"`
}

func (c *NavigateCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	nav := tivi.AppNavigator()
	for _, s := range navigator.Screens {
		s := s
		nav.Show(s, func(_ context.Context, p navigation.Params) error {
			fmt.Fprintf(cli.out(), "%s %s\n", s, p.Get("showID"))
			return nil
		})
	}
	return nav.Navigate(context.Background(), c.Link)
}

// ── prefs ────────────────────────────────────────────────────────────────────

// PrefsCmd groups the preference subcommands.
type PrefsCmd struct {
	Get  PrefsGetCmd  `kong:"cmd,help='Print one value'"`
	Set  PrefsSetCmd  `kong:"cmd,help='Store a string value'"`
	Rm   PrefsRmCmd   `kong:"cmd,help='Remove a key'"`
	List PrefsListCmd `kong:"cmd,help='Print every key'"`
}

type PrefsGetCmd struct {
	Key string `kong:"arg"`
}

func (c *PrefsGetCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	v, ok := tivi.AppPreferences().All()[c.Key]
	if !ok {
		return errors.Errorf("no preference %q", c.Key)
	}
	fmt.Fprintln(cli.out(), v)
	return nil
}

type PrefsSetCmd struct {
	Key   string `kong:"arg"`
	Value string `kong:"arg"`
}

func (c *PrefsSetCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	return tivi.AppPreferences().Edit().PutString(c.Key, c.Value).Commit()
}

type PrefsRmCmd struct {
	Key string `kong:"arg"`
}

func (c *PrefsRmCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	return tivi.AppPreferences().Edit().Remove(c.Key).Commit()
}

type PrefsListCmd struct{}

func (c *PrefsListCmd) Run(cli *CLI) error {
	tivi, err := cli.boot()
	if err != nil {
		return err
	}
	all := tivi.AppPreferences().All()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cli.out(), "%s=%v\n", k, all[k])
	}
	return nil
}

// ── entry point ──────────────────────────────────────────────────────────────

// Parser builds the kong parser for cli.
func Parser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("tivi"),
		kong.Description("Track the TV shows you watch."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": foundation.Version},
	}
	return kong.New(cli, append(base, opts...)...)
}

// Run parses args and executes the selected command.
func Run(args []string) error {
	var cli CLI
	parser, err := Parser(&cli)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	defer cli.shutdown()
	return kctx.Run(&cli)
}

// shutdown destroys the process so shutdown hooks run, including for
// commands that never started it.
func (cli *CLI) shutdown() {
	if cli.booted == nil {
		return
	}
	process := cli.booted.App.Lifecycle()
	process.Create()
	process.Destroy()
	_ = cli.booted.Logger().Sync()
}
