package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/km-arc/go-tivi/framework/config"
	"github.com/km-arc/go-tivi/framework/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	t.Setenv(key, val) // automatically restored after test
}

// unsetEnv clears key for the duration of the test so a .env file can set it.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func withCredentials(t *testing.T) {
	t.Helper()
	setEnv(t, "TMDB_API_KEY", "0123456789abcdef")
	setEnv(t, "TRAKT_CLIENT_ID", "clientid0001")
	setEnv(t, "TRAKT_CLIENT_SECRET", "clientsecret0001")
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "APP_NAME", "APP_PACKAGE", "APP_ENV", "LOG_LEVEL", "TIVI_IO_POOL_SIZE", "TRAKT_REDIRECT_URI", "TIVI_DATA_DIR")
	cfg := config.Load("testdata/empty.env")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"App.Name", cfg.App.Name, "Tivi"},
		{"App.PackageName", cfg.App.PackageName, "app.tivi"},
		{"App.Env", cfg.App.Env, "local"},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Credentials.TraktRedirectURI", cfg.Credentials.TraktRedirectURI, "tivi-auth://oauth2callback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
	if cfg.Schedulers.IOPoolSize != 8 {
		t.Errorf("Schedulers.IOPoolSize: got %d want 8", cfg.Schedulers.IOPoolSize)
	}
	if filepath.Base(cfg.App.DataDir) != "app.tivi" {
		t.Errorf("App.DataDir should end in the package name, got %q", cfg.App.DataDir)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setEnv(t, "APP_NAME", "MyTivi")
	setEnv(t, "APP_ENV", "production")
	setEnv(t, "TIVI_CACHE_DIR", "/tmp/tivi-cache")
	setEnv(t, "TIVI_IO_POOL_SIZE", "3")

	cfg := config.Load("testdata/empty.env")

	if cfg.App.Name != "MyTivi" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "MyTivi")
	}
	if cfg.App.Env != "production" {
		t.Errorf("App.Env: got %q want %q", cfg.App.Env, "production")
	}
	if cfg.App.CacheRoot != "/tmp/tivi-cache" {
		t.Errorf("App.CacheRoot: got %q want %q", cfg.App.CacheRoot, "/tmp/tivi-cache")
	}
	if cfg.Schedulers.IOPoolSize != 3 {
		t.Errorf("Schedulers.IOPoolSize: got %d want 3", cfg.Schedulers.IOPoolSize)
	}
}

func TestLoad_CredentialsFromEnvFile(t *testing.T) {
	unsetEnv(t, "TMDB_API_KEY", "TRAKT_CLIENT_ID", "TRAKT_CLIENT_SECRET", "TIVI_IO_POOL_SIZE")

	cfg := config.Load("testdata/creds.env")

	if cfg.Credentials.TmdbAPIKey != "0123456789abcdef0123456789abcdef" {
		t.Errorf("TmdbAPIKey: got %q", cfg.Credentials.TmdbAPIKey)
	}
	if cfg.Credentials.TraktClientID != "1111aaaa2222bbbb" {
		t.Errorf("TraktClientID: got %q", cfg.Credentials.TraktClientID)
	}
	if cfg.Credentials.TraktClientSecret != "3333cccc4444dddd" {
		t.Errorf("TraktClientSecret: got %q", cfg.Credentials.TraktClientSecret)
	}
	if cfg.Schedulers.IOPoolSize != 4 {
		t.Errorf("IOPoolSize: got %d want 4", cfg.Schedulers.IOPoolSize)
	}
}

func TestLoad_BakedCredentialsAreDefaults(t *testing.T) {
	unsetEnv(t, "TMDB_API_KEY")
	old := config.TmdbAPIKey
	config.TmdbAPIKey = "bakedkey"
	t.Cleanup(func() { config.TmdbAPIKey = old })

	if got := config.Load("testdata/empty.env").Credentials.TmdbAPIKey; got != "bakedkey" {
		t.Errorf("got %q want %q", got, "bakedkey")
	}

	setEnv(t, "TMDB_API_KEY", "envkey")
	if got := config.Load("testdata/empty.env").Credentials.TmdbAPIKey; got != "envkey" {
		t.Errorf("env should override baked value: got %q", got)
	}
}

func TestLoad_AppDebug(t *testing.T) {
	setEnv(t, "APP_DEBUG", "true")
	if !config.Load("testdata/empty.env").App.Debug {
		t.Error("expected App.Debug to be true")
	}
	setEnv(t, "APP_DEBUG", "false")
	if config.Load("testdata/empty.env").App.Debug {
		t.Error("expected App.Debug to be false")
	}
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestValidate_Passes(t *testing.T) {
	withCredentials(t)
	setEnv(t, "APP_ENV", "testing")
	if err := config.Validate(config.Load("testdata/empty.env")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	withCredentials(t)
	cfg := config.Load("testdata/empty.env")
	cfg.Credentials.TraktClientSecret = ""
	cfg.Schedulers.IOPoolSize = 0

	err := config.Validate(cfg)

	var verr *validation.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Errors, got %v", err)
	}
	if verr.First("trakt_client_secret") == "" {
		t.Error("expected an error on trakt_client_secret")
	}
	if verr.First("io_pool_size") == "" {
		t.Error("expected an error on io_pool_size")
	}
}

func TestValidate_UnparsablePoolSize(t *testing.T) {
	withCredentials(t)
	setEnv(t, "TIVI_IO_POOL_SIZE", "eight")

	cfg := config.Load("testdata/empty.env")
	if cfg.Schedulers.IOPoolSize != 8 {
		t.Errorf("IOPoolSize should fall back to 8, got %d", cfg.Schedulers.IOPoolSize)
	}

	var verr *validation.Errors
	if !errors.As(config.Validate(cfg), &verr) {
		t.Fatal("expected *validation.Errors")
	}
	if verr.First("io_pool_size") == "" {
		t.Error("expected an error on io_pool_size")
	}
}

func TestValidate_RedirectAndTimeZone(t *testing.T) {
	withCredentials(t)
	setEnv(t, "APP_ENV", "testing")

	tests := []struct {
		name     string
		redirect string
		zone     string
		field    string
	}{
		{"defaults", "tivi-auth://oauth2callback", "", ""},
		{"web redirect", "https://example.com/cb", "Europe/London", ""},
		{"redirect without scheme", "oauth2callback", "", "trakt_redirect_uri"},
		{"zone too short", "tivi-auth://oauth2callback", "X", "time_zone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Load("testdata/empty.env")
			cfg.Credentials.TraktRedirectURI = tt.redirect
			cfg.App.TimeZone = tt.zone

			err := config.Validate(cfg)
			if tt.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var verr *validation.Errors
			if !errors.As(err, &verr) || verr.First(tt.field) == "" {
				t.Errorf("expected an error on %s, got %v", tt.field, err)
			}
		})
	}
}

// ── Get / GetInt / GetBool ───────────────────────────────────────────────────

func TestGet_ReturnsValue(t *testing.T) {
	setEnv(t, "CUSTOM_KEY", "hello")
	if got := config.Get("CUSTOM_KEY", "default"); got != "hello" {
		t.Errorf("got %q want %q", got, "hello")
	}
}

func TestGet_ReturnsFallback(t *testing.T) {
	unsetEnv(t, "MISSING_KEY")
	if got := config.Get("MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("got %q want %q", got, "fallback")
	}
}

func TestGetInt_ReturnsFallbackOnInvalid(t *testing.T) {
	setEnv(t, "SOME_INT", "notanint")
	if got := config.GetInt("SOME_INT", 99); got != 99 {
		t.Errorf("got %d want %d", got, 99)
	}
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		setEnv(t, "BOOL_KEY", val)
		if !config.GetBool("BOOL_KEY", false) {
			t.Errorf("expected true for %q", val)
		}
	}
	setEnv(t, "BOOL_KEY", "notabool")
	if !config.GetBool("BOOL_KEY", true) {
		t.Error("expected fallback true")
	}
}
