package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-tivi/framework/validation"
)

// Credentials baked in at build time:
//
//	go build -ldflags "-X github.com/km-arc/go-tivi/framework/config.TmdbAPIKey=..."
//
// A non-empty environment value overrides the baked one.
var (
	TmdbAPIKey        string
	TraktClientID     string
	TraktClientSecret string
)

// Config is the central typed configuration struct.
type Config struct {
	App         AppConfig
	Credentials Credentials
	Schedulers  SchedulerConfig
	Log         LogConfig
}

type AppConfig struct {
	Name        string
	PackageName string
	Env         string // local | production | testing
	Debug       bool
	DataDir     string // preferences live here
	CacheRoot   string // the app cache directory is CacheRoot/PackageName
	TimeZone    string // IANA zone name, empty keeps the system zone
}

type Credentials struct {
	TmdbAPIKey        string
	TraktClientID     string
	TraktClientSecret string
	TraktRedirectURI  string
}

type SchedulerConfig struct {
	IOPoolSize int

	// rawIOPoolSize is TIVI_IO_POOL_SIZE as given, so Validate can report
	// a value that did not parse.
	rawIOPoolSize string
}

type LogConfig struct {
	Level string // debug | info | warn | error
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	pkg := env("APP_PACKAGE", "app.tivi")
	return &Config{
		App: AppConfig{
			Name:        env("APP_NAME", "Tivi"),
			PackageName: pkg,
			Env:         env("APP_ENV", "local"),
			Debug:       envBool("APP_DEBUG", false),
			DataDir:     env("TIVI_DATA_DIR", defaultDir(os.UserConfigDir, pkg)),
			CacheRoot:   env("TIVI_CACHE_DIR", defaultDir(os.UserCacheDir, "")),
			TimeZone:    env("TIVI_TIMEZONE", ""),
		},
		Credentials: Credentials{
			TmdbAPIKey:        env("TMDB_API_KEY", TmdbAPIKey),
			TraktClientID:     env("TRAKT_CLIENT_ID", TraktClientID),
			TraktClientSecret: env("TRAKT_CLIENT_SECRET", TraktClientSecret),
			TraktRedirectURI:  env("TRAKT_REDIRECT_URI", "tivi-auth://oauth2callback"),
		},
		Schedulers: SchedulerConfig{
			IOPoolSize:    GetInt("TIVI_IO_POOL_SIZE", 8),
			rawIOPoolSize: os.Getenv("TIVI_IO_POOL_SIZE"),
		},
		Log: LogConfig{
			Level: env("LOG_LEVEL", "info"),
		},
	}
}

// Validate checks the loaded values. It returns *validation.Errors.
func Validate(cfg *Config) error {
	poolSize := cfg.Schedulers.rawIOPoolSize
	if poolSize == "" {
		poolSize = strconv.Itoa(cfg.Schedulers.IOPoolSize)
	}
	v := validation.Make(map[string]string{
		"app_name":            cfg.App.Name,
		"app_package":         cfg.App.PackageName,
		"app_env":             cfg.App.Env,
		"tmdb_api_key":        cfg.Credentials.TmdbAPIKey,
		"trakt_client_id":     cfg.Credentials.TraktClientID,
		"trakt_client_secret": cfg.Credentials.TraktClientSecret,
		"trakt_redirect_uri":  cfg.Credentials.TraktRedirectURI,
		"time_zone":           cfg.App.TimeZone,
		"io_pool_size":        poolSize,
		"log_level":           cfg.Log.Level,
	}, validation.Rules{
		"app_name":            "required|max:64",
		"app_package":         "required|regex:^[a-z][a-z0-9_]*(\\.[a-z][a-z0-9_]*)+$",
		"app_env":             "required|in:local,production,testing",
		"tmdb_api_key":        "required|alpha_num",
		"trakt_client_id":     "required|alpha_num",
		"trakt_client_secret": "required|alpha_num",
		"trakt_redirect_uri":  "nullable|url",
		"time_zone":           "nullable|min:3|max:64",
		"io_pool_size":        "integer|gte:1|lte:256",
		"log_level":           "in:debug,info,warn,error",
	})
	if v.Fails() {
		return v.Errors()
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func defaultDir(base func() (string, error), sub string) string {
	dir, err := base()
	if err != nil {
		dir = os.TempDir()
	}
	if sub == "" {
		return dir
	}
	return filepath.Join(dir, sub)
}
