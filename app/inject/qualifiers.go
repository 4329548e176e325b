package inject

import "github.com/km-arc/go-tivi/framework/container"

// Qualifiers distinguishing bindings of the same type.
const (
	// App marks app-wide instances: the default preferences and the navigator.
	App container.Qualifier = iota + 1

	// Cache marks the cache directory path.
	Cache

	TmdbAPIKey
	TraktClientID
	TraktClientSecret

	// ApplicationLevel marks the disposable bag that lives as long as the
	// process and is cleared whenever it stops.
	ApplicationLevel
)
