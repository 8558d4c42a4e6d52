package cache

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Fallbacks applied by normalize when a config field is missing or out of
// range. Stores are a best-effort optimization, so construction clamps bad
// values instead of failing.
const (
	fallbackDefaultTTL      = 5 * time.Minute
	fallbackCleanupInterval = time.Minute
)

// OnEvictFunc is called synchronously whenever an entry leaves the store
// through capacity eviction or an expiry sweep. Panics are recovered and
// logged by the store.
type OnEvictFunc func(key string, entry *Entry)

// Config controls a single store / namespace.
type Config struct {
	// DefaultTTL applies to Set calls that carry no explicit TTL.
	DefaultTTL time.Duration `envconfig:"CACHE_DEFAULT_TTL" default:"5m"`

	// MaxEntries bounds the store size; zero or negative disables
	// eviction entirely, which is an explicit opt-out into unbounded
	// growth rather than a misconfiguration.
	MaxEntries int `envconfig:"CACHE_MAX_ENTRIES" default:"1000"`

	// EnableAutoCleanup starts a background sweep every CleanupInterval.
	// Lazy expiration works either way; the sweep exists for keys that
	// are written once and never read again.
	EnableAutoCleanup bool          `envconfig:"CACHE_AUTO_CLEANUP" default:"true"`
	CleanupInterval   time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"1m"`

	// TrackAccess makes reads update AccessedAt/AccessCount. Disabling it
	// degrades LRU eviction to insertion order.
	TrackAccess bool `envconfig:"CACHE_TRACK_ACCESS" default:"true"`

	// OnEvict, when set, observes capacity evictions and sweep purges.
	OnEvict OnEvictFunc `ignored:"true" json:"-"`
}

// DefaultConfig returns the generic configuration used for namespaces
// without a preset.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:        fallbackDefaultTTL,
		MaxEntries:        1000,
		EnableAutoCleanup: true,
		CleanupInterval:   fallbackCleanupInterval,
		TrackAccess:       true,
	}
}

// ValidateWithContext checks a config loaded from the environment. Stores
// constructed in code never go through this path; they clamp instead.
func (c Config) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &c,
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.CleanupInterval, validation.Min(time.Duration(0))),
	)
}

// normalize clamps out-of-range fields to usable values.
func (c Config) normalize() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = fallbackDefaultTTL
	}
	if c.EnableAutoCleanup && c.CleanupInterval <= 0 {
		c.CleanupInterval = fallbackCleanupInterval
	}
	return c
}

// ConfigOption mutates a Config; used by Service.Configure and
// Store.UpdateConfig to merge partial overrides over the current settings.
type ConfigOption func(*Config)

// WithDefaultTTL overrides the TTL applied to Set calls without one.
func WithDefaultTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) { c.DefaultTTL = ttl }
}

// WithMaxEntries overrides the capacity bound; n <= 0 disables eviction.
func WithMaxEntries(n int) ConfigOption {
	return func(c *Config) { c.MaxEntries = n }
}

// WithTrackAccess toggles read-access tracking.
func WithTrackAccess(enabled bool) ConfigOption {
	return func(c *Config) { c.TrackAccess = enabled }
}

// WithAutoCleanup enables the background sweep at the given cadence.
func WithAutoCleanup(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.EnableAutoCleanup = true
		c.CleanupInterval = interval
	}
}

// WithoutAutoCleanup disables the background sweep.
func WithoutAutoCleanup() ConfigOption {
	return func(c *Config) { c.EnableAutoCleanup = false }
}

// WithOnEvict installs an eviction observer.
func WithOnEvict(fn OnEvictFunc) ConfigOption {
	return func(c *Config) { c.OnEvict = fn }
}
