package cache

import "time"

// Well-known namespaces used across the aidj services.
const (
	NamespaceGeneral        = "general"
	NamespaceLibraryIndex   = "library-index"
	NamespaceLastFM         = "lastfm"
	NamespaceLyrics         = "lyrics"
	NamespaceArtistBlock    = "artist-blocklist"
	NamespaceLLMSuggestions = "llm-suggestions"
)

// DefaultPresets returns the per-namespace default configurations applied
// the first time each namespace is touched. The map is built fresh on every
// call so a Service cannot share mutable state with another instance;
// runtime changes go through Service.Configure.
func DefaultPresets() map[string]Config {
	return map[string]Config{
		// Generic fallback for ad-hoc namespaces.
		NamespaceGeneral: DefaultConfig(),

		// The full library index is expensive to rebuild from Navidrome,
		// so it gets a long TTL and room for every artist/album/track row.
		NamespaceLibraryIndex: {
			DefaultTTL:        30 * time.Minute,
			MaxEntries:        5000,
			EnableAutoCleanup: true,
			CleanupInterval:   5 * time.Minute,
			TrackAccess:       true,
		},

		// Last.fm lookups (similar tracks, artist info) are cheap to
		// recompute and high-churn.
		NamespaceLastFM: {
			DefaultTTL:        10 * time.Minute,
			MaxEntries:        1000,
			EnableAutoCleanup: true,
			CleanupInterval:   time.Minute,
			TrackAccess:       true,
		},

		// Lyrics rarely change; LRCLIB results sit in front of the
		// database tier, keyed artist::title::album::duration.
		NamespaceLyrics: {
			DefaultTTL:        24 * time.Hour,
			MaxEntries:        2000,
			EnableAutoCleanup: true,
			CleanupInterval:   time.Hour,
			TrackAccess:       true,
		},

		// Per-user blocklist sets under blocklist:<user> keys.
		NamespaceArtistBlock: {
			DefaultTTL:        24 * time.Hour,
			MaxEntries:        500,
			EnableAutoCleanup: false,
			TrackAccess:       true,
		},

		// LLM suggestion responses are costly but go stale with the
		// library, so a moderate TTL.
		NamespaceLLMSuggestions: {
			DefaultTTL:        time.Hour,
			MaxEntries:        500,
			EnableAutoCleanup: true,
			CleanupInterval:   10 * time.Minute,
			TrackAccess:       true,
		},
	}
}
