// Package cache implements the in-memory cache layer shared by the aidj
// services: a namespaced, TTL-aware, LRU-evicting key-value store used to
// avoid redundant calls to Navidrome, LRCLIB, Last.fm and the LLM providers.
//
// Two layers are provided:
//
//   - [Store]: a single flat key-value store with per-entry TTL, access
//     tracking, tag- and prefix-based bulk deletion, capacity-bounded LRU
//     eviction, hit/miss statistics and an optional background sweep.
//   - [Service]: a namespace router owning one Store per named namespace
//     (e.g. "library-index", "lastfm", "artist-blocklist"), each configured
//     from a preset table of per-domain defaults.
//
// Cache misses and expirations are normal outcomes, not errors: operations
// report them through nil values and booleans. The only defensive handling
// in the package is around caller-supplied callbacks, whose panics are
// recovered and logged so a broken observer cannot break cache operation.
//
// Everything is pure in-memory computation and non-durable; a process
// restart loses all entries by design.
package cache
