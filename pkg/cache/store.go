package cache

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DefaultNamespace labels stores constructed without an explicit name.
const DefaultNamespace = "general"

// Store is a single-namespace in-memory key-value cache with per-entry TTL,
// capacity-bounded LRU eviction, tag/prefix bulk deletion and hit/miss
// statistics. It is safe for concurrent use.
//
// Eviction scans the full entry set for the smallest AccessedAt. Namespace
// sizes in this system are small, so the O(n) scan is the deliberate
// trade: the contract is that the true least-recently-accessed entry goes,
// not any particular asymptotic bound.
//
// A Store owns its background sweep goroutine; call Close to stop it.
type Store struct {
	name   string
	logger *slog.Logger

	mu        sync.RWMutex
	cfg       Config
	entries   map[string]*Entry
	hits      int64
	misses    int64
	listeners map[int]Listener
	nextSub   int
	closed    bool

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
}

// NewStore builds a store with the given config, clamping out-of-range
// fields to defaults. The name labels emitted events only; the store itself
// has no namespace semantics. An empty name means [DefaultNamespace].
func NewStore(name string, cfg Config, logger *slog.Logger) *Store {
	if name == "" {
		name = DefaultNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		name:      name,
		logger:    logger,
		cfg:       cfg.normalize(),
		entries:   make(map[string]*Entry),
		listeners: make(map[int]Listener),
	}

	s.mu.Lock()
	s.startSweepLocked()
	s.mu.Unlock()

	return s
}

// Name returns the label this store stamps on its events.
func (s *Store) Name() string {
	return s.name
}

// Set inserts or overwrites the entry for key. When the store is at
// capacity it first evicts the least-recently-accessed entry to make room,
// even when key already exists, so a full cache sheds other entries rather
// than the key being written.
func (s *Store) Set(key string, value interface{}, opts ...SetOption) {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	now := time.Now()

	ttl := s.cfg.DefaultTTL
	if o.ttlSet {
		ttl = o.ttl
	}

	var evictedKey string
	var evicted *Entry
	if s.cfg.MaxEntries > 0 && len(s.entries) >= s.cfg.MaxEntries {
		evictedKey, evicted = s.evictLRULocked(key)
	}
	onEvict := s.cfg.OnEvict

	s.entries[key] = &Entry{
		Value:      value,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		AccessedAt: now,
		Tags:       newTagSet(o.tags),
	}
	s.mu.Unlock()

	if evicted != nil {
		s.safeOnEvict(onEvict, evictedKey, evicted)
		s.emit(s.event(EventEvict, evictedKey))
	}
	s.emit(s.event(EventSet, key))
}

// Get returns the value stored under key and whether it was found live.
// Absent or expired keys count as misses; an expired entry met on an
// ordinary read is removed on the spot. With [AllowExpired] an expired but
// still-present entry is returned as a hit and left in place. Successful
// reads update the access bookkeeping unless tracking is off or
// [SkipAccessUpdate] is given.
func (s *Store) Get(key string, opts ...GetOption) (interface{}, bool) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false
	}

	now := time.Now()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		s.mu.Unlock()
		return nil, false
	}

	if e.Expired(now) && !o.allowExpired {
		delete(s.entries, key)
		s.misses++
		s.mu.Unlock()
		s.emit(s.event(EventExpire, key))
		return nil, false
	}

	s.hits++
	if s.cfg.TrackAccess && !o.skipAccess {
		e.AccessedAt = now
		e.AccessCount++
	}
	value := e.Value
	s.mu.Unlock()

	s.emit(s.event(EventGet, key))
	return value, true
}

// Has reports whether key exists and is live. An expired entry found here
// is removed, keeping the answer consistent with what Get would say next.
// Has touches neither the hit/miss counters nor the access bookkeeping.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if e.Expired(time.Now()) {
		delete(s.entries, key)
		s.mu.Unlock()
		s.emit(s.event(EventExpire, key))
		return false
	}
	s.mu.Unlock()
	return true
}

// Delete removes key, reporting whether an entry existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if ok {
		s.emit(s.event(EventDelete, key))
	}
	return ok
}

// DeleteByTag removes every entry whose tag set contains tag, returning the
// number removed. Tags are unindexed; this is a full scan.
func (s *Store) DeleteByTag(tag string) int {
	return s.deleteWhere(func(key string, e *Entry) bool {
		return e.HasTag(tag)
	})
}

// DeleteByPrefix removes every entry whose key starts with prefix,
// returning the number removed.
func (s *Store) DeleteByPrefix(prefix string) int {
	return s.deleteWhere(func(key string, e *Entry) bool {
		return strings.HasPrefix(key, prefix)
	})
}

func (s *Store) deleteWhere(match func(string, *Entry) bool) int {
	s.mu.Lock()
	var removed []string
	for key, e := range s.entries {
		if match(key, e) {
			removed = append(removed, key)
		}
	}
	for _, key := range removed {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	events := make([]Event, 0, len(removed))
	for _, key := range removed {
		events = append(events, s.event(EventDelete, key))
	}
	s.emit(events...)
	return len(removed)
}

// Clear drops every entry and resets the hit/miss counters.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.entries = make(map[string]*Entry)
	s.hits = 0
	s.misses = 0
	s.mu.Unlock()

	s.emit(s.event(EventClear, ""))
}

// Stats computes a snapshot by scanning the store. The memory figure is a
// heuristic size proxy, not a byte-exact measurement.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := Stats{
		Entries: len(s.entries),
		Hits:    s.hits,
		Misses:  s.misses,
		HitRate: hitRate(s.hits, s.misses),
	}

	for key, e := range s.entries {
		stats.MemoryBytes += int64(len(key)) + estimateSize(e.Value)
		if e.Expired(now) {
			stats.Expired++
			continue
		}
		if stats.OldestEntry.IsZero() || e.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = e.CreatedAt
		}
		if e.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = e.CreatedAt
		}
	}
	return stats
}

// Keys lists every stored key, expired ones included: listing is
// metadata-only and triggers no cleanup.
func (s *Store) Keys() []string {
	return s.keysWhere(nil)
}

// KeysContaining lists keys with substr anywhere in them.
func (s *Store) KeysContaining(substr string) []string {
	return s.keysWhere(func(key string) bool {
		return strings.Contains(key, substr)
	})
}

// KeysMatching lists keys accepted by the regular expression.
func (s *Store) KeysMatching(re *regexp.Regexp) []string {
	return s.keysWhere(re.MatchString)
}

func (s *Store) keysWhere(match func(string) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		if match == nil || match(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Refresh pushes key's expiry to now plus ttl (the default TTL when ttl is
// not positive) and bumps its access time without counting an access.
// It reports whether the key exists.
func (s *Store) Refresh(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	now := time.Now()
	e.ExpiresAt = now.Add(ttl)
	e.AccessedAt = now
	return true
}

// Cleanup purges every currently-expired entry and returns how many went.
// The background sweep calls this on its ticker; callers may also invoke it
// directly.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	now := time.Now()
	var keys []string
	var purged []*Entry
	for key, e := range s.entries {
		if e.Expired(now) {
			keys = append(keys, key)
			purged = append(purged, e)
		}
	}
	for _, key := range keys {
		delete(s.entries, key)
	}
	onEvict := s.cfg.OnEvict
	s.mu.Unlock()

	for i, key := range keys {
		s.safeOnEvict(onEvict, key, purged[i])
	}
	if len(keys) > 0 {
		s.emit(s.event(EventCleanup, ""))
	}
	return len(keys)
}

// Subscribe registers a listener for this store's events and returns its
// unsubscribe function. Listeners run synchronously on the goroutine that
// triggered the event.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Config returns the store's effective configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig merges the options over the current configuration. Existing
// entries keep the expiry they were written with; only future Set calls see
// the new defaults. The background sweep is stopped, started or re-timed
// as the auto-cleanup settings change.
func (s *Store) UpdateConfig(opts ...ConfigOption) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	cfg := s.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.normalize()

	sweepChanged := cfg.EnableAutoCleanup != s.cfg.EnableAutoCleanup ||
		cfg.CleanupInterval != s.cfg.CleanupInterval
	s.cfg = cfg

	if !sweepChanged {
		s.mu.Unlock()
		return
	}

	stop := s.sweepStop
	s.sweepStop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.sweepWG.Wait()
	}

	s.mu.Lock()
	if !s.closed && s.sweepStop == nil {
		s.startSweepLocked()
	}
	s.mu.Unlock()
}

// Close stops the background sweep and drops all entries and listeners.
// The store stays usable only as a no-op: every operation on a closed
// store returns its zero result. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stop := s.sweepStop
	s.sweepStop = nil
	s.entries = make(map[string]*Entry)
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.sweepWG.Wait()
	}
	return nil
}

// evictLRULocked removes the entry with the smallest AccessedAt, skipping
// exclude (the key currently being written). Ties go to whichever the scan
// meets first; tie order is not a contract. Caller holds the write lock.
func (s *Store) evictLRULocked(exclude string) (string, *Entry) {
	var victimKey string
	var victim *Entry
	for key, e := range s.entries {
		if key == exclude {
			continue
		}
		if victim == nil || e.AccessedAt.Before(victim.AccessedAt) {
			victimKey = key
			victim = e
		}
	}
	if victim == nil {
		return "", nil
	}
	delete(s.entries, victimKey)
	return victimKey, victim
}

func (s *Store) startSweepLocked() {
	if !s.cfg.EnableAutoCleanup || s.cfg.CleanupInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	s.sweepStop = stop
	s.sweepWG.Add(1)
	go s.sweepLoop(s.cfg.CleanupInterval, stop)
}

func (s *Store) sweepLoop(every time.Duration, stop <-chan struct{}) {
	defer s.sweepWG.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				s.logger.Debug("cache sweep purged expired entries",
					slog.String("namespace", s.name),
					slog.Int("purged", n))
			}
		}
	}
}

func (s *Store) event(t EventType, key string) Event {
	return Event{Type: t, Namespace: s.name, Key: key, Timestamp: time.Now()}
}

// emit delivers events to a snapshot of the current listeners, outside the
// store lock so a listener may call back into the store.
func (s *Store) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	s.mu.RLock()
	if len(s.listeners) == 0 {
		s.mu.RUnlock()
		return
	}
	subs := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, evt := range events {
		for _, fn := range subs {
			s.notify(fn, evt)
		}
	}
}

func (s *Store) notify(fn Listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cache event listener panicked",
				slog.String("namespace", s.name),
				slog.String("event", string(evt.Type)),
				slog.Any("panic", r))
		}
	}()
	fn(evt)
}

func (s *Store) safeOnEvict(fn OnEvictFunc, key string, e *Entry) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cache eviction callback panicked",
				slog.String("namespace", s.name),
				slog.String("key", key),
				slog.Any("panic", r))
		}
	}()
	fn(key, e)
}
