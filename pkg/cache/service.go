package cache

import (
	"log/slog"
	"sync"
)

// Service routes cache operations to per-namespace stores, creating each
// store lazily from its preset (or the generic default) on first touch.
// Namespaces are fully isolated: identical keys in two namespaces never
// collide, and clearing one never disturbs another.
type Service struct {
	logger  *slog.Logger
	presets map[string]Config

	mu     sync.RWMutex
	stores map[string]*Store
	closed bool
}

// ServiceOption customizes a Service at construction.
type ServiceOption func(*Service)

// WithPresets replaces the default preset table. The table is copied; the
// caller's map is never retained or mutated.
func WithPresets(presets map[string]Config) ServiceOption {
	return func(s *Service) {
		s.presets = make(map[string]Config, len(presets))
		for name, cfg := range presets {
			s.presets[name] = cfg
		}
	}
}

// NewService builds a namespace-routing cache service. By default each
// namespace starts from [DefaultPresets]; unknown namespaces fall back to
// [DefaultConfig].
func NewService(logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		logger:  logger,
		presets: DefaultPresets(),
		stores:  make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value under key in the given namespace.
func (s *Service) Set(namespace, key string, value interface{}, opts ...SetOption) {
	if store := s.store(namespace); store != nil {
		store.Set(key, value, opts...)
	}
}

// Get fetches key from the given namespace.
func (s *Service) Get(namespace, key string, opts ...GetOption) (interface{}, bool) {
	store := s.store(namespace)
	if store == nil {
		return nil, false
	}
	return store.Get(key, opts...)
}

// Has reports whether key is live in the given namespace.
func (s *Service) Has(namespace, key string) bool {
	store := s.store(namespace)
	return store != nil && store.Has(key)
}

// Delete removes key from the given namespace.
func (s *Service) Delete(namespace, key string) bool {
	store := s.store(namespace)
	return store != nil && store.Delete(key)
}

// Configure merges the options over the namespace's current configuration,
// creating the store (from its preset) if it does not exist yet. Entries
// already stored keep the expiry they were written with.
func (s *Service) Configure(namespace string, opts ...ConfigOption) {
	if store := s.store(namespace); store != nil {
		store.UpdateConfig(opts...)
	}
}

// Configuration returns the namespace's effective config: its preset (or
// the generic default) merged with any Configure overrides applied so far.
// It does not instantiate the store.
func (s *Service) Configuration(namespace string) Config {
	s.mu.RLock()
	store, ok := s.stores[namespace]
	s.mu.RUnlock()

	if ok {
		return store.Config()
	}
	return s.presetFor(namespace).normalize()
}

// ClearNamespace empties one namespace, leaving every other untouched.
// A namespace that was never instantiated is a no-op.
func (s *Service) ClearNamespace(namespace string) {
	s.mu.RLock()
	store, ok := s.stores[namespace]
	s.mu.RUnlock()

	if ok {
		store.Clear()
	}
}

// ClearAll empties every instantiated namespace.
func (s *Service) ClearAll() {
	for _, store := range s.snapshot() {
		store.Clear()
	}
}

// NamespaceStats returns the namespace's statistics, or false if the
// namespace has never been instantiated.
func (s *Service) NamespaceStats(namespace string) (Stats, bool) {
	s.mu.RLock()
	store, ok := s.stores[namespace]
	s.mu.RUnlock()

	if !ok {
		return Stats{}, false
	}
	return store.Stats(), true
}

// SummaryStats aggregates statistics across all instantiated namespaces.
func (s *Service) SummaryStats() SummaryStats {
	stores := s.snapshot()

	summary := SummaryStats{Namespaces: len(stores)}
	for _, store := range stores {
		stats := store.Stats()
		summary.Entries += stats.Entries
		summary.Hits += stats.Hits
		summary.Misses += stats.Misses
		summary.MemoryBytes += stats.MemoryBytes
	}
	summary.HitRate = hitRate(summary.Hits, summary.Misses)
	return summary
}

// ActiveNamespaces lists the namespaces instantiated so far.
func (s *Service) ActiveNamespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.stores))
	for name := range s.stores {
		names = append(names, name)
	}
	return names
}

// Cleanup sweeps every namespace and reports how many expired entries each
// one shed.
func (s *Service) Cleanup() map[string]int {
	purged := make(map[string]int)
	for name, store := range s.snapshot() {
		purged[name] = store.Cleanup()
	}
	return purged
}

// Close shuts down every owned store and drops the namespace registry.
// Idempotent; a closed service answers every operation with its zero
// result.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stores := s.stores
	s.stores = make(map[string]*Store)
	s.mu.Unlock()

	for name, store := range stores {
		if err := store.Close(); err != nil {
			s.logger.Error("cache namespace close failed",
				slog.String("namespace", name),
				slog.Any("error", err))
		}
	}
	return nil
}

// store returns the namespace's store, creating it lazily. Returns nil on
// a closed service.
func (s *Service) store(namespace string) *Store {
	s.mu.RLock()
	store, ok := s.stores[namespace]
	closed := s.closed
	s.mu.RUnlock()
	if ok || closed {
		return store
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	// Re-check: another goroutine may have created it between locks.
	if store, ok = s.stores[namespace]; ok {
		return store
	}

	store = NewStore(namespace, s.presetFor(namespace), s.logger)
	s.stores[namespace] = store
	s.logger.Debug("cache namespace created", slog.String("namespace", namespace))
	return store
}

func (s *Service) presetFor(namespace string) Config {
	if cfg, ok := s.presets[namespace]; ok {
		return cfg
	}
	return DefaultConfig()
}

func (s *Service) snapshot() map[string]*Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stores := make(map[string]*Store, len(s.stores))
	for name, store := range s.stores {
		stores[name] = store
	}
	return stores
}
