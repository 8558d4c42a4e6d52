package cache

import (
	"io"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s := NewStore("test", cfg, testLogger())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSetGet(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v")
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStoreTTLExpiry(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v", WithTTL(50*time.Millisecond))

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(100 * time.Millisecond) // Expired but unpurged entries stay readable with AllowExpired and
	// are not removed by that read.
	v, ok = s.Get("k", AllowExpired())
	require.True(t, ok)
	assert.Equal(t, "v", v) // An ordinary read treats it as a miss and purges it lazily.
	_, ok = s.Get("k")
	assert.False(t, ok)

	_, ok = s.Get("k", AllowExpired())
	assert.False(t, ok, "lazy expiration should have removed the entry")
}

func TestStoreZeroTTLExpiresImmediately(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v", WithTTL(0))
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStoreRefreshExtendsTTL(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v", WithTTL(50*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	require.True(t, s.Refresh("k", 200*time.Millisecond))
	time.Sleep(50 * time.Millisecond) // 80ms total, past the original expiry

	v, ok := s.Get("k")
	require.True(t, ok, "refresh should have extended the TTL")
	assert.Equal(t, "v", v)

	assert.False(t, s.Refresh("missing", time.Second))
}

func TestStoreRefreshDoesNotCountAccess(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v")
	s.Refresh("k", time.Minute)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits, "refresh must not count as a read")
}

func TestStoreLRUEvictionOrder(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, MaxEntries: 3, TrackAccess: true})

	s.Set("k1", 1)
	s.Set("k2", 2)
	s.Set("k3", 3) // Touch k2 then k3 so k1 is the least-recently-accessed.
	s.Get("k2")
	s.Get("k3")

	s.Set("k4", 4)

	assert.False(t, s.Has("k1"), "k1 should have been evicted")
	assert.True(t, s.Has("k2"))
	assert.True(t, s.Has("k3"))
	assert.True(t, s.Has("k4"))
}

func TestStoreEvictionNeverRemovesKeyBeingSet(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, MaxEntries: 2, TrackAccess: true})

	s.Set("a", "A")
	s.Set("b", "B") // Overwriting b on a full store still evicts, but never b itself.
	s.Set("b", "B2")

	assert.False(t, s.Has("a"))
	v, ok := s.Get("b")
	require.True(t, ok)
	assert.Equal(t, "B2", v)
}

func TestStoreEvictionWithoutAccessTrackingIsInsertionOrder(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, MaxEntries: 2, TrackAccess: false})

	s.Set("a", "A")
	s.Set("b", "B")
	s.Get("a") // no effect: tracking is off

	s.Set("c", "C")

	assert.False(t, s.Has("a"), "with tracking off the oldest insertion goes first")
	assert.True(t, s.Has("b"))
	assert.True(t, s.Has("c"))
}

func TestStoreSkipAccessUpdate(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, MaxEntries: 2, TrackAccess: true})

	s.Set("a", "A")
	s.Set("b", "B")
	s.Get("a", SkipAccessUpdate())

	s.Set("c", "C")

	assert.False(t, s.Has("a"), "an untracked read must not protect a from eviction")
	assert.True(t, s.Has("b"))
}

func TestStoreMaxEntriesDisabledGrowsUnbounded(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, MaxEntries: 0, TrackAccess: true})

	for i := 0; i < 100; i++ {
		s.Set(string(rune('a'+i%26))+string(rune('0'+i/26)), i)
	}
	assert.Equal(t, 100, s.Stats().Entries)
}

func TestStoreOnEvictCallback(t *testing.T) {
	var mu sync.Mutex
	var evicted []string

	s := newTestStore(t, Config{
		DefaultTTL:  time.Minute,
		MaxEntries:  1,
		TrackAccess: true,
		OnEvict: func(key string, e *Entry) {
			mu.Lock()
			evicted = append(evicted, key)
			mu.Unlock()
		},
	})

	s.Set("a", "A")
	s.Set("b", "B")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a"}, evicted)
}

func TestStoreHas(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v", WithTTL(30*time.Millisecond))
	assert.True(t, s.Has("k"))
	assert.False(t, s.Has("missing"))

	time.Sleep(60 * time.Millisecond)

	assert.False(t, s.Has("k")) // Has purges the expired entry, consistent with what Get would do.
	_, ok := s.Get("k", AllowExpired())
	assert.False(t, ok)

	stats := s.Stats()
	assert.Zero(t, stats.Hits, "Has must not touch hit/miss counters")
	assert.Equal(t, int64(1), stats.Misses, "only the AllowExpired miss counts")
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v")
	assert.True(t, s.Delete("k"))
	assert.False(t, s.Delete("k"))
	assert.False(t, s.Has("k"))
}

func TestStoreDeleteByTag(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k1", 1, WithTags("group1"))
	s.Set("k2", 2, WithTags("group1", "shared"))
	s.Set("k3", 3, WithTags("group2"))

	assert.Equal(t, 2, s.DeleteByTag("group1"))
	assert.False(t, s.Has("k1"))
	assert.False(t, s.Has("k2"))
	assert.True(t, s.Has("k3"))

	assert.Zero(t, s.DeleteByTag("group1"))
}

func TestStoreDeleteByPrefix(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("blocklist:user1", 1)
	s.Set("blocklist:user2", 2)
	s.Set("similar-tracks:user1", 3)

	assert.Equal(t, 2, s.DeleteByPrefix("blocklist:"))
	assert.True(t, s.Has("similar-tracks:user1"))
}

func TestStoreHitMissAccounting(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v")
	s.Get("k")
	s.Get("k")
	s.Get("missing")

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 66.67, stats.HitRate, 0.01)
}

func TestStoreStatsEmpty(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	stats := s.Stats()
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.HitRate)
	assert.True(t, stats.OldestEntry.IsZero())
	assert.True(t, stats.NewestEntry.IsZero())
}

func TestStoreStatsExpiredCountAndAges(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("dead", 1, WithTTL(10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	s.Set("live", 2)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Expired) // Only live entries contribute to the age bounds.
	assert.Equal(t, stats.OldestEntry, stats.NewestEntry)
	assert.Positive(t, stats.MemoryBytes)
}

func TestStoreClearResetsCounters(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k", "v")
	s.Get("k")
	s.Get("missing")
	s.Clear()

	stats := s.Stats()
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.False(t, s.Has("k"))
}

func TestStoreKeys(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("artist:queen", 1)
	s.Set("artist:muse", 2)
	s.Set("album:nightatopera", 3)
	s.Set("expired", 4, WithTTL(time.Nanosecond))

	keys := s.Keys()
	sort.Strings(keys) // Listing is metadata-only: expired keys are included, not purged.
	assert.Equal(t, []string{"album:nightatopera", "artist:muse", "artist:queen", "expired"}, keys)

	sub := s.KeysContaining("artist:")
	sort.Strings(sub)
	assert.Equal(t, []string{"artist:muse", "artist:queen"}, sub)

	re := regexp.MustCompile(`^a(rtist|lbum):`)
	assert.Len(t, s.KeysMatching(re), 3)
}

func TestStoreCleanupPurgesOnlyExpired(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("k1", 1, WithTTL(50*time.Millisecond))
	s.Set("k2", 2, WithTTL(5*time.Second))

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, s.Cleanup())
	assert.False(t, s.Has("k1"))
	assert.True(t, s.Has("k2"))
	assert.Zero(t, s.Cleanup())
}

func TestStoreCleanupInvokesOnEvict(t *testing.T) {
	var mu sync.Mutex
	var purged []string

	s := newTestStore(t, Config{
		DefaultTTL:  time.Minute,
		TrackAccess: true,
		OnEvict: func(key string, e *Entry) {
			mu.Lock()
			purged = append(purged, key)
			mu.Unlock()
		},
	})

	s.Set("k1", 1, WithTTL(time.Nanosecond))
	s.Set("k2", 2, WithTTL(time.Nanosecond))
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 2, s.Cleanup())

	mu.Lock()
	defer mu.Unlock()
	sort.Strings(purged)
	assert.Equal(t, []string{"k1", "k2"}, purged)
}

func TestStoreBackgroundSweep(t *testing.T) {
	s := newTestStore(t, Config{
		DefaultTTL:        time.Minute,
		TrackAccess:       true,
		EnableAutoCleanup: true,
		CleanupInterval:   10 * time.Millisecond,
	})

	s.Set("ttl", "v", WithTTL(20*time.Millisecond)) // The sweep should remove the key without any read touching it.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if len(s.Keys()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background sweep never purged the expired entry")
}

func TestStoreEvents(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, MaxEntries: 1, TrackAccess: true})

	var mu sync.Mutex
	var got []Event
	unsubscribe := s.Subscribe(func(evt Event) {
		mu.Lock()
		got = append(got, evt)
		mu.Unlock()
	})

	s.Set("a", 1) // set
	s.Get("a") // get
	s.Set("b", 2) // evict a, set b
	s.Delete("b") // delete
	s.Set("c", 3, WithTTL(time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	s.Get("c") // expire
	s.Set("d", 4, WithTTL(time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	s.Cleanup() // cleanup
	s.Clear() // clear

	mu.Lock()
	types := make([]EventType, 0, len(got))
	for _, evt := range got {
		assert.Equal(t, "test", evt.Namespace)
		assert.False(t, evt.Timestamp.IsZero())
		types = append(types, evt.Type)
	}
	mu.Unlock()

	assert.Equal(t, []EventType{
		EventSet, EventGet, EventEvict, EventSet, EventDelete,
		EventSet, EventExpire, EventSet, EventCleanup, EventClear,
	}, types)

	unsubscribe()
	s.Set("e", 5)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 10, "no events after unsubscribe")
}

func TestStoreListenerPanicDoesNotPropagate(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	var delivered int
	s.Subscribe(func(Event) { panic("bad listener") })
	s.Subscribe(func(Event) { delivered++ })

	assert.NotPanics(t, func() { s.Set("k", "v") })
	assert.Equal(t, 1, delivered, "healthy listeners still run")

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStoreOnEvictPanicDoesNotPropagate(t *testing.T) {
	s := newTestStore(t, Config{
		DefaultTTL:  time.Minute,
		MaxEntries:  1,
		TrackAccess: true,
		OnEvict:     func(string, *Entry) { panic("bad callback") },
	})

	s.Set("a", 1)
	assert.NotPanics(t, func() { s.Set("b", 2) })
	assert.True(t, s.Has("b"))
}

func TestStoreUpdateConfig(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("old", 1)
	s.UpdateConfig(WithDefaultTTL(20 * time.Millisecond))

	assert.Equal(t, 20*time.Millisecond, s.Config().DefaultTTL)

	s.Set("new", 2)
	time.Sleep(50 * time.Millisecond) // Only entries written after the change use the new default.
	assert.True(t, s.Has("old"))
	assert.False(t, s.Has("new"))
}

func TestStoreUpdateConfigStartsSweep(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: time.Minute, TrackAccess: true})

	s.Set("ttl", "v", WithTTL(10*time.Millisecond))
	s.UpdateConfig(WithAutoCleanup(10 * time.Millisecond))

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if len(s.Keys()) == 0 {
			s.UpdateConfig(WithoutAutoCleanup())
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sweep enabled at runtime never ran")
}

func TestStoreConfigClamping(t *testing.T) {
	s := newTestStore(t, Config{DefaultTTL: -1, EnableAutoCleanup: true, CleanupInterval: -5})

	cfg := s.Config()
	assert.Equal(t, fallbackDefaultTTL, cfg.DefaultTTL)
	assert.Equal(t, fallbackCleanupInterval, cfg.CleanupInterval)
}

func TestStoreCloseIdempotent(t *testing.T) {
	s := NewStore("test", Config{
		DefaultTTL:        time.Minute,
		TrackAccess:       true,
		EnableAutoCleanup: true,
		CleanupInterval:   10 * time.Millisecond,
	}, testLogger())

	s.Set("k", "v")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.False(t, s.Has("k"))
	_, ok := s.Get("k")
	assert.False(t, ok) // Every operation is a safe no-op after close.
	s.Set("k2", "v2")
	assert.False(t, s.Has("k2"))
	assert.Zero(t, s.Cleanup())
	s.Clear()
	s.UpdateConfig(WithMaxEntries(10))
}

func TestStoreDefaultNamespaceLabel(t *testing.T) {
	s := NewStore("", Config{DefaultTTL: time.Minute}, nil)
	defer s.Close()

	assert.Equal(t, DefaultNamespace, s.Name())

	var evt Event
	s.Subscribe(func(e Event) { evt = e })
	s.Set("k", "v")
	assert.Equal(t, DefaultNamespace, evt.Namespace)
}
