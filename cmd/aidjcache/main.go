// Command aidjcache exercises the aidj cache layer end to end: it boots the
// namespace service from environment configuration, walks the well-known
// namespaces through their preset behavior (isolation, LRU eviction, TTL
// sweep, per-user blocklists) and logs the aggregate statistics.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lolimmlost/aidj-sub010/internal/blocklist"
	"github.com/lolimmlost/aidj-sub010/pkg/cache"
	logger2 "github.com/lolimmlost/aidj-sub010/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := initConfig(ctx)
	logger, err := logger2.New(ctx, cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}

	svc := initCacheService(ctx, logger.Logger, cfg)
	defer func() {
		if err = svc.Close(); err != nil {
			logger.ErrorContext(ctx, "cache service close error", slog.Any("error", err))
		}
	}()

	demoNamespaceIsolation(ctx, logger.Logger, svc)
	demoEviction(ctx, logger.Logger, svc)
	demoBlocklist(ctx, logger.Logger, svc)
	demoExpiry(ctx, logger.Logger, svc)

	summary := svc.SummaryStats()
	logger.InfoContext(ctx, "cache summary",
		slog.Int("namespaces", summary.Namespaces),
		slog.Int("entries", summary.Entries),
		slog.Int64("hits", summary.Hits),
		slog.Int64("misses", summary.Misses),
		slog.Float64("hit_rate_pct", summary.HitRate),
		slog.Int64("memory_bytes", summary.MemoryBytes))

	logger.InfoContext(ctx, "cache demo finished, shutting down")
}

func initConfig(ctx context.Context) *Config {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		log.Fatalf("config load error %s", err)
	}

	return cfg
}

func initCacheService(ctx context.Context, logger *slog.Logger, cfg *Config) *cache.Service {
	logger.InfoContext(ctx, "initializing cache service",
		slog.Duration("default_ttl", cfg.Cache.DefaultTTL),
		slog.Int("max_entries", cfg.Cache.MaxEntries))

	presets := cache.DefaultPresets()
	presets[cache.NamespaceGeneral] = cfg.Cache

	return cache.NewService(logger, cache.WithPresets(presets))
}

func demoNamespaceIsolation(ctx context.Context, logger *slog.Logger, svc *cache.Service) {
	svc.Set(cache.NamespaceGeneral, "now-playing", "Bohemian Rhapsody")
	svc.Set(cache.NamespaceLastFM, "now-playing", "similar-tracks:Queen:Bohemian Rhapsody:20")

	general, _ := svc.Get(cache.NamespaceGeneral, "now-playing")
	lastfm, _ := svc.Get(cache.NamespaceLastFM, "now-playing")
	logger.InfoContext(ctx, "same key, isolated namespaces",
		slog.Any("general", general),
		slog.Any("lastfm", lastfm))
}

func demoEviction(ctx context.Context, logger *slog.Logger, svc *cache.Service) {
	ns := "demo-lru"
	svc.Configure(ns, cache.WithMaxEntries(2), cache.WithoutAutoCleanup())

	svc.Set(ns, "a", "A")
	svc.Set(ns, "b", "B")
	svc.Get(ns, "a") // touch a so b becomes LRU
	svc.Set(ns, "c", "C")

	logger.InfoContext(ctx, "eviction at capacity 2",
		slog.Bool("a_kept", svc.Has(ns, "a")),
		slog.Bool("b_evicted", !svc.Has(ns, "b")),
		slog.Bool("c_kept", svc.Has(ns, "c")))
}

func demoBlocklist(ctx context.Context, logger *slog.Logger, svc *cache.Service) {
	bl := blocklist.NewService(logger, svc)
	bl.Block("user123", "Nickelback")
	bl.Block("user123", "Creed")
	bl.Unblock("user123", "Creed")

	logger.InfoContext(ctx, "per-user artist blocklist",
		slog.Bool("nickelback_blocked", bl.IsBlocked("user123", "nickelback")),
		slog.Any("blocked", bl.Blocked("user123")))
}

func demoExpiry(ctx context.Context, logger *slog.Logger, svc *cache.Service) {
	ns := "demo-ttl"
	svc.Set(ns, "short-lived", "gone soon", cache.WithTTL(50*time.Millisecond))

	wait := time.NewTimer(100 * time.Millisecond)
	defer wait.Stop()
	select {
	case <-ctx.Done():
		return
	case <-wait.C:
	}

	purged := svc.Cleanup()
	logger.InfoContext(ctx, "expiry sweep",
		slog.Int("purged_demo_ttl", purged[ns]),
		slog.Bool("still_present", svc.Has(ns, "short-lived")))
}
