// Package blocklist keeps per-user artist blocklists used by the discovery
// pipeline to filter LLM suggestions. The lists live in the cache's
// artist-blocklist namespace as set-valued entries under blocklist:<user>
// keys, so they survive between requests but not across restarts.
package blocklist

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lolimmlost/aidj-sub010/pkg/cache"
)

// Cache is the slice of the cache service the blocklist depends on.
type Cache interface {
	Get(namespace, key string, opts ...cache.GetOption) (interface{}, bool)
	Set(namespace, key string, value interface{}, opts ...cache.SetOption)
	Delete(namespace, key string) bool
}

type Service struct {
	logger *slog.Logger
	cache  Cache
}

func NewService(log *slog.Logger, c Cache) *Service {
	return &Service{
		logger: log,
		cache:  c,
	}
}

// Block adds an artist to the user's blocklist. Artist names are compared
// case-insensitively.
func (s *Service) Block(userID, artist string) {
	set := s.load(userID)
	set[normalize(artist)] = struct{}{}
	s.save(userID, set)

	s.logger.Debug("artist blocked",
		slog.String("user", userID),
		slog.String("artist", artist))
}

// Unblock removes an artist from the user's blocklist, reporting whether it
// was present.
func (s *Service) Unblock(userID, artist string) bool {
	set := s.load(userID)
	name := normalize(artist)
	if _, ok := set[name]; !ok {
		return false
	}
	delete(set, name)
	s.save(userID, set)
	return true
}

// IsBlocked reports whether the user has blocked the artist.
func (s *Service) IsBlocked(userID, artist string) bool {
	_, ok := s.load(userID)[normalize(artist)]
	return ok
}

// Blocked returns the user's blocklist, sorted for stable presentation.
func (s *Service) Blocked(userID string) []string {
	set := s.load(userID)
	artists := make([]string, 0, len(set))
	for name := range set {
		artists = append(artists, name)
	}
	sort.Strings(artists)
	return artists
}

// Reset drops the user's entire blocklist, reporting whether one existed.
func (s *Service) Reset(userID string) bool {
	return s.cache.Delete(cache.NamespaceArtistBlock, key(userID))
}

func (s *Service) load(userID string) map[string]struct{} {
	value, ok := s.cache.Get(cache.NamespaceArtistBlock, key(userID))
	if !ok {
		return make(map[string]struct{})
	}
	set, ok := value.(map[string]struct{})
	if !ok {
		// A foreign value under our key; start over rather than fail.
		s.logger.Warn("unexpected blocklist entry type, resetting",
			slog.String("user", userID))
		return make(map[string]struct{})
	}
	return set
}

func (s *Service) save(userID string, set map[string]struct{}) {
	s.cache.Set(cache.NamespaceArtistBlock, key(userID), set)
}

func key(userID string) string {
	return "blocklist:" + userID
}

func normalize(artist string) string {
	return strings.ToLower(strings.TrimSpace(artist))
}
