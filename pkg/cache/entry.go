package cache

import "time"

// Entry is one stored value plus its bookkeeping metadata.
type Entry struct {
	Value       interface{}         `json:"value"`
	CreatedAt   time.Time           `json:"created_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
	AccessedAt  time.Time           `json:"accessed_at"`
	AccessCount int64               `json:"access_count"`
	Tags        map[string]struct{} `json:"tags,omitempty"`
}

// Expired reports whether the entry is no longer live at the given instant.
// An entry is live iff its expiry is strictly in the future.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// HasTag reports whether the entry was stored with the given tag.
func (e *Entry) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

func newTagSet(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}
