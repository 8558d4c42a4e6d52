package cache

import "time"

type setOptions struct {
	ttl    time.Duration
	ttlSet bool
	tags   []string
}

// SetOption customizes a single Set call.
type SetOption func(*setOptions)

// WithTTL overrides the store's default TTL for this entry only. A zero or
// negative ttl is accepted and means "expires immediately": the entry is a
// candidate for lazy expiration on its next ordinary read.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}

// WithTags attaches labels to the entry for later bulk invalidation via
// DeleteByTag.
func WithTags(tags ...string) SetOption {
	return func(o *setOptions) { o.tags = tags }
}

type getOptions struct {
	allowExpired bool
	skipAccess   bool
}

// GetOption customizes a single Get call.
type GetOption func(*getOptions)

// AllowExpired makes Get return an expired-but-present entry instead of
// treating it as a miss. The entry is not purged.
func AllowExpired() GetOption {
	return func(o *getOptions) { o.allowExpired = true }
}

// SkipAccessUpdate makes a successful Get leave AccessedAt and AccessCount
// untouched, so the read does not influence LRU ordering.
func SkipAccessUpdate() GetOption {
	return func(o *getOptions) { o.skipAccess = true }
}
