package cache

import "time"

// Stats is a point-in-time snapshot computed by scanning the store.
type Stats struct {
	Entries     int       `json:"entries"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	HitRate     float64   `json:"hit_rate"`
	MemoryBytes int64     `json:"memory_bytes"`
	OldestEntry time.Time `json:"oldest_entry,omitempty"`
	NewestEntry time.Time `json:"newest_entry,omitempty"`
	Expired     int       `json:"expired"`
}

// SummaryStats aggregates across every namespace a Service owns.
type SummaryStats struct {
	Namespaces  int     `json:"namespaces"`
	Entries     int     `json:"entries"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	MemoryBytes int64   `json:"memory_bytes"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// estimateSize approximates the in-memory footprint of a cached value.
// It is a diagnostic heuristic, not an accounting mechanism; unknown types
// get a flat guess.
func estimateSize(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return int64(len(v))
	case []byte:
		return int64(len(v))
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int, uint, int64, uint64, float64, time.Time, time.Duration:
		return 8
	case []string:
		var size int64
		for _, s := range v {
			size += int64(len(s)) + 16
		}
		return size
	case map[string]struct{}:
		var size int64
		for k := range v {
			size += int64(len(k)) + 16
		}
		return size
	case map[string]interface{}:
		var size int64
		for k, val := range v {
			size += int64(len(k)) + estimateSize(val)
		}
		return size
	case []interface{}:
		var size int64
		for _, item := range v {
			size += estimateSize(item)
		}
		return size
	default:
		return 64
	}
}
