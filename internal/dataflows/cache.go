package dataflows

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotCache persists one RecordSet per (source, time key[, symbol])
// triple as a JSON file. There is no TTL and no eviction: within a run a
// key is written at most once and read back unchanged; freshness is
// bounded by the time-key granularity, not by expiry. Every I/O problem
// degrades to a miss so the caller simply re-fetches.
type SnapshotCache struct {
	baseDir string
	enabled bool
}

func NewSnapshotCache(baseDir string, enabled bool) *SnapshotCache {
	return &SnapshotCache{baseDir: baseDir, enabled: enabled}
}

// TimeKey derives the cache-addressing string from a trigger time:
// "2024-08-19 09:00:00" becomes "2024-08-19_09-00-00". The mapping is
// deterministic and collision-free across distinct trigger times.
func TimeKey(triggerTime string) string {
	key := strings.ReplaceAll(triggerTime, " ", "_")
	return strings.ReplaceAll(key, ":", "-")
}

func (c *SnapshotCache) filePath(source, timeKey, symbol string) string {
	name := timeKey
	if symbol != "" {
		name = timeKey + "_" + symbol
	}
	return filepath.Join(c.baseDir, source, name+".json")
}

// Get returns the cached record set for the key, if any. Read or decode
// failures are treated as a miss, never as an error.
func (c *SnapshotCache) Get(source, timeKey, symbol string) (RecordSet, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.filePath(source, timeKey, symbol))
	if err != nil {
		return nil, false
	}

	var rs RecordSet
	if err := json.Unmarshal(data, &rs); err != nil {
		log.Printf("[cache] corrupt cache entry %s/%s: %v", source, timeKey, err)
		return nil, false
	}
	return rs, true
}

// Put durably stores the record set for the key. Duplicate writes for the
// same key are idempotent; payloads for one key are identical by
// construction, so last-writer-wins is acceptable. Write failures are
// logged and swallowed.
func (c *SnapshotCache) Put(source, timeKey, symbol string, rs RecordSet) {
	if !c.enabled {
		return
	}

	path := c.filePath(source, timeKey, symbol)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[cache] create cache dir for %s: %v", source, err)
		return
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		log.Printf("[cache] marshal cache entry %s/%s: %v", source, timeKey, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[cache] write cache entry %s/%s: %v", source, timeKey, err)
	}
}
