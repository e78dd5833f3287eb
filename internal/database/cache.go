package database

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/metrics"
)

// DefaultCacheTTL is the freshness window used when a caller passes none.
const DefaultCacheTTL = 60 * time.Second

// CacheStats is a point-in-time view of the read cache counters.
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type cacheEntry struct {
	table    *Table
	storedAt time.Time
}

// QueryCache is a process-local TTL cache of read results keyed by query
// text and parameters. It is safe for concurrent use.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64
	// gen advances on every invalidation. A read that started under an
	// older generation may predate a committed write and is not stored.
	gen    uint64
	clock  clock.Clock
	logger *slog.Logger
}

func NewQueryCache(clk clock.Clock, logger *slog.Logger) *QueryCache {
	if clk == nil {
		clk = clock.WallClock
	}
	return &QueryCache{
		entries: make(map[string]cacheEntry),
		clock:   clk,
		logger:  logger,
	}
}

// cacheKey renders query and parameters into one string. Parameters are
// rendered with their Go types so 1 and "1" are distinct.
func cacheKey(query string, args []any) string {
	return fmt.Sprintf("%s_%#v", query, args)
}

// get returns a copy of the entry for key if it is younger than ttl.
func (c *QueryCache) get(key string, ttl time.Duration) (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.clock.Now().Sub(entry.storedAt) < ttl {
		c.hits++
		metrics.QueryCacheLookupsTotal.WithLabelValues("hit").Inc()
		return entry.table.Clone(), true
	}

	c.misses++
	metrics.QueryCacheLookupsTotal.WithLabelValues("miss").Inc()
	return nil, false
}

// generation returns the invalidation counter to pass to putIfCurrent.
func (c *QueryCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// put stores table under key and sweeps entries older than twice ttl.
func (c *QueryCache) put(key string, table *Table, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, table, ttl)
}

// putIfCurrent stores table only if no invalidation happened since gen was
// read. It reports whether the table was stored.
func (c *QueryCache) putIfCurrent(key string, table *Table, ttl time.Duration, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		c.logger.Debug("discarded read overlapping a write")
		return false
	}
	c.store(key, table, ttl)
	return true
}

func (c *QueryCache) store(key string, table *Table, ttl time.Duration) {
	now := c.clock.Now()
	c.entries[key] = cacheEntry{table: table.Clone(), storedAt: now}

	removed := 0
	for k, entry := range c.entries {
		if now.Sub(entry.storedAt) > 2*ttl {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("swept stale cache entries", slog.Int("removed", removed))
	}
	metrics.QueryCacheEntries.Set(float64(len(c.entries)))
}

// InvalidateTable purges every entry whose key contains name,
// case-insensitively. Returns the number of purged entries.
func (c *QueryCache) InvalidateTable(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	removed := 0
	for k := range c.entries {
		if strings.Contains(strings.ToLower(k), name) {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		metrics.QueryCacheInvalidationsTotal.Add(float64(removed))
		metrics.QueryCacheEntries.Set(float64(len(c.entries)))
		c.logger.Debug("cache invalidated for table",
			slog.String("table", name),
			slog.Int("removed", removed),
		)
	}
	return removed
}

// InvalidateForStatement purges entries touching the table a mutating
// statement targets. Statements it cannot parse leave the cache untouched.
func (c *QueryCache) InvalidateForStatement(stmt string) int {
	table := TargetTable(stmt)
	if table == "" {
		return 0
	}
	return c.InvalidateTable(table)
}

// InvalidateAll empties the cache. Counters are kept.
func (c *QueryCache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	removed := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	metrics.QueryCacheEntries.Set(0)
	return removed
}

func (c *QueryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// TargetTable returns the lowercased token following UPDATE, INSERT INTO
// or DELETE FROM, or "" when the statement has none. INSERT OR IGNORE INTO
// and INSERT OR REPLACE INTO are recognised. Joins, CTEs and quoted
// identifiers are not understood.
func TargetTable(stmt string) string {
	words := strings.Fields(strings.ToLower(stmt))
	for i, w := range words {
		var next int
		switch w {
		case "update":
			next = i + 1
			if next+1 < len(words) && words[next] == "or" {
				next += 2
			}
		case "into":
			if !containsWord(words[:i], "insert") {
				continue
			}
			next = i + 1
		case "from":
			if i == 0 || words[i-1] != "delete" {
				continue
			}
			next = i + 1
		default:
			continue
		}
		if next >= len(words) {
			return ""
		}
		token := words[next]
		if idx := strings.IndexByte(token, '('); idx > 0 {
			token = token[:idx]
		}
		return strings.Trim(token, "()`\"[];")
	}
	return ""
}

func containsWord(words []string, target string) bool {
	for _, w := range words {
		if w == target {
			return true
		}
	}
	return false
}
