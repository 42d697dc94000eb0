package autotranslate

import (
	"fmt"
	"sync/atomic"
	"testing"
)

// countingCache counts lookups.
type countingCache struct {
	*mapCache
	gets int64
}

func (c *countingCache) Get(key string) (string, bool) {
	atomic.AddInt64(&c.gets, 1)
	return c.mapCache.Get(key)
}

func TestParallelCacheLookup(t *testing.T) {
	cache := &countingCache{mapCache: newMapCache()}
	var keys []string
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		keys = append(keys, key)
		if i%2 == 0 {
			cache.entries[key] = fmt.Sprintf("value-%d", i)
		}
	}
	// Duplicates are looked up once.
	keys = append(keys, "key-0", "key-1")

	hits := ParallelCacheLookup(cache, keys)

	if len(hits) != 5 {
		t.Errorf("expected 5 hits, got %d", len(hits))
	}
	if hits["key-4"] != "value-4" {
		t.Errorf("hits[key-4] = %q", hits["key-4"])
	}
	if _, ok := hits["key-3"]; ok {
		t.Error("misses should not appear in hits")
	}
	if cache.gets != 10 {
		t.Errorf("expected 10 lookups, got %d", cache.gets)
	}
}

func TestParallelCacheLookup_Small(t *testing.T) {
	cache := newMapCache()
	cache.entries["a"] = "A"

	hits := ParallelCacheLookup(cache, []string{"a", "b"})
	if len(hits) != 1 || hits["a"] != "A" {
		t.Errorf("unexpected hits: %v", hits)
	}

	if hits := ParallelCacheLookup(nil, []string{"a"}); len(hits) != 0 {
		t.Error("nil cache should give no hits")
	}
}
