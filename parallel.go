package autotranslate

import "sync"

// parallelLookupThreshold is the number of distinct keys from which cache
// lookups run concurrently. Remote caches pay a round trip per key.
const parallelLookupThreshold = 5

// ParallelCacheLookup looks up keys concurrently and returns the hits keyed
// by cache key. Duplicate keys are looked up once.
func ParallelCacheLookup(cache TranslationCache, keys []string) map[string]string {
	hits := make(map[string]string)
	if cache == nil || len(keys) == 0 {
		return hits
	}

	unique := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		unique[k] = struct{}{}
	}

	if len(unique) < parallelLookupThreshold {
		for k := range unique {
			if v, ok := cache.Get(k); ok {
				hits[k] = v
			}
		}
		return hits
	}

	type lookupResult struct {
		key   string
		value string
		found bool
	}

	results := make(chan lookupResult, len(unique))
	var wg sync.WaitGroup

	for key := range unique {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			v, ok := cache.Get(k)
			results <- lookupResult{key: k, value: v, found: ok}
		}(key)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.found {
			hits[r.key] = r.value
		}
	}
	return hits
}
