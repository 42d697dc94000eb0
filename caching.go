package autotranslate

import "context"

// CachingTranslator answers batch entries from a cache and sends only the
// misses on. Identical content (same markup, same whitespace) translated to
// the same language by the same model is requested once. Restoration uses
// each unit's own placeholder table, so a cached translation is safe to reuse
// for elements whose attributes differ.
type CachingTranslator struct {
	next  BatchTranslator
	cache TranslationCache
	model string
}

// NewCachingTranslator creates a caching translator. The model name becomes
// part of every cache key.
func NewCachingTranslator(next BatchTranslator, cache TranslationCache, model string) *CachingTranslator {
	return &CachingTranslator{
		next:  next,
		cache: cache,
		model: model,
	}
}

// TranslateBatch implements BatchTranslator.
func (t *CachingTranslator) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	if t.cache == nil || req.Batch == nil {
		return t.next.TranslateBatch(ctx, req)
	}

	ids := req.Batch.IDs()
	keys := make(map[string]string, len(ids))
	all := make([]string, 0, len(ids))
	for _, id := range ids {
		content, _ := req.Batch.Content(id)
		key := CacheKey(HashContent(content), req.Kind, req.TargetLanguage, t.model)
		keys[id] = key
		all = append(all, key)
	}

	hits := ParallelCacheLookup(t.cache, all)
	result := make(map[string]string, len(ids))
	misses := NewTranslationBatch()

	for _, id := range ids {
		if cached, ok := hits[keys[id]]; ok {
			result[id] = cached
			continue
		}
		content, _ := req.Batch.Content(id)
		misses.Add(id, content)
	}

	if misses.Len() == 0 {
		return result, nil
	}

	missReq := req
	missReq.Batch = misses
	translated, err := t.next.TranslateBatch(ctx, missReq)
	if err != nil {
		return nil, err
	}

	for id, text := range translated {
		if !misses.Has(id) {
			continue
		}
		key := keys[id]
		result[id] = text
		_ = t.cache.Set(key, text) // Ignore cache set errors
	}

	return result, nil
}

var _ BatchTranslator = (*CachingTranslator)(nil)
