// Package cache provides translation caching implementations.
package cache

import "github.com/ZaguanLabs/autotranslate"

// TranslationCache is an alias to the main package interface for convenience.
// Keys are built with autotranslate.CacheKey.
type TranslationCache = autotranslate.TranslationCache

// ExportableCache is a cache whose contents can be listed.
type ExportableCache interface {
	TranslationCache
	// Keys returns all live keys in the cache.
	Keys() ([]string, error)
}
