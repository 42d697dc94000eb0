package autotranslate

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent computes the SHA-256 hash of unit content. Whitespace is part of
// the content and is not trimmed.
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a cache key from a content hash, unit kind, target language and model.
func CacheKey(hash string, kind UnitKind, targetLang, model string) string {
	return hash + ":" + string(kind) + ":" + NormalizeLocale(targetLang) + ":" + model
}
