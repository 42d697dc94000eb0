// Package provider defines batch translators backed by language models.
package provider

import "github.com/ZaguanLabs/autotranslate"

// BatchTranslator is an alias to the main package interface for convenience.
type BatchTranslator = autotranslate.BatchTranslator

// BatchRequest is an alias to the main package type.
type BatchRequest = autotranslate.BatchRequest
