package autotranslate

import "context"

// BatchTranslator is the interface for model backends. It returns the
// translated content keyed by the same ids as the request batch; ids missing
// from the result are left untranslated.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error)
}

// BatchRequest contains the parameters for translating one batch.
type BatchRequest struct {
	Batch          *TranslationBatch
	TargetLanguage string
	Kind           UnitKind
	Index          int // Position of the batch in dispatch order
}

// TranslatorFunc adapts a function to BatchTranslator.
type TranslatorFunc func(ctx context.Context, req BatchRequest) (map[string]string, error)

func (f TranslatorFunc) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	return f(ctx, req)
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
