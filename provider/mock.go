package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockTranslator is a mock batch translator for testing. It is safe for
// concurrent use.
type MockTranslator struct {
	mu sync.Mutex

	Translations map[string]string // Map of source content to translation
	// FailOn, if set, is consulted before answering a request.
	FailOn func(req BatchRequest) error

	callCount   int
	lastRequest *BatchRequest
}

// NewMockTranslator creates a new mock translator with default translations.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Welcome to our site.": "Bienvenido a nuestro sitio.",
		},
	}
}

// TranslateBatch returns mock translations. Unknown content comes back
// bracketed.
func (m *MockTranslator) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	failOn := m.FailOn
	m.mu.Unlock()

	if failOn != nil {
		if err := failOn(req); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make(map[string]string, req.Batch.Len())
	for _, id := range req.Batch.IDs() {
		content, _ := req.Batch.Content(id)
		if translation, ok := m.Translations[content]; ok {
			results[id] = translation
		} else {
			results[id] = fmt.Sprintf("[%s]", content)
		}
	}

	return results, nil
}

// CallCount returns the number of requests received.
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockTranslator) LastRequest() *BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockTranslator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Verify MockTranslator implements BatchTranslator
var _ BatchTranslator = (*MockTranslator)(nil)
