package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/sashabaranov/go-openai"
)

// fakeChatServer answers chat completion requests with a fixed choice and
// records the last request body.
type fakeChatServer struct {
	mu           sync.Mutex
	lastRequest  openai.ChatCompletionRequest
	lastAuth     string
	content      string
	finishReason openai.FinishReason
	status       int
	calls        int
}

func (f *fakeChatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastAuth = r.Header.Get("Authorization")

	if r.URL.Path != "/v1/chat/completions" {
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
		return
	}
	_ = json.NewDecoder(r.Body).Decode(&f.lastRequest)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream trouble","type":"server_error"}}`))
		return
	}

	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:    "chatcmpl-test",
		Model: "gpt-3.5-turbo",
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content},
			FinishReason: f.finishReason,
		}},
	})
}

func newTestProvider(t *testing.T, fake *fakeChatServer) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	return NewOpenAIProvider(OpenAIConfig{
		APIKey:   "test-api-key",
		Endpoint: server.URL + "/v1/chat/completions",
	})
}

func sampleRequest() BatchRequest {
	batch := autotranslate.NewTranslationBatch()
	batch.Add("element1", "Hello")
	batch.Add("element2", `Visit <a rid="0">home</a>`)
	return BatchRequest{Batch: batch, TargetLanguage: "es_ES", Kind: autotranslate.KindElement}
}

func TestOpenAIProvider_TranslateBatch(t *testing.T) {
	fake := &fakeChatServer{
		content:      `{"element1": "Hola", "element2": "Visita <a rid=\"0\">inicio</a>"}`,
		finishReason: openai.FinishReasonStop,
	}
	p := newTestProvider(t, fake)

	result, err := p.TranslateBatch(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}

	if result["element1"] != "Hola" || result["element2"] != `Visita <a rid="0">inicio</a>` {
		t.Errorf("unexpected translations: %v", result)
	}

	if fake.lastAuth != "Bearer test-api-key" {
		t.Errorf("unexpected auth header: %s", fake.lastAuth)
	}
	if fake.lastRequest.Model != DefaultModel {
		t.Errorf("expected default model, got %q", fake.lastRequest.Model)
	}
	if fake.lastRequest.Temperature != DefaultTemperature {
		t.Errorf("expected default temperature, got %v", fake.lastRequest.Temperature)
	}
	if len(fake.lastRequest.Messages) != 1 || fake.lastRequest.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected a single user message, got %+v", fake.lastRequest.Messages)
	}

	prompt := fake.lastRequest.Messages[0].Content
	for _, want := range []string{"Spanish (Spain)", `"element1":"Hello"`, "href and src", `"""`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q:\n%s", want, prompt)
		}
	}
}

func TestOpenAIProvider_FinishReasonLength(t *testing.T) {
	fake := &fakeChatServer{
		content:      `{"element1": "Ho`,
		finishReason: openai.FinishReasonLength,
	}
	p := newTestProvider(t, fake)

	_, err := p.TranslateBatch(context.Background(), sampleRequest())

	var protoErr *autotranslate.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if protoErr.FinishReason != "length" {
		t.Errorf("FinishReason = %q, want length", protoErr.FinishReason)
	}
	if autotranslate.IsRetryable(err) {
		t.Error("protocol errors must not be retryable")
	}
}

func TestOpenAIProvider_InvalidJSON(t *testing.T) {
	fake := &fakeChatServer{
		content:      "Sorry, I cannot translate that.",
		finishReason: openai.FinishReasonStop,
	}
	p := newTestProvider(t, fake)

	_, err := p.TranslateBatch(context.Background(), sampleRequest())

	var protoErr *autotranslate.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestOpenAIProvider_NonStringValues(t *testing.T) {
	fake := &fakeChatServer{
		content:      `{"element1": "Hola", "element2": null}`,
		finishReason: openai.FinishReasonStop,
	}
	p := newTestProvider(t, fake)

	result, err := p.TranslateBatch(context.Background(), sampleRequest())

	var protoErr *autotranslate.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if !strings.Contains(protoErr.Reason, "element2") {
		t.Errorf("reason should name the entry, got %q", protoErr.Reason)
	}
	if result != nil {
		t.Errorf("no entry of a rejected response should be returned, got %v", result)
	}
}

func float32Ptr(v float32) *float32 { return &v }

func TestOpenAIProvider_ZeroTemperature(t *testing.T) {
	fake := &fakeChatServer{content: `{"element1": "Hola"}`, finishReason: openai.FinishReasonStop}
	server := httptest.NewServer(fake)
	defer server.Close()

	p := NewOpenAIProvider(OpenAIConfig{
		APIKey:      "k",
		Endpoint:    server.URL + "/v1/chat/completions",
		Temperature: float32Ptr(0),
	})
	if p.temperature != 0 {
		t.Fatalf("explicit zero temperature replaced with %v", p.temperature)
	}

	batch := autotranslate.NewTranslationBatch()
	batch.Add("element1", "Hello")
	if _, err := p.TranslateBatch(context.Background(), BatchRequest{Batch: batch, TargetLanguage: "es_ES"}); err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if got := fake.lastRequest.Temperature; got <= 0 || got > 0.001 {
		t.Errorf("expected near-zero temperature on the wire, got %v", got)
	}
}

func TestOpenAIProvider_ServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, &fakeChatServer{status: tt.status})

			_, err := p.TranslateBatch(context.Background(), sampleRequest())

			var transportErr *autotranslate.TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if transportErr.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", transportErr.Retryable, tt.retryable)
			}
		})
	}
}

func TestOpenAIProvider_EmptyBatch(t *testing.T) {
	fake := &fakeChatServer{}
	p := newTestProvider(t, fake)

	result, err := p.TranslateBatch(context.Background(), BatchRequest{Batch: autotranslate.NewTranslationBatch()})
	if err != nil || len(result) != 0 {
		t.Errorf("empty batch should give an empty table, got %v, %v", result, err)
	}
	if fake.calls != 0 {
		t.Error("empty batch should not reach the endpoint")
	}
}

func TestOpenAIProviderFromAPIConfig(t *testing.T) {
	fake := &fakeChatServer{content: `{"text1": " hola "}`, finishReason: openai.FinishReasonStop}
	server := httptest.NewServer(fake)
	defer server.Close()

	p := NewOpenAIProviderFromAPIConfig(autotranslate.APIConfig{
		Endpoint:    server.URL + "/v1/chat/completions/",
		Key:         "k",
		Model:       "gpt-4o",
		Role:        "system",
		Temperature: float32Ptr(0.2),
	})

	batch := autotranslate.NewTranslationBatch()
	batch.Add("text1", " hello ")
	result, err := p.TranslateBatch(context.Background(),
		BatchRequest{Batch: batch, TargetLanguage: "Spanish", Kind: autotranslate.KindText})
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if result["text1"] != " hola " {
		t.Errorf("whitespace should survive, got %q", result["text1"])
	}
	if fake.lastRequest.Model != "gpt-4o" || fake.lastRequest.Messages[0].Role != "system" {
		t.Errorf("api config not applied: %+v", fake.lastRequest)
	}
	if !strings.Contains(fake.lastRequest.Messages[0].Content, "single webpage") {
		t.Error("text units should use the text prompt")
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
		wantErr bool
	}{
		{"plain object", `{"element1": "Hola"}`, map[string]string{"element1": "Hola"}, false},
		{"code fence", "```json\n{\"element1\": \"Hola\"}\n```", map[string]string{"element1": "Hola"}, false},
		{"non-string value", `{"element1": 42}`, nil, true},
		{"null value", `{"element1": "Hola", "element2": null}`, nil, true},
		{"object value", `{"element1": {"x": 1}}`, nil, true},
		{"null body", `null`, nil, true},
		{"empty object", `{}`, map[string]string{}, false},
		{"array", `["Hola"]`, nil, true},
		{"prose", `Here you go`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var protoErr *autotranslate.ProtocolError
				if !errors.As(err, &protoErr) {
					t.Errorf("expected ProtocolError, got %T", err)
				}
				if got != nil {
					t.Errorf("expected no translations, got %v", got)
				}
				return
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := map[string]string{
		"https://api.openai.com/v1/chat/completions": "https://api.openai.com/v1",
		"https://example.com/v1/":                    "https://example.com/v1",
		"":                                           "",
	}
	for in, want := range tests {
		if got := baseURL(in); got != want {
			t.Errorf("baseURL(%q) = %q, want %q", in, got, want)
		}
	}
}
