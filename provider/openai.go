package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = float32(0.7)
	DefaultRole        = openai.ChatMessageRoleUser
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
)

// OpenAIProvider implements BatchTranslator using a chat completion endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	role        string
	jsonMode    bool
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string       // Bearer token sent with every request
	Model       string       // Model to use (default: "gpt-3.5-turbo")
	Temperature *float32     // Sampling temperature; nil means 0.7
	Endpoint    string       // Chat completions URL or API base URL (default: OpenAI)
	Role        string       // Role of the prompt message (default: "user")
	JSONMode    bool         // Ask the endpoint for a JSON object response
	HTTPClient  *http.Client // Custom HTTP client (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if base := baseURL(cfg.Endpoint); base != "" {
		config.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	role := cfg.Role
	if role == "" {
		role = DefaultRole
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		role:        role,
		jsonMode:    cfg.JSONMode,
	}
}

// NewOpenAIProviderFromAPIConfig creates a provider from the endpoint
// settings a client sends along with a translate command.
func NewOpenAIProviderFromAPIConfig(c autotranslate.APIConfig) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:      c.Key,
		Model:       c.Model,
		Temperature: c.Temperature,
		Endpoint:    c.Endpoint,
		Role:        c.Role,
	})
}

// Model returns the model requests are sent to.
func (p *OpenAIProvider) Model() string { return p.model }

// baseURL turns a full chat completions URL into the base URL the client
// appends its own path to.
func baseURL(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	return strings.TrimSuffix(endpoint, "/chat/completions")
}

// TranslateBatch sends one batch as a single prompt and returns the
// translation table the model answered with.
func (p *OpenAIProvider) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	if req.Batch == nil || req.Batch.Len() == 0 {
		return map[string]string{}, nil
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, &autotranslate.TransportError{
			Message: "failed to encode batch",
			Cause:   err,
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: p.role, Content: prompt},
		},
		Temperature: wireTemperature(p.temperature),
	}
	if p.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, &autotranslate.TransportError{
			Message:   "chat completion request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil && isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &autotranslate.ProtocolError{Reason: "response has no choices"}
	}

	choice := resp.Choices[0]
	if choice.FinishReason != openai.FinishReasonStop {
		return nil, &autotranslate.ProtocolError{
			Reason:       "response did not finish normally",
			FinishReason: string(choice.FinishReason),
		}
	}

	return parseResponse(choice.Message.Content)
}

const elementPrompt = `Please translate the values in the json object provided below from whatever the
original language is into the following language: %s.

Each of the values is the content of an html element, which may or may not contain
nested html elements. Return the response as a json object which maps each key
in the original json object to the corresponding translation, with the context
of neighboring values taken into account. Please do not modify the attributes of
html tags.

Requirements:
    - Any html anchors encountered need to be replicated in the translation,
    with the new hyperlink enclosing a stretch of text equivalent to the text
    enclosed by the original hyperlink.
    - Any href and src attributes encountered in html tags need to be reproduced
    as-is; they should NOT be translated.
    - Any whitespace and other non-lexical characters at the beginning and ending
    of every content string must be preserved in the translated content string.

"""
%s
"""`

const textPrompt = `Please translate the json object provided below from whatever the original
language is into the following language: %s.

Return the response as a json object which maps each key in the original json
object to the corresponding translation, with the context of neighboring values
taken into account.

Keep in mind that all of this text belongs to a single webpage. Translate each
unit so that it respects the original meaning and the sentence grammar of the
target language, as many of these units are the anchor text of hyperlinks.

Preserve the whitespace and extraneous characters of the original strings
whenever possible.

"""
%s
"""`

func buildPrompt(req BatchRequest) (string, error) {
	data, err := json.Marshal(req.Batch)
	if err != nil {
		return "", err
	}

	template := elementPrompt
	if req.Kind == autotranslate.KindText {
		template = textPrompt
	}
	return fmt.Sprintf(template, autotranslate.GetLanguageName(req.TargetLanguage), data), nil
}

// wireTemperature keeps an explicit zero from being dropped by the request's
// omitempty encoding.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// parseResponse decodes the model's translation table. Models sometimes wrap
// the object in a Markdown code block.
func parseResponse(content string) (map[string]string, error) {
	content = stripCodeFence(content)

	var table map[string]interface{}
	if err := json.Unmarshal([]byte(content), &table); err != nil {
		return nil, &autotranslate.ProtocolError{
			Reason: "response is not a JSON object",
			Cause:  err,
		}
	}
	if table == nil {
		return nil, &autotranslate.ProtocolError{Reason: "response is not a JSON object"}
	}

	result := make(map[string]string, len(table))
	for id, v := range table {
		s, ok := v.(string)
		if !ok {
			return nil, &autotranslate.ProtocolError{
				Reason: fmt.Sprintf("response value for %s is not a string", id),
			}
		}
		result[id] = s
	}
	return result, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"eof",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements BatchTranslator
var _ BatchTranslator = (*OpenAIProvider)(nil)
