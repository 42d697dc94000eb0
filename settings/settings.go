// Package settings loads autotranslate configuration from a file, the
// environment and built-in defaults.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "AUTOTRANSLATE"

// Settings is the full configuration of a translation session.
type Settings struct {
	TargetLanguage string        `mapstructure:"target_language"`
	CharacterLimit int           `mapstructure:"character_limit"`
	BatchCharLimit int           `mapstructure:"batch_char_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TextUnits      bool          `mapstructure:"text_units"`
	LogLevel       string        `mapstructure:"log_level"`

	API       API       `mapstructure:"api"`
	Retry     Retry     `mapstructure:"retry"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Cache     Cache     `mapstructure:"cache"`
	Server    Server    `mapstructure:"server"`
}

// API holds the chat completion endpoint settings.
type API struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Key         string  `mapstructure:"key"`
	Model       string  `mapstructure:"model"`
	Role        string  `mapstructure:"role"`
	Temperature float32 `mapstructure:"temperature"`
	JSONMode    bool    `mapstructure:"json_mode"`
}

type Retry struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

type RateLimit struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	BurstSize         int `mapstructure:"burst_size"`
}

// Cache selects the translation cache. An empty RedisURL means in-memory.
type Cache struct {
	Enabled   bool   `mapstructure:"enabled"`
	RedisURL  string `mapstructure:"redis_url"`
	TTL       int    `mapstructure:"ttl"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target_language", "english")
	v.SetDefault("character_limit", autotranslate.DefaultCharacterLimit)
	v.SetDefault("batch_char_limit", autotranslate.DefaultBatchCharLimit)
	v.SetDefault("request_timeout", autotranslate.DefaultRequestTimeout)
	v.SetDefault("text_units", false)
	v.SetDefault("log_level", "info")

	v.SetDefault("api.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("api.key", "")
	v.SetDefault("api.model", "gpt-3.5-turbo")
	v.SetDefault("api.role", "user")
	v.SetDefault("api.temperature", 0.7)
	v.SetDefault("api.json_mode", false)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay", time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)

	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst_size", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 3600)
	v.SetDefault("cache.key_prefix", "autotranslate:")

	v.SetDefault("server.addr", ":8080")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The key also comes from the variable every OpenAI client reads.
	_ = v.BindEnv("api.key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY")
	return v
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	v := viper.New()
	setDefaults(v)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		panic(fmt.Sprintf("settings: invalid defaults: %v", err))
	}
	return &s
}

// Load reads settings from path, or from autotranslate.yaml in the working
// directory or the user config directory when path is empty. Environment
// variables override the file; a missing file is only an error when path was
// given explicitly.
func Load(path string) (*Settings, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("autotranslate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "autotranslate"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports the first invalid setting.
func (s *Settings) Validate() error {
	switch {
	case s.CharacterLimit <= 0:
		return fmt.Errorf("character_limit must be positive, got %d", s.CharacterLimit)
	case s.BatchCharLimit <= 0:
		return fmt.Errorf("batch_char_limit must be positive, got %d", s.BatchCharLimit)
	case s.RequestTimeout <= 0:
		return fmt.Errorf("request_timeout must be positive, got %v", s.RequestTimeout)
	case s.API.Temperature < 0 || s.API.Temperature > 2:
		return fmt.Errorf("api.temperature must be within [0, 2], got %v", s.API.Temperature)
	case s.Retry.MaxRetries < 0:
		return fmt.Errorf("retry.max_retries must not be negative, got %d", s.Retry.MaxRetries)
	case s.RateLimit.RequestsPerMinute < 0:
		return fmt.Errorf("rate_limit.requests_per_minute must not be negative, got %d", s.RateLimit.RequestsPerMinute)
	}

	u, err := url.Parse(s.API.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.endpoint must be an http(s) URL, got %q", s.API.Endpoint)
	}
	return nil
}

// APIConfig returns the endpoint settings in the form commands carry them.
func (s *Settings) APIConfig() autotranslate.APIConfig {
	temperature := s.API.Temperature
	return autotranslate.APIConfig{
		Endpoint:    s.API.Endpoint,
		Key:         s.API.Key,
		Model:       s.API.Model,
		Role:        s.API.Role,
		Temperature: &temperature,
	}
}

func (s *Settings) RetryConfig() autotranslate.RetryConfig {
	return autotranslate.RetryConfig{
		MaxRetries: s.Retry.MaxRetries,
		BaseDelay:  s.Retry.BaseDelay,
		MaxDelay:   s.Retry.MaxDelay,
	}
}

func (s *Settings) RateLimitConfig() autotranslate.RateLimitConfig {
	return autotranslate.RateLimitConfig{
		RequestsPerMinute: s.RateLimit.RequestsPerMinute,
		BurstSize:         s.RateLimit.BurstSize,
	}
}

// PageOptions returns the page options these settings imply.
func (s *Settings) PageOptions() []autotranslate.PageOption {
	opts := []autotranslate.PageOption{
		autotranslate.WithBatchCharLimit(s.BatchCharLimit),
		autotranslate.WithRequestTimeout(s.RequestTimeout),
	}
	if s.TextUnits {
		opts = append(opts, autotranslate.WithTextUnits())
	}
	return opts
}
