package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SearchModeLive = "live"
	SearchModeMock = "mock"
)

type Config struct {
	Server struct {
		Port           string
		Environment    string
		LogLevel       string
		CORSOrigins    []string
		TrustedProxies []string
	}
	OpenAI struct {
		APIKey  string
		BaseURL string
		Model   string
	}
	Anthropic struct {
		APIKey    string
		BaseURL   string
		Model     string
		MaxTokens int
	}
	Search struct {
		Mode    string
		Timeout time.Duration
	}
	Chat struct {
		Timeout time.Duration
	}
	RateLimit struct {
		Points   int
		Duration time.Duration
	}
	Upstream struct {
		RPS float64
	}
}

// envBindings maps config keys to the environment variables that set them.
// Several names are accepted where deployments disagree.
var envBindings = map[string][]string{
	"server.port":            {"PORT"},
	"server.environment":     {"APP_ENV", "NODE_ENV"},
	"server.log_level":       {"LOG_LEVEL"},
	"server.cors_origins":    {"CORS_ORIGINS"},
	"server.trusted_proxies": {"TRUSTED_PROXIES"},
	"openai.api_key":         {"OPENAI_API_KEY"},
	"openai.base_url":        {"OPENAI_BASE_URL", "OPENAI_API_BASE"},
	"openai.model":           {"OPENAI_MODEL"},
	"anthropic.api_key":      {"ANTHROPIC_API_KEY"},
	"anthropic.base_url":     {"ANTHROPIC_BASE_URL"},
	"anthropic.model":        {"ANTHROPIC_MODEL"},
	"anthropic.max_tokens":   {"ANTHROPIC_MAX_TOKENS"},
	"search.mode":            {"SEARCH_MODE"},
	"search.timeout":         {"SEARCH_TIMEOUT"},
	"chat.timeout":           {"CHAT_TIMEOUT"},
	"rate_limit.points":      {"RATE_LIMIT_POINTS"},
	"rate_limit.duration":    {"RATE_LIMIT_DURATION"},
	"upstream.rps":           {"UPSTREAM_RPS"},
}

// Load reads config.yaml from the working directory if present, then applies
// environment overrides. Missing API keys are not an error.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("search.mode", SearchModeLive)
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("chat.timeout", "30s")
	v.SetDefault("rate_limit.points", 10)
	v.SetDefault("rate_limit.duration", "1s")
	v.SetDefault("upstream.rps", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.Environment = strings.ToLower(v.GetString("server.environment"))
	config.Server.LogLevel = strings.ToLower(v.GetString("server.log_level"))
	config.Server.CORSOrigins = splitList(v.GetString("server.cors_origins"))
	config.Server.TrustedProxies = splitList(v.GetString("server.trusted_proxies"))

	config.OpenAI.APIKey = strings.TrimSpace(v.GetString("openai.api_key"))
	config.OpenAI.BaseURL = v.GetString("openai.base_url")
	config.OpenAI.Model = v.GetString("openai.model")

	config.Anthropic.APIKey = strings.TrimSpace(v.GetString("anthropic.api_key"))
	config.Anthropic.BaseURL = v.GetString("anthropic.base_url")
	config.Anthropic.Model = v.GetString("anthropic.model")
	config.Anthropic.MaxTokens = v.GetInt("anthropic.max_tokens")

	config.Search.Mode = strings.ToLower(v.GetString("search.mode"))
	config.Search.Timeout = v.GetDuration("search.timeout")
	config.Chat.Timeout = v.GetDuration("chat.timeout")

	config.RateLimit.Points = v.GetInt("rate_limit.points")
	config.RateLimit.Duration = v.GetDuration("rate_limit.duration")

	config.Upstream.RPS = v.GetFloat64("upstream.rps")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.Search.Mode != SearchModeLive && c.Search.Mode != SearchModeMock {
		return fmt.Errorf("SEARCH_MODE must be %q or %q, got %q", SearchModeLive, SearchModeMock, c.Search.Mode)
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be positive")
	}
	if c.RateLimit.Points <= 0 {
		return fmt.Errorf("RATE_LIMIT_POINTS must be positive")
	}
	if c.RateLimit.Duration <= 0 {
		return fmt.Errorf("RATE_LIMIT_DURATION must be positive")
	}
	if c.Upstream.RPS < 0 {
		return fmt.Errorf("UPSTREAM_RPS must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) OpenAIConfigured() bool {
	return c.OpenAI.APIKey != ""
}

func (c *Config) AnthropicConfigured() bool {
	return c.Anthropic.APIKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
