package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Ayash-Bera/shopgate/internal/models"
)

const (
	ProviderAnthropic = "anthropic"

	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
	DefaultChatTimeout      = 30 * time.Second
	anthropicVersion        = "2023-06-01"
	defaultMaxTokens        = 1024
)

type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Content    []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnthropicClient forwards chat conversations to the Messages API.
type AnthropicClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	timeout    time.Duration
	httpClient *http.Client
	throttle   *rate.Limiter
	logger     *logrus.Logger
}

func NewAnthropicClient(cfg AnthropicConfig, throttle *rate.Limiter, logger *logrus.Logger) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultChatTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &AnthropicClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		throttle:   throttle,
		logger:     logger,
	}
}

// Configured reports whether an API key is present.
func (c *AnthropicClient) Configured() bool { return c.apiKey != "" }

func (c *AnthropicClient) Model() string { return c.model }

// Chat sends the conversation and returns the text of the first content block.
// System messages are folded into the top-level system prompt.
func (c *AnthropicClient) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	req := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  make([]anthropicMessage, 0, len(messages)),
	}

	var system []string
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := wait(ctx, c.throttle, ProviderAnthropic); err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := c.makeRequest(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &Error{Provider: ProviderAnthropic, Kind: KindEmpty, Message: "response contained no text"}
}

func (c *AnthropicClient) makeRequest(ctx context.Context, endpoint string, payload interface{}, result interface{}) error {
	url := c.baseURL + endpoint

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"provider":     ProviderAnthropic,
		"url":          url,
		"payload_size": len(jsonData),
	}).Debug("Making Anthropic API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		upErr := transportError(ctx, ProviderAnthropic, err)
		c.logger.WithFields(logrus.Fields{
			"provider":   ProviderAnthropic,
			"kind":       upErr.Kind.String(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Warn("Anthropic request failed")
		return upErr
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, ProviderAnthropic, err)
	}

	c.logger.WithFields(logrus.Fields{
		"provider":      ProviderAnthropic,
		"status_code":   resp.StatusCode,
		"response_size": len(responseBody),
		"latency_ms":    time.Since(start).Milliseconds(),
	}).Debug("Anthropic API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var body anthropicErrorBody
		if json.Unmarshal(responseBody, &body) == nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		return &Error{Provider: ProviderAnthropic, Kind: KindRejected, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(responseBody, result); err != nil {
		return &Error{Provider: ProviderAnthropic, Kind: KindEmpty, Message: "unreadable response", Cause: err}
	}
	return nil
}
