package upstream

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	ProviderOpenAI = "openai"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultSearchTimeout = 15 * time.Second
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIClient issues the product search completion.
type OpenAIClient struct {
	client   openai.Client
	apiKey   string
	baseURL  string
	model    string
	timeout  time.Duration
	throttle *rate.Limiter
	logger   *logrus.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, throttle *rate.Limiter, logger *logrus.Logger) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSearchTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	// Retries are disabled: a failed search is reported to the caller as-is.
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(0),
	)

	return &OpenAIClient{
		client:   client,
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		throttle: throttle,
		logger:   logger,
	}
}

// Configured reports whether an API key is present.
func (c *OpenAIClient) Configured() bool { return c.apiKey != "" }

func (c *OpenAIClient) BaseURL() string { return c.baseURL }

func (c *OpenAIClient) Model() string { return c.model }

// SearchProducts asks for a JSON object describing products matching query
// and returns the raw completion text.
func (c *OpenAIClient) SearchProducts(ctx context.Context, query, priceFilter string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(searchSystemPrompt),
			openai.UserMessage(BuildSearchPrompt(query, priceFilter)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.7),
	}
	return c.complete(ctx, params)
}

// Ping performs a minimal completion to verify credentials and connectivity.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Reply with the single word: pong"),
		},
		MaxTokens: openai.Int(5),
	}
	_, err := c.complete(ctx, params)
	return err
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := wait(ctx, c.throttle, ProviderOpenAI); err != nil {
		return "", err
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)

	if err != nil {
		upErr := c.classify(ctx, err)
		c.logger.WithFields(logrus.Fields{
			"provider":   ProviderOpenAI,
			"kind":       upErr.Kind.String(),
			"status":     upErr.StatusCode,
			"latency_ms": latency.Milliseconds(),
		}).WithError(err).Warn("OpenAI request failed")
		return "", upErr
	}

	c.logger.WithFields(logrus.Fields{
		"provider":   ProviderOpenAI,
		"model":      completion.Model,
		"choices":    len(completion.Choices),
		"latency_ms": latency.Milliseconds(),
	}).Debug("OpenAI completion received")

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", &Error{Provider: ProviderOpenAI, Kind: KindEmpty, Message: "completion contained no content"}
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) classify(ctx context.Context, err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &Error{
			Provider:   ProviderOpenAI,
			Kind:       KindRejected,
			StatusCode: apiErr.StatusCode,
			Message:    msg,
			Cause:      err,
		}
	}
	if isTransport(ctx, err) {
		return transportError(ctx, ProviderOpenAI, err)
	}
	// The provider answered but the body could not be decoded.
	return &Error{Provider: ProviderOpenAI, Kind: KindEmpty, Message: "unreadable response", Cause: err}
}
