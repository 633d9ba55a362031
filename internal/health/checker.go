package health

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/config"
	"github.com/Ayash-Bera/shopgate/internal/upstream"
)

const probeTimeout = 10 * time.Second

// Pinger is a provider that can verify its own connectivity.
type Pinger interface {
	Configured() bool
	Ping(ctx context.Context) error
}

// ServiceHealth represents the result of a single connectivity probe.
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

type ServerInfo struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Port        string `json:"port"`
	Uptime      string `json:"uptime"`
	GoVersion   string `json:"goVersion"`
}

type ProviderInfo struct {
	Configured bool   `json:"configured"`
	BaseURL    string `json:"baseUrl"`
	Model      string `json:"model"`
	KeyPreview string `json:"keyPreview,omitempty"`
}

// Report is the body of GET /api/diagnose.
type Report struct {
	Server       ServerInfo    `json:"server"`
	SearchMode   string        `json:"searchMode"`
	OpenAI       ProviderInfo  `json:"openai"`
	Anthropic    ProviderInfo  `json:"anthropic"`
	Connectivity ServiceHealth `json:"connectivity"`
}

// Diagnoser echoes the effective configuration and probes the search provider.
type Diagnoser struct {
	cfg       *config.Config
	search    Pinger
	logger    *logrus.Logger
	startedAt time.Time
}

func NewDiagnoser(cfg *config.Config, search Pinger, logger *logrus.Logger) *Diagnoser {
	return &Diagnoser{
		cfg:       cfg,
		search:    search,
		logger:    logger,
		startedAt: time.Now(),
	}
}

func (d *Diagnoser) Uptime() time.Duration {
	return time.Since(d.startedAt).Round(time.Second)
}

// Run builds the diagnostics report. It performs at most one upstream call.
func (d *Diagnoser) Run(ctx context.Context) Report {
	return Report{
		Server: ServerInfo{
			Status:      "ok",
			Environment: d.cfg.Server.Environment,
			Port:        d.cfg.Server.Port,
			Uptime:      d.Uptime().String(),
			GoVersion:   runtime.Version(),
		},
		SearchMode: d.cfg.Search.Mode,
		OpenAI: ProviderInfo{
			Configured: d.cfg.OpenAIConfigured(),
			BaseURL:    d.cfg.OpenAI.BaseURL,
			Model:      d.cfg.OpenAI.Model,
			KeyPreview: maskKey(d.cfg.OpenAI.APIKey),
		},
		Anthropic: ProviderInfo{
			Configured: d.cfg.AnthropicConfigured(),
			BaseURL:    d.cfg.Anthropic.BaseURL,
			Model:      d.cfg.Anthropic.Model,
			KeyPreview: maskKey(d.cfg.Anthropic.APIKey),
		},
		Connectivity: d.CheckSearchProvider(ctx),
	}
}

// CheckSearchProvider probes the search provider with a minimal completion.
func (d *Diagnoser) CheckSearchProvider(ctx context.Context) ServiceHealth {
	result := ServiceHealth{
		Name:        upstream.ProviderOpenAI,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	if d.search == nil || !d.search.Configured() {
		result.Status = "skipped"
		result.Error = "OpenAI API key not configured"
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := d.search.Ping(ctx)
	result.ResponseTime = int(time.Since(start).Milliseconds())

	if err != nil {
		result.Status = "unhealthy"
		result.Error = describe(err)
		d.logger.WithError(err).Warn("Search provider connectivity check failed")
		return result
	}

	result.Status = "healthy"
	return result
}

// describe reports the failure class without upstream payloads.
func describe(err error) string {
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		if upErr.StatusCode > 0 {
			return fmt.Sprintf("%s: HTTP %d", upErr.Kind, upErr.StatusCode)
		}
		return upErr.Kind.String() + ": " + upErr.Message
	}
	return "unexpected error"
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
