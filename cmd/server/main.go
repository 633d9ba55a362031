package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/api"
	"github.com/Ayash-Bera/shopgate/internal/config"
	"github.com/Ayash-Bera/shopgate/internal/health"
	"github.com/Ayash-Bera/shopgate/internal/metrics"
	"github.com/Ayash-Bera/shopgate/internal/ratelimit"
	"github.com/Ayash-Bera/shopgate/internal/services"
	"github.com/Ayash-Bera/shopgate/internal/upstream"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Server.Environment, cfg.Server.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.New(ratelimit.Config{
		Points:   cfg.RateLimit.Points,
		Duration: cfg.RateLimit.Duration,
	})
	limiter.StartJanitor(ctx, janitorInterval(cfg.RateLimit.Duration))

	throttle := upstream.NewThrottle(cfg.Upstream.RPS)
	openaiClient := upstream.NewOpenAIClient(upstream.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.Search.Timeout,
	}, throttle, logger)
	anthropicClient := upstream.NewAnthropicClient(upstream.AnthropicConfig{
		APIKey:    cfg.Anthropic.APIKey,
		BaseURL:   cfg.Anthropic.BaseURL,
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Timeout:   cfg.Chat.Timeout,
	}, throttle, logger)

	collector := metrics.NewCollector()

	router, err := api.NewRouter(api.Dependencies{
		Search:         services.NewSearchService(openaiClient, cfg.Search.Mode, collector, logger),
		Chat:           services.NewChatService(anthropicClient, collector, logger),
		Diagnostics:    health.NewDiagnoser(cfg, openaiClient, logger),
		Limiter:        limiter,
		Metrics:        collector,
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Chat.Timeout + 15*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":                 cfg.Server.Port,
		"environment":          cfg.Server.Environment,
		"search_mode":          cfg.Search.Mode,
		"openai_configured":    cfg.OpenAIConfigured(),
		"anthropic_configured": cfg.AnthropicConfigured(),
		"rate_limit":           cfg.RateLimit.Points,
		"rate_window":          cfg.RateLimit.Duration.String(),
		"upstream_rps":         cfg.Upstream.RPS,
	}).Info("Server starting")

	if !cfg.OpenAIConfigured() && cfg.Search.Mode == config.SearchModeLive {
		logger.Warn("OPENAI_API_KEY is not set; /api/search will answer with a configuration error")
	}
	if !cfg.AnthropicConfigured() {
		logger.Warn("ANTHROPIC_API_KEY is not set; /api/chat will answer with a configuration error")
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server error")
	}
	logger.Info("Server stopped")
}

// janitorInterval sweeps expired windows a few times a minute at most.
func janitorInterval(window time.Duration) time.Duration {
	interval := 10 * window
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}
