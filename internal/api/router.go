// Package api wires the HTTP routes onto a gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/api/handlers"
	"github.com/Ayash-Bera/shopgate/internal/metrics"
	"github.com/Ayash-Bera/shopgate/internal/middleware"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

type Dependencies struct {
	Search         handlers.ProductSearch
	Chat           handlers.ChatReplier
	Diagnostics    handlers.Diagnostics
	Limiter        middleware.Admitter
	Metrics        *metrics.Collector
	Logger         *logrus.Logger
	CORSOrigins    []string
	TrustedProxies []string
}

// NewRouter builds the engine. Only /api routes are rate limited.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}

	// nil interfaces, not typed nils, when metrics are off
	var requests middleware.RequestRecorder
	var rejections middleware.RejectionRecorder
	if deps.Metrics != nil {
		requests = deps.Metrics
		rejections = deps.Metrics
	}

	router.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.CORS(deps.CORSOrigins),
		middleware.Logger(deps.Logger, requests),
	)

	system := handlers.NewSystemHandler(deps.Diagnostics)
	search := handlers.NewSearchHandler(deps.Search, deps.Logger)
	chat := handlers.NewChatHandler(deps.Chat, deps.Logger)

	router.GET("/", system.Root)
	router.GET("/health", system.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")
	api.Use(middleware.RateLimit(deps.Limiter, deps.Logger, rejections))
	{
		api.GET("/diagnose", system.Diagnose)
		api.POST("/search", search.HandleSearch)
		api.POST("/chat", chat.HandleChat)
	}

	router.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "Route not found.")
	})

	return router, nil
}
