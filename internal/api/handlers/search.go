package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/apperr"
	"github.com/Ayash-Bera/shopgate/internal/middleware"
	"github.com/Ayash-Bera/shopgate/internal/models"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

// ProductSearch is the search use case behind POST /api/search.
type ProductSearch interface {
	Search(ctx context.Context, req models.SearchRequest) ([]models.Product, error)
}

type SearchHandler struct {
	search ProductSearch
	logger *logrus.Logger
}

func NewSearchHandler(search ProductSearch, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		logger: logger,
	}
}

// HandleSearch processes search requests
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	startTime := time.Now()

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid search request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format: expected {\"query\": string, \"priceFilter\"?: string|number}.")
		return
	}

	products, err := h.search.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "Search failed", err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":    c.GetString(middleware.RequestIDKey),
		"results_count": len(products),
		"response_time": time.Since(startTime).Milliseconds(),
	}).Debug("Search completed successfully")

	utils.SuccessResponse(c, http.StatusOK, models.SearchResponse{Products: products})
}

// respondError writes the client-safe body for err and logs the cause.
// Client errors are logged at warn level, server errors at error level.
func respondError(c *gin.Context, logger *logrus.Logger, msg string, err error) {
	appErr := apperr.From(err)

	entry := logger.WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"kind":       appErr.Kind,
		"status":     appErr.Status,
	})
	if cause := errors.Unwrap(appErr); cause != nil {
		entry = entry.WithError(cause)
	}

	if appErr.Status >= http.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Warn(msg)
	}

	utils.ErrorResponse(c, appErr.Status, appErr.Message)
}
