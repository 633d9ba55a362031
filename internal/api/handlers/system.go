package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ayash-Bera/shopgate/internal/health"
	"github.com/Ayash-Bera/shopgate/internal/models"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

// Diagnostics produces the /api/diagnose report.
type Diagnostics interface {
	Run(ctx context.Context) health.Report
	Uptime() time.Duration
}

type SystemHandler struct {
	diagnostics Diagnostics
}

func NewSystemHandler(diagnostics Diagnostics) *SystemHandler {
	return &SystemHandler{diagnostics: diagnostics}
}

func (h *SystemHandler) Root(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, models.StatusResponse{
		Status:  "ok",
		Message: "Shopping assistant API is running",
	})
}

// Health is a liveness probe; it never calls an upstream.
func (h *SystemHandler) Health(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, gin.H{
		"status": "ok",
		"uptime": h.diagnostics.Uptime().String(),
	})
}

func (h *SystemHandler) Diagnose(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, h.diagnostics.Run(c.Request.Context()))
}
