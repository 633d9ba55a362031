package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/models"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

// ChatReplier is the chat use case behind POST /api/chat.
type ChatReplier interface {
	Reply(ctx context.Context, req models.ChatRequest) (string, error)
}

type ChatHandler struct {
	chat   ChatReplier
	logger *logrus.Logger
}

func NewChatHandler(chat ChatReplier, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid chat request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Messages must be a non-empty array.")
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "Chat failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, models.ChatResponse{Reply: reply})
}
