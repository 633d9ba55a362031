package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/apperr"
	"github.com/Ayash-Bera/shopgate/internal/models"
	"github.com/Ayash-Bera/shopgate/internal/normalize"
	"github.com/Ayash-Bera/shopgate/internal/upstream"
)

const (
	maxChatMessages  = 100
	maxDigestProduct = 3
)

const assistantPrompt = "You are a friendly shopping assistant. Help the user compare products, " +
	"explain trade-offs and suggest what to buy. Keep answers concise and practical."

// ChatCompleter returns the assistant reply for a conversation.
type ChatCompleter interface {
	Configured() bool
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

type ChatService struct {
	completer ChatCompleter
	observer  Observer
	logger    *logrus.Logger
}

func NewChatService(completer ChatCompleter, observer Observer, logger *logrus.Logger) *ChatService {
	return &ChatService{
		completer: completer,
		observer:  observer,
		logger:    logger,
	}
}

// Reply validates the conversation, prefixes the context prompt and returns
// the assistant's reply verbatim.
func (s *ChatService) Reply(ctx context.Context, req models.ChatRequest) (string, error) {
	if err := validateMessages(req.Messages); err != nil {
		return "", err
	}
	if s.completer == nil || !s.completer.Configured() {
		return "", apperr.Configuration("Chat is not configured on the server: missing Anthropic API key.")
	}

	conversation := make([]models.ChatMessage, 0, len(req.Messages)+1)
	conversation = append(conversation, models.ChatMessage{
		Role:    models.RoleSystem,
		Content: BuildSystemMessage(req.Context),
	})
	conversation = append(conversation, req.Messages...)

	start := time.Now()
	reply, err := s.completer.Chat(ctx, conversation)
	latency := time.Since(start)
	s.observeUpstream(err, latency)
	if err != nil {
		return "", chatError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"messages":    len(req.Messages),
		"has_context": req.Context != nil,
		"reply_chars": len(reply),
		"latency_ms":  latency.Milliseconds(),
	}).Info("Chat completed")

	return reply, nil
}

// BuildSystemMessage describes the assistant role plus whatever search
// context the client sent along.
func BuildSystemMessage(chatCtx *models.ChatContext) string {
	var b strings.Builder
	b.WriteString(assistantPrompt)
	if chatCtx == nil {
		return b.String()
	}

	if q := strings.TrimSpace(chatCtx.SearchQuery); q != "" {
		fmt.Fprintf(&b, "\n\nThe user recently searched for: %q.", q)
	}

	if len(chatCtx.Products) > 0 {
		b.WriteString("\n\nProducts they are looking at:")
		for i, item := range chatCtx.Products {
			if i == maxDigestProduct {
				break
			}
			p := normalize.MapProduct(item)
			fmt.Fprintf(&b, "\n- %s (rating %.1f/5 from %d reviews, $%.2f-$%.2f)",
				p.ProductName, p.AverageRating, p.ReviewCount, p.PriceMin, p.PriceMax)
		}
	}
	return b.String()
}

func validateMessages(messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return apperr.Validation("Messages must be a non-empty array.")
	}
	if len(messages) > maxChatMessages {
		return apperr.Validation(fmt.Sprintf("Too many messages (max %d).", maxChatMessages))
	}

	userMessages := 0
	for i, m := range messages {
		switch m.Role {
		case models.RoleUser:
			userMessages++
		case models.RoleAssistant, models.RoleSystem:
		default:
			return apperr.Validation(fmt.Sprintf("Message %d has an invalid role %q.", i, m.Role))
		}
		if strings.TrimSpace(m.Content) == "" {
			return apperr.Validation(fmt.Sprintf("Message %d has empty content.", i))
		}
	}
	if userMessages == 0 {
		return apperr.Validation("Messages must include at least one user message.")
	}
	return nil
}

func (s *ChatService) observeUpstream(err error, d time.Duration) {
	if s.observer == nil {
		return
	}
	outcome := "success"
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		outcome = upErr.Kind.String()
	} else if err != nil {
		outcome = "error"
	}
	s.observer.ObserveUpstream(upstream.ProviderAnthropic, outcome, d)
}

// chatError reports every provider failure as a 500 with a readable message.
func chatError(err error) error {
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		return apperr.Internal(err)
	}

	e := &apperr.Error{Status: http.StatusInternalServerError, Cause: err}
	switch upErr.Kind {
	case upstream.KindTimeout:
		e.Kind = apperr.KindUpstreamTimeout
		e.Message = "The assistant took too long to respond. Please try again."
	case upstream.KindUnreachable:
		e.Kind = apperr.KindUpstreamUnreachable
		e.Message = "The assistant is unreachable right now. Please try again later."
	case upstream.KindEmpty:
		e.Kind = apperr.KindUpstreamEmpty
		e.Message = "The assistant returned an empty reply. Please try again."
	default:
		e.Kind = apperr.KindUpstreamRejected
		e.Message = "Failed to get a response from the assistant. Please try again later."
		if upErr.StatusCode == http.StatusUnauthorized || upErr.StatusCode == http.StatusForbidden {
			e.Message = "The assistant rejected the server's credentials. Please contact the administrator."
		}
	}
	return e
}
