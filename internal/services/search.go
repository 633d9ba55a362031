package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/apperr"
	"github.com/Ayash-Bera/shopgate/internal/config"
	"github.com/Ayash-Bera/shopgate/internal/models"
	"github.com/Ayash-Bera/shopgate/internal/normalize"
	"github.com/Ayash-Bera/shopgate/internal/upstream"
)

const maxQueryLength = 500

// ProductSearcher returns the raw completion text for a product query.
type ProductSearcher interface {
	Configured() bool
	SearchProducts(ctx context.Context, query, priceFilter string) (string, error)
}

// Observer receives upstream and normalisation measurements.
type Observer interface {
	ObserveUpstream(provider, outcome string, d time.Duration)
	ObserveShape(shape string)
}

type SearchService struct {
	searcher ProductSearcher
	mode     string
	observer Observer
	logger   *logrus.Logger
}

func NewSearchService(searcher ProductSearcher, mode string, observer Observer, logger *logrus.Logger) *SearchService {
	if mode == "" {
		mode = config.SearchModeLive
	}
	return &SearchService{
		searcher: searcher,
		mode:     mode,
		observer: observer,
		logger:   logger,
	}
}

func (s *SearchService) Mode() string { return s.mode }

// Search validates req, calls the provider and normalises the completion.
// Malformed completions degrade to a placeholder product rather than failing.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) ([]models.Product, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperr.Validation("Search query is required.")
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return nil, apperr.Validation("Search query is too long (max 500 characters).")
	}
	priceFilter := strings.TrimSpace(string(req.PriceFilter))

	var raw string
	if s.mode == config.SearchModeMock {
		raw = mockCompletion(query)
	} else {
		if s.searcher == nil || !s.searcher.Configured() {
			return nil, apperr.Configuration("Search is not configured on the server: missing OpenAI API key.")
		}

		start := time.Now()
		text, err := s.searcher.SearchProducts(ctx, query, priceFilter)
		s.observeUpstream(upstream.ProviderOpenAI, err, time.Since(start))
		if err != nil {
			return nil, searchError(err)
		}
		raw = text
	}

	result := normalize.Normalize(raw, query)
	if s.observer != nil {
		s.observer.ObserveShape(result.Shape.String())
	}

	fields := logrus.Fields{
		"query":    query,
		"mode":     s.mode,
		"shape":    result.Shape.String(),
		"products": len(result.Products),
	}
	if result.Shape == normalize.ShapeFallback {
		s.logger.WithFields(fields).Warn("Search completion was not valid JSON, returning placeholder product")
	} else {
		s.logger.WithFields(fields).Info("Search completed")
	}

	return result.Products, nil
}

func (s *SearchService) observeUpstream(provider string, err error, d time.Duration) {
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
	s.observer.ObserveUpstream(provider, outcome, d)
}

// searchError maps a provider failure onto the client-facing taxonomy.
func searchError(err error) error {
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		return apperr.Internal(err)
	}

	switch upErr.Kind {
	case upstream.KindTimeout:
		return &apperr.Error{
			Kind:    apperr.KindUpstreamTimeout,
			Status:  http.StatusGatewayTimeout,
			Message: "Search request timed out. Please try again later.",
			Cause:   err,
		}
	case upstream.KindUnreachable:
		return &apperr.Error{
			Kind:    apperr.KindUpstreamUnreachable,
			Status:  http.StatusServiceUnavailable,
			Message: "Unable to reach the search provider. Please try again later.",
			Cause:   err,
		}
	case upstream.KindEmpty:
		return &apperr.Error{
			Kind:    apperr.KindUpstreamEmpty,
			Status:  http.StatusBadGateway,
			Message: "The search provider returned an empty response. Please try again.",
			Cause:   err,
		}
	}

	status := upErr.StatusCode
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}

	message := upErr.Message
	switch status {
	case http.StatusUnauthorized:
		message = "The search provider rejected the server's credentials. Please contact the administrator."
	case http.StatusForbidden:
		message = "The server is not allowed to use the search provider. Please contact the administrator."
	case http.StatusNotFound:
		message = "The configured search model or endpoint was not found."
	case http.StatusTooManyRequests:
		message = "The search provider is busy. Please try again shortly."
	}
	if message == "" {
		message = "The search provider returned an error."
	}

	return &apperr.Error{
		Kind:    apperr.KindUpstreamRejected,
		Status:  status,
		Message: message,
		Cause:   err,
	}
}
