package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayash-Bera/shopgate/internal/apperr"
	"github.com/Ayash-Bera/shopgate/internal/config"
	"github.com/Ayash-Bera/shopgate/internal/models"
	"github.com/Ayash-Bera/shopgate/internal/upstream"
)

type fakeSearcher struct {
	configured bool
	text       string
	err        error
	calls      int
	lastFilter string
}

func (f *fakeSearcher) Configured() bool { return f.configured }

func (f *fakeSearcher) SearchProducts(ctx context.Context, query, priceFilter string) (string, error) {
	f.calls++
	f.lastFilter = priceFilter
	return f.text, f.err
}

type fakeCompleter struct {
	configured bool
	reply      string
	err        error
	calls      int
	last       []models.ChatMessage
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	f.calls++
	f.last = messages
	return f.reply, f.err
}

type fakeObserver struct {
	outcomes []string
	shapes   []string
}

func (f *fakeObserver) ObserveUpstream(provider, outcome string, d time.Duration) {
	f.outcomes = append(f.outcomes, provider+":"+outcome)
}

func (f *fakeObserver) ObserveShape(shape string) { f.shapes = append(f.shapes, shape) }

func asAppErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	return appErr
}

func TestSearch_Success(t *testing.T) {
	logger, _ := test.NewNullLogger()
	searcher := &fakeSearcher{configured: true, text: `{"recommendations":[{"name":"A"},{"name":"B"}]}`}
	obs := &fakeObserver{}
	svc := NewSearchService(searcher, config.SearchModeLive, obs, logger)

	products, err := svc.Search(context.Background(), models.SearchRequest{Query: " earbuds ", PriceFilter: "150"})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "150", searcher.lastFilter)
	assert.Equal(t, []string{"openai:success"}, obs.outcomes)
	assert.Equal(t, []string{"recommendations"}, obs.shapes)
}

func TestSearch_ValidationBeforeUpstream(t *testing.T) {
	logger, _ := test.NewNullLogger()
	searcher := &fakeSearcher{configured: true}
	svc := NewSearchService(searcher, config.SearchModeLive, nil, logger)

	for _, q := range []string{"", "   "} {
		_, err := svc.Search(context.Background(), models.SearchRequest{Query: q})
		assert.Equal(t, http.StatusBadRequest, asAppErr(t, err).Status)
	}
	assert.Zero(t, searcher.calls)
}

func TestSearch_QueryLengthCountsCharacters(t *testing.T) {
	logger, _ := test.NewNullLogger()
	searcher := &fakeSearcher{configured: true, text: `{"products":[]}`}
	svc := NewSearchService(searcher, config.SearchModeLive, nil, logger)

	// 400 characters, 1200 bytes
	_, err := svc.Search(context.Background(), models.SearchRequest{Query: strings.Repeat("耳机", 200)})
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)

	_, err = svc.Search(context.Background(), models.SearchRequest{Query: strings.Repeat("耳", maxQueryLength+1)})
	assert.Equal(t, http.StatusBadRequest, asAppErr(t, err).Status)
	assert.Equal(t, 1, searcher.calls)
}

func TestSearch_MissingCredentials(t *testing.T) {
	logger, _ := test.NewNullLogger()
	searcher := &fakeSearcher{configured: false}
	svc := NewSearchService(searcher, config.SearchModeLive, nil, logger)

	_, err := svc.Search(context.Background(), models.SearchRequest{Query: "laptop"})
	appErr := asAppErr(t, err)
	assert.Equal(t, apperr.KindConfiguration, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Zero(t, searcher.calls)
}

func TestSearch_MalformedCompletionDegrades(t *testing.T) {
	logger, hook := test.NewNullLogger()
	searcher := &fakeSearcher{configured: true, text: "Sorry, I can't help with that."}
	svc := NewSearchService(searcher, config.SearchModeLive, nil, logger)

	products, err := svc.Search(context.Background(), models.SearchRequest{Query: "laptop"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "laptop", products[0].ProductName)
	assert.Equal(t, "fallback", hook.LastEntry().Data["shape"])
}

func TestSearch_MockMode(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewSearchService(nil, config.SearchModeMock, nil, logger)

	products, err := svc.Search(context.Background(), models.SearchRequest{Query: "desk lamp"})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "desk lamp - Premium Pick", products[0].ProductName)
	assert.Len(t, products[0].Retailers, 2)
	assert.True(t, products[0].Retailers[0].IsLowestPrice)
}

func TestSearch_UpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   apperr.Kind
	}{
		{"timeout", &upstream.Error{Kind: upstream.KindTimeout}, http.StatusGatewayTimeout, apperr.KindUpstreamTimeout},
		{"unreachable", &upstream.Error{Kind: upstream.KindUnreachable}, http.StatusServiceUnavailable, apperr.KindUpstreamUnreachable},
		{"empty", &upstream.Error{Kind: upstream.KindEmpty}, http.StatusBadGateway, apperr.KindUpstreamEmpty},
		{"unauthorized", &upstream.Error{Kind: upstream.KindRejected, StatusCode: 401, Message: "bad key"}, http.StatusUnauthorized, apperr.KindUpstreamRejected},
		{"bad request", &upstream.Error{Kind: upstream.KindRejected, StatusCode: 400, Message: "invalid model"}, http.StatusBadRequest, apperr.KindUpstreamRejected},
		{"no status", &upstream.Error{Kind: upstream.KindRejected}, http.StatusBadGateway, apperr.KindUpstreamRejected},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, apperr.KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			svc := NewSearchService(&fakeSearcher{configured: true, err: tc.err}, config.SearchModeLive, nil, logger)

			_, err := svc.Search(context.Background(), models.SearchRequest{Query: "q"})
			appErr := asAppErr(t, err)
			assert.Equal(t, tc.status, appErr.Status)
			assert.Equal(t, tc.kind, appErr.Kind)
			assert.NotEmpty(t, appErr.Message)
		})
	}
}

func TestSearch_FriendlyMessages(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewSearchService(&fakeSearcher{configured: true, err: &upstream.Error{Kind: upstream.KindRejected, StatusCode: 401, Message: "Incorrect API key provided: sk-123"}}, config.SearchModeLive, nil, logger)

	_, err := svc.Search(context.Background(), models.SearchRequest{Query: "q"})
	assert.NotContains(t, asAppErr(t, err).Message, "sk-123")
}

func TestChat_Success(t *testing.T) {
	logger, _ := test.NewNullLogger()
	completer := &fakeCompleter{configured: true, reply: "Go with the Sony."}
	obs := &fakeObserver{}
	svc := NewChatService(completer, obs, logger)

	reply, err := svc.Reply(context.Background(), models.ChatRequest{
		Messages: []models.ChatMessage{{Role: "user", Content: "which one?"}},
		Context:  &models.ChatContext{SearchQuery: "earbuds"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Go with the Sony.", reply)

	require.Len(t, completer.last, 2)
	assert.Equal(t, models.RoleSystem, completer.last[0].Role)
	assert.Contains(t, completer.last[0].Content, `"earbuds"`)
	assert.Equal(t, []string{"anthropic:success"}, obs.outcomes)
}

func TestChat_Validation(t *testing.T) {
	cases := map[string][]models.ChatMessage{
		"empty":          nil,
		"bad role":       {{Role: "tool", Content: "x"}},
		"empty text":     {{Role: "user", Content: "  "}},
		"only system":    {{Role: "system", Content: "be nice"}},
		"only assistant": {{Role: "assistant", Content: "Hello! How can I help?"}},
		"too many":       make([]models.ChatMessage, maxChatMessages+1),
	}

	for name, messages := range cases {
		t.Run(name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			completer := &fakeCompleter{configured: true}
			svc := NewChatService(completer, nil, logger)

			_, err := svc.Reply(context.Background(), models.ChatRequest{Messages: messages})
			assert.Equal(t, http.StatusBadRequest, asAppErr(t, err).Status)
			assert.Zero(t, completer.calls)
		})
	}
}

func TestChat_MissingCredentials(t *testing.T) {
	logger, _ := test.NewNullLogger()
	completer := &fakeCompleter{configured: false}
	svc := NewChatService(completer, nil, logger)

	_, err := svc.Reply(context.Background(), models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "hi"}}})
	appErr := asAppErr(t, err)
	assert.Equal(t, apperr.KindConfiguration, appErr.Kind)
	assert.Zero(t, completer.calls)
}

func TestChat_UpstreamFailuresAre500(t *testing.T) {
	for _, kind := range []upstream.ErrorKind{upstream.KindTimeout, upstream.KindUnreachable, upstream.KindEmpty, upstream.KindRejected} {
		t.Run(kind.String(), func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			svc := NewChatService(&fakeCompleter{configured: true, err: &upstream.Error{Kind: kind, StatusCode: 400}}, nil, logger)

			_, err := svc.Reply(context.Background(), models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "hi"}}})
			appErr := asAppErr(t, err)
			assert.Equal(t, http.StatusInternalServerError, appErr.Status)
			assert.NotEmpty(t, appErr.Message)
		})
	}
}

func TestBuildSystemMessage(t *testing.T) {
	assert.Equal(t, assistantPrompt, BuildSystemMessage(nil))

	msg := BuildSystemMessage(&models.ChatContext{
		SearchQuery: "running shoes",
		Products: []interface{}{
			map[string]interface{}{"productName": "A", "averageRating": 4.5, "reviewCount": 10.0, "priceMin": "$50", "priceMax": 70.0},
			map[string]interface{}{"productName": "B"},
			map[string]interface{}{"productName": ""},
			map[string]interface{}{"productName": "D"},
		},
	})
	assert.Contains(t, msg, `"running shoes"`)
	assert.Contains(t, msg, "- A (rating 4.5/5 from 10 reviews, $50.00-$70.00)")
	assert.Contains(t, msg, "- Unknown Product")
	assert.NotContains(t, msg, "- D")
}
