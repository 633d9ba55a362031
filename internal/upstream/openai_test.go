package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": content},
		}},
	}
}

func newTestOpenAI(url string, timeout time.Duration) *OpenAIClient {
	return NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Timeout: timeout,
	}, nil, logrus.New())
}

func TestOpenAIClient_SearchProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		format, _ := body["response_format"].(map[string]interface{})
		assert.Equal(t, "json_object", format["type"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody(`{"products":[]}`))
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL, time.Second)
	text, err := client.SearchProducts(context.Background(), "wireless earbuds", "100")
	require.NoError(t, err)
	assert.Equal(t, `{"products":[]}`, text)
}

func TestOpenAIClient_Rejected(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL, time.Second)
	_, err := client.SearchProducts(context.Background(), "q", "")

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindRejected, upErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client must not retry")
}

func TestOpenAIClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL, 50*time.Millisecond)
	_, err := client.SearchProducts(context.Background(), "q", "")

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindTimeout, upErr.Kind)
}

func TestOpenAIClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestOpenAI(url, time.Second)
	_, err := client.SearchProducts(context.Background(), "q", "")

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindUnreachable, upErr.Kind)
}

func TestOpenAIClient_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody(""))
	}))
	defer server.Close()

	client := newTestOpenAI(server.URL, time.Second)
	_, err := client.SearchProducts(context.Background(), "q", "")

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, KindEmpty, upErr.Kind)
}

func TestOpenAIClient_UndecodableBody(t *testing.T) {
	cases := map[string]string{
		"text/html":        "<html>gateway page</html>",
		"application/json": "{not json",
	}

	for contentType, body := range cases {
		t.Run(contentType, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", contentType)
				w.Write([]byte(body))
			}))
			defer server.Close()

			client := newTestOpenAI(server.URL, time.Second)
			_, err := client.SearchProducts(context.Background(), "q", "")

			var upErr *Error
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, KindEmpty, upErr.Kind)
		})
	}
}

func TestOpenAIClient_Defaults(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{}, nil, logrus.New())

	assert.False(t, client.Configured())
	assert.Equal(t, DefaultOpenAIBaseURL, client.BaseURL())
	assert.Equal(t, DefaultOpenAIModel, client.Model())
}

func TestBuildSearchPrompt(t *testing.T) {
	assert.Contains(t, BuildSearchPrompt("  laptop ", ""), `"laptop"`)
	assert.NotContains(t, BuildSearchPrompt("laptop", ""), "Price")
	assert.Contains(t, BuildSearchPrompt("laptop", "800"), "at or below $800")
	assert.Contains(t, BuildSearchPrompt("laptop", "under 1000"), "Price preference: under 1000")
}
