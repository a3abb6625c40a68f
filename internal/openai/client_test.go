package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(upstream *httptest.Server) *Client {
	return NewClient(Options{
		APIKey:    "sk-test-secret",
		Model:     "gpt-4",
		BaseURL:   upstream.URL,
		MaxTokens: 500,
	}, resty.New())
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"score": 87}`)))
	}))
	defer upstream.Close()

	content, err := newTestClient(upstream).Complete(context.Background(), "system msg", "user msg")
	require.NoError(t, err)

	assert.Equal(t, `{"score": 87}`, content)
	assert.Equal(t, "Bearer sk-test-secret", gotAuth)
	assert.Equal(t, "gpt-4", gotBody["model"])

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestCompleteEmptyResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("   ")))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteNoChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteUpstreamStatusError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded"}}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).Complete(context.Background(), "s", "u")

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusInternalServerError, upstreamErr.Status)
	assert.Contains(t, upstreamErr.Error(), "overloaded")
}

func TestCompleteTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // refuse connections

	_, err := newTestClient(upstream).Complete(context.Background(), "s", "u")

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, upstreamErr.Status)
}

func TestCompleteErrorNeverLeaksKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "sk-test-secret"))
}

func TestCompleteBodyLevelError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model deprecated"}}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).Complete(context.Background(), "s", "u")

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Contains(t, err.Error(), "model deprecated")
}
