package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		APIKey:    "test-key",
		APIURL:    server.URL,
		Model:     "test-model",
		MaxTokens: 1000,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&Config{APIURL: "http://localhost", Model: "m"})
	require.Error(t, err)
}

func TestChatCompletion_Success(t *testing.T) {
	var gotRequest ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		_ = json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "hi there"}}},
		})
	})

	text, err := client.CompletionText(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
	assert.Equal(t, "test-model", gotRequest.Model)
	require.Len(t, gotRequest.Messages, 1)
}

func TestCompletionText_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ChatResponse{})
	})

	_, err := client.CompletionText(context.Background(), nil)
	require.Error(t, err)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestChatCompletion_APIErrorInBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ChatResponse{
			Error: &Error{Message: "model overloaded", Type: "rate_limit"},
		})
	})

	_, err := client.ChatCompletion(context.Background(), nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, transportErr.Error(), "model overloaded")
}

func TestChatCompletion_Non2xxStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.ChatCompletion(context.Background(), nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, transportErr.Error(), "502")
}

func TestChatCompletion_UndecodableBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.ChatCompletion(context.Background(), nil)
	require.Error(t, err)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestChatCompletion_ContextDeadlineSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ChatCompletion(ctx, nil)
	require.Error(t, err)
	// The deadline must classify as a timeout, not a transport fault
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var transportErr *TransportError
	assert.False(t, errors.As(err, &transportErr))
}

func TestConfig_HeadersCarryOptionalMetadata(t *testing.T) {
	cfg := &Config{
		APIKey:    "k",
		APIURL:    "http://localhost",
		Model:     "m",
		MaxTokens: 100,
		SiteURL:   "https://example.com",
		AppName:   "bulktrans",
	}
	require.NoError(t, cfg.Validate())

	headers := cfg.GetHeaders()
	assert.Equal(t, "Bearer k", headers["Authorization"])
	assert.Equal(t, "https://example.com", headers["HTTP-Referer"])
	assert.Equal(t, "bulktrans", headers["X-Title"])
}
