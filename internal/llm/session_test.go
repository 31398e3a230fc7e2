package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEndpoint(t *testing.T, reply func(req ChatRequest) string) Endpoint {
	t.Helper()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: reply(req)}}},
		})
	})
	return NewChatEndpoint(client)
}

func TestChatEndpoint_SessionIDsAreUnique(t *testing.T) {
	endpoint := newTestEndpoint(t, func(ChatRequest) string { return "ok" })

	first, err := endpoint.CreateSession(context.Background(), "prompt")
	require.NoError(t, err)
	second, err := endpoint.CreateSession(context.Background(), "prompt")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
}

func TestChatEndpoint_SendReplaysConversation(t *testing.T) {
	var lastMessages []Message
	endpoint := newTestEndpoint(t, func(req ChatRequest) string {
		lastMessages = req.Messages
		return "answer"
	})

	session, err := endpoint.CreateSession(context.Background(), "be helpful")
	require.NoError(t, err)

	_, err = endpoint.Send(context.Background(), session, "first question")
	require.NoError(t, err)
	require.Len(t, lastMessages, 2)
	assert.Equal(t, "system", lastMessages[0].Role)
	assert.Equal(t, "be helpful", lastMessages[0].Content)

	_, err = endpoint.Send(context.Background(), session, "second question")
	require.NoError(t, err)

	// system + first exchange + new user message
	require.Len(t, lastMessages, 4)
	assert.Equal(t, "first question", lastMessages[1].Content)
	assert.Equal(t, "answer", lastMessages[2].Content)
	assert.Equal(t, "second question", lastMessages[3].Content)
	assert.Equal(t, 4, session.MessageCount())
}

func TestChatEndpoint_EmptySystemPromptOmitted(t *testing.T) {
	var lastMessages []Message
	endpoint := newTestEndpoint(t, func(req ChatRequest) string {
		lastMessages = req.Messages
		return "ok"
	})

	session, err := endpoint.CreateSession(context.Background(), "")
	require.NoError(t, err)

	_, err = endpoint.Send(context.Background(), session, "hello")
	require.NoError(t, err)
	require.Len(t, lastMessages, 1)
	assert.Equal(t, "user", lastMessages[0].Role)
}

func TestChatEndpoint_FailedSendKeepsHistoryClean(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})
	endpoint := NewChatEndpoint(client)

	session, err := endpoint.CreateSession(context.Background(), "prompt")
	require.NoError(t, err)

	_, err = endpoint.Send(context.Background(), session, "hello")
	require.Error(t, err)
	assert.Equal(t, 0, session.MessageCount())
}

func TestChatEndpoint_ClosedSessionRejectsSend(t *testing.T) {
	endpoint := newTestEndpoint(t, func(ChatRequest) string { return "ok" })

	session, err := endpoint.CreateSession(context.Background(), "prompt")
	require.NoError(t, err)
	require.NoError(t, endpoint.CloseSession(session))

	_, err = endpoint.Send(context.Background(), session, "hello")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, transportErr.Error(), "session not found")
}

func TestChatEndpoint_CloseNilSession(t *testing.T) {
	endpoint := newTestEndpoint(t, func(ChatRequest) string { return "ok" })
	assert.NoError(t, endpoint.CloseSession(nil))
}
