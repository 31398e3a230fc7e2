package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Session is an opaque handle to one logical conversation with the
// remote endpoint. For chat-completion providers the conversation
// state lives client-side and is replayed on every send, which is what
// makes the handle behave as a single stateful remote context.
//
// A Session is not safe for concurrent use; ownership rules are
// enforced by the translator's session manager.
type Session struct {
	id           string
	systemPrompt string
	messages     []Message
	createdAt    time.Time
	closed       bool
}

// ID returns the session identifier, useful for logging
func (s *Session) ID() string {
	return s.id
}

// MessageCount returns the number of exchanged messages
func (s *Session) MessageCount() int {
	return len(s.messages)
}

// Endpoint is the session-based protocol the translation core drives:
// create a conversation, send prompts through it, close it. The core
// does not validate endpoint behavior beyond parsing its replies.
type Endpoint interface {
	CreateSession(ctx context.Context, systemPrompt string) (*Session, error)
	Send(ctx context.Context, session *Session, prompt string) (string, error)
	CloseSession(session *Session) error
}

// chatEndpoint implements Endpoint over an OpenAI-compatible client
type chatEndpoint struct {
	client    *Client
	idCounter uint64
}

// NewChatEndpoint wraps a chat completion client in the session protocol
func NewChatEndpoint(client *Client) Endpoint {
	return &chatEndpoint{client: client}
}

func (e *chatEndpoint) CreateSession(_ context.Context, systemPrompt string) (*Session, error) {
	return &Session{
		id:           fmt.Sprintf("session-%d", atomic.AddUint64(&e.idCounter, 1)),
		systemPrompt: systemPrompt,
		messages:     make([]Message, 0),
		createdAt:    time.Now(),
	}, nil
}

func (e *chatEndpoint) Send(ctx context.Context, session *Session, prompt string) (string, error) {
	if session == nil || session.closed {
		return "", &TransportError{Op: "send", Cause: fmt.Errorf("session not found")}
	}

	messages := make([]Message, 0, len(session.messages)+2)
	if session.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: session.systemPrompt})
	}
	messages = append(messages, session.messages...)
	messages = append(messages, Message{Role: "user", Content: prompt})

	content, err := e.client.CompletionText(ctx, messages)
	if err != nil {
		return "", err
	}

	// Only a successful exchange becomes part of the conversation
	session.messages = append(session.messages,
		Message{Role: "user", Content: prompt},
		Message{Role: "assistant", Content: content},
	)

	return content, nil
}

func (e *chatEndpoint) CloseSession(session *Session) error {
	if session == nil {
		return nil
	}
	session.closed = true
	session.messages = nil
	return nil
}
