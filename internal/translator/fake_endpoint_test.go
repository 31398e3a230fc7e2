package translator

import (
	"context"

	"github.com/MimeLyc/bulk-sub-translator/internal/llm"
)

// fakeEndpoint is an in-memory llm.Endpoint for tests. Replies are
// produced by onSend, keyed by the 1-based send call number.
type fakeEndpoint struct {
	createCalls int
	closeCalls  int
	sendCalls   int

	createErr error
	closeErr  error
	onSend    func(call int, systemPrompt, prompt string) (string, error)

	lastSystemPrompt string
}

func (f *fakeEndpoint) CreateSession(ctx context.Context, systemPrompt string) (*llm.Session, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastSystemPrompt = systemPrompt
	return &llm.Session{}, nil
}

func (f *fakeEndpoint) Send(ctx context.Context, session *llm.Session, prompt string) (string, error) {
	f.sendCalls++
	if f.onSend == nil {
		return "", nil
	}
	return f.onSend(f.sendCalls, f.lastSystemPrompt, prompt)
}

func (f *fakeEndpoint) CloseSession(session *llm.Session) error {
	f.closeCalls++
	return f.closeErr
}
