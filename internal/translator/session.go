package translator

import (
	"context"
	"fmt"

	"github.com/MimeLyc/bulk-sub-translator/internal/llm"
	"github.com/MimeLyc/bulk-sub-translator/pkg/log"
)

// SessionManager owns the single live session of a translation run.
//
// It creates sessions lazily, counts the messages sent through the
// current one and rotates it once the quota is reached, so a long run
// never overloads one remote conversation. It is not safe for
// concurrent use: chunks are processed one at a time and the manager is
// exclusively owned by that sequential run.
type SessionManager struct {
	endpoint     llm.Endpoint
	quota        int
	systemPrompt string

	current *llm.Session
	used    int
}

// NewSessionManager creates a manager enforcing the given per-session
// message quota
func NewSessionManager(endpoint llm.Endpoint, quota int) *SessionManager {
	if quota <= 0 {
		quota = DefaultSessionQuota
	}
	return &SessionManager{
		endpoint: endpoint,
		quota:    quota,
	}
}

// SetContext sets the system prompt used for new sessions. A changed
// prompt invalidates the current session so the next acquire starts a
// conversation with the new context.
func (m *SessionManager) SetContext(systemPrompt string) {
	if systemPrompt == m.systemPrompt {
		return
	}
	m.systemPrompt = systemPrompt
	m.Invalidate(m.current)
}

// Acquire returns a usable session, creating one when none exists or
// when the previous one was invalidated.
func (m *SessionManager) Acquire(ctx context.Context) (*llm.Session, error) {
	if m.current != nil {
		return m.current, nil
	}

	session, err := m.endpoint.CreateSession(ctx, m.systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation session: %w", err)
	}
	m.current = session
	m.used = 0
	return session, nil
}

// RecordUsage counts one successful send through the session and
// rotates it when the quota is reached. Returns true when a rotation
// happened.
func (m *SessionManager) RecordUsage(session *llm.Session) bool {
	if session == nil || session != m.current {
		return false
	}
	m.used++
	if m.used < m.quota {
		return false
	}
	log.Debug("Session %s reached message quota (%d), rotating", session.ID(), m.quota)
	m.Invalidate(session)
	return true
}

// Invalidate disposes the current session. Disposal errors are logged
// and swallowed: they must not abort the caller's in-flight operation.
func (m *SessionManager) Invalidate(session *llm.Session) {
	if session == nil {
		return
	}
	if err := m.endpoint.CloseSession(session); err != nil {
		log.Warn("Failed to close translation session %s: %v", session.ID(), err)
	}
	if session == m.current {
		m.current = nil
		m.used = 0
	}
}

// Close disposes the live session, if any. Safe to call on every exit
// path.
func (m *SessionManager) Close() {
	m.Invalidate(m.current)
}
