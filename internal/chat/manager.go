package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/identity"
)

// ManagerConfig holds configuration for a chat session manager.
type ManagerConfig struct {
	// Provider is the assistant backend.
	Provider Provider

	// Logger for session events.
	Logger zerolog.Logger

	// UserName personalises the opening greeting. Optional.
	UserName string

	// Language is the initial reply language (default: English).
	Language string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Manager owns one conversation. At most one exchange is in flight at a time.
// Results of an exchange that was overtaken by Reset or Close are dropped.
type Manager struct {
	provider Provider
	logger   zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	sessionID string
	language  string
	messages  []Message
	epoch     uint64
	rev       uint64
	cancel    context.CancelFunc
	closed    bool
}

// NewManager creates a session seeded with the personalised greeting.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	lang := DefaultLanguage
	if cfg.Language != "" {
		parsed, err := ParseLanguage(cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, cfg.Language)
		}
		lang = parsed
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		now:      now,
		state:    StateIdle,
		language: lang,
	}
	m.messages = []Message{m.assistant(Greeting(cfg.UserName), false)}
	return m, nil
}

// Send appends text as a user message and exchanges it with the assistant.
//
// Blank text fails with ErrEmptyMessage and a second Send while one is in
// flight fails with ErrExchangeInFlight; neither changes the session. When
// the exchange fails, an error reply is appended instead of the answer and the
// returned error is nil unless the failure was an authorization error. The
// user message stays in the transcript either way and is never resent.
func (m *Manager) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Message{}, ErrClosed
	}
	if text == "" {
		m.mu.Unlock()
		return Message{}, ErrEmptyMessage
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return Message{}, ErrExchangeInFlight
	}
	m.transition(eventSend)
	m.messages = append(m.messages, Message{Role: RoleUser, Content: text, Timestamp: m.now()})
	m.rev++

	epoch := m.epoch
	req := ExchangeRequest{Message: text, Language: m.language, SessionID: m.sessionID}
	exCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	reply, err := m.provider.Exchange(exCtx, req)
	cancel()
	if err == nil && strings.TrimSpace(reply.Response) == "" {
		err = ErrEmptyReply
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		m.logger.Debug().Err(err).Msg("discarding chat exchange overtaken by reset")
		if m.closed {
			return Message{}, ErrClosed
		}
		return Message{}, ErrExchangeDiscarded
	}
	m.cancel = nil

	if err != nil {
		m.transition(eventFailed)
		msg := m.assistant(ErrorReply, true)
		m.messages = append(m.messages, msg)
		m.transition(eventRecovered)

		m.logger.Warn().
			Err(err).
			Str("session_id", m.sessionID).
			Str("language", req.Language).
			Msg("chat exchange failed")

		if identity.IsAuthError(err) {
			return msg, err
		}
		return msg, nil
	}

	if m.sessionID == "" {
		m.sessionID = reply.SessionID
	}
	msg := m.assistant(reply.Response, false)
	m.messages = append(m.messages, msg)
	m.transition(eventSucceeded)

	return msg, nil
}

// Reset starts a new conversation. It always succeeds, even while an exchange
// is in flight; that exchange's result is dropped.
func (m *Manager) Reset() {
	m.restart(ResetGreeting)
}

// ResetFor starts a new conversation for a newly signed-in user, seeded with
// the greeting personalised with name.
func (m *Manager) ResetFor(name string) {
	m.restart(Greeting(name))
}

func (m *Manager) restart(greeting string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.abandonLocked()
	m.sessionID = ""
	m.messages = []Message{m.assistant(greeting, false)}
	m.transition(eventReset)
}

// Close cancels any in-flight exchange. Later sends fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.abandonLocked()
	m.closed = true
	m.transition(eventReset)
}

// SetLanguage selects the reply language for subsequent sends.
func (m *Manager) SetLanguage(lang string) error {
	parsed, err := ParseLanguage(lang)
	if err != nil {
		return fmt.Errorf("%w: %q", err, lang)
	}
	m.mu.Lock()
	m.language = parsed
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	return Session{
		SessionID: m.sessionID,
		Language:  m.language,
		Messages:  msgs,
		Pending:   m.state == StateSending,
		State:     m.state,
	}
}

// Resume replaces the transcript with a past session loaded from the
// provider and continues that session. If the conversation changed while the
// history was loading, nothing is replaced and ErrExchangeDiscarded is
// returned.
func (m *Manager) Resume(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrExchangeInFlight
	}
	epoch, rev := m.epoch, m.rev
	m.mu.Unlock()

	history, err := m.provider.History(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.epoch != epoch || m.rev != rev || m.state != StateIdle {
		m.logger.Debug().Str("session_id", sessionID).Msg("discarding chat history overtaken by a newer exchange")
		return ErrExchangeDiscarded
	}
	m.sessionID = sessionID
	m.messages = append([]Message(nil), history...)
	m.rev++
	return nil
}

// Sessions lists the user's past conversations.
func (m *Manager) Sessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := m.provider.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	return sessions, nil
}

func (m *Manager) abandonLocked() {
	m.epoch++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Manager) transition(ev event) {
	to, err := next(m.state, ev)
	if err != nil {
		m.logger.Error().Err(err).Msg("invalid chat transition")
		return
	}
	m.state = to
}

func (m *Manager) assistant(content string, isError bool) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: m.now(), IsError: isError}
}
