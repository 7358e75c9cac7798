// Package chat manages a single conversation with the health assistant.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Session errors.
var (
	ErrEmptyMessage        = errors.New("message is empty")
	ErrExchangeInFlight    = errors.New("an exchange is already in flight")
	ErrClosed              = errors.New("chat session closed")
	ErrExchangeDiscarded   = errors.New("exchange discarded by reset")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyReply          = errors.New("assistant returned an empty reply")
	ErrSessionIDRequired   = errors.New("session id is required")
)

// Fixed assistant texts.
const (
	ErrorReply    = "I'm having trouble connecting right now. Please try again in a moment."
	ResetGreeting = "Starting a new conversation! How can I help you today?"
)

// DefaultLanguage is the language of a new session.
const DefaultLanguage = "English"

// Languages are the reply languages the assistant supports.
var Languages = []string{
	"English", "Hindi", "Bengali", "Telugu", "Marathi", "Tamil",
	"Gujarati", "Kannada", "Malayalam", "Punjabi", "Odia",
	"Assamese", "Urdu", "Sanskrit", "Sindhi",
}

// QuickPrompts are suggested first questions.
func QuickPrompts() []string {
	return []string{
		"I have a headache and mild fever",
		"What does BP 140/90 mean?",
		"First aid for burns",
		"How to prevent diabetes?",
	}
}

// Greeting is the first assistant message of a new session.
func Greeting(name string) string {
	salutation := "Namaste!"
	if name = strings.TrimSpace(name); name != "" {
		salutation = "Namaste " + name + "!"
	}
	return salutation + " I'm your CareLens AI health assistant. I can help you with:\n\n" +
		"• Symptom analysis & health guidance\n" +
		"• Understanding your BP readings\n" +
		"• Finding nearby hospitals\n" +
		"• Emergency first aid tips\n" +
		"• General health advice\n\n" +
		"How can I help you today? You can ask me in any of the 15 Indian languages!"
}

// ParseLanguage matches name case-insensitively against Languages.
func ParseLanguage(name string) (string, error) {
	name = strings.TrimSpace(name)
	for _, lang := range Languages {
		if strings.EqualFold(lang, name) {
			return lang, nil
		}
	}
	return "", ErrUnsupportedLanguage
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the transcript. Messages are only appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"is_error,omitempty"`
}

// Session is a point-in-time copy of the conversation.
type Session struct {
	// SessionID is empty until the first successful exchange.
	SessionID string    `json:"session_id,omitempty"`
	Language  string    `json:"language"`
	Messages  []Message `json:"messages"`
	Pending   bool      `json:"pending"`
	State     State     `json:"state"`
}

// SessionSummary describes a past conversation.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	LastMessage  string    `json:"last_message"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int       `json:"message_count"`
}

// ExchangeRequest is one user turn sent to the assistant.
type ExchangeRequest struct {
	Message   string
	Language  string
	SessionID string
}

// ExchangeReply is the assistant's answer.
type ExchangeReply struct {
	Response  string
	SessionID string
}

// Provider defines the interface to the assistant backend.
type Provider interface {
	// Exchange sends one user turn and returns the reply.
	Exchange(ctx context.Context, req ExchangeRequest) (ExchangeReply, error)

	// History returns the transcript of a past session, oldest first.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Sessions lists the user's past sessions, newest first.
	Sessions(ctx context.Context) ([]SessionSummary, error)
}
