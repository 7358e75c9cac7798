package platform

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/carelens/carelens/internal/chat"
)

type chatRequestWire struct {
	Message   string  `json:"message"`
	Language  string  `json:"language"`
	SessionID *string `json:"session_id"`
}

type chatResponseWire struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type chatMessageWire struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

type chatSessionWire struct {
	SessionID    string    `json:"session_id"`
	LastMessage  string    `json:"last_message"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int       `json:"message_count"`
}

// Exchange implements chat.Provider. An empty session id is sent as null so
// that the backend opens a new session.
func (c *Client) Exchange(ctx context.Context, req chat.ExchangeRequest) (chat.ExchangeReply, error) {
	body := chatRequestWire{Message: req.Message, Language: req.Language}
	if req.SessionID != "" {
		body.SessionID = &req.SessionID
	}

	var resp chatResponseWire
	err := c.do(ctx, call{
		op:     "chat_message",
		method: http.MethodPost,
		path:   "/chat/message",
		body:   body,
		auth:   true,
	}, &resp)
	if err != nil {
		return chat.ExchangeReply{}, err
	}
	return chat.ExchangeReply{Response: resp.Response, SessionID: resp.SessionID}, nil
}

// History implements chat.Provider.
func (c *Client) History(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var resp []chatMessageWire
	err := c.do(ctx, call{
		op:     "chat_history",
		method: http.MethodGet,
		path:   "/chat/history",
		query:  url.Values{"session_id": {sessionID}},
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	msgs := make([]chat.Message, 0, len(resp))
	for _, m := range resp {
		role := chat.RoleAssistant
		if m.Role == string(chat.RoleUser) {
			role = chat.RoleUser
		}
		msgs = append(msgs, chat.Message{Role: role, Content: m.Content, Timestamp: m.Timestamp})
	}
	return msgs, nil
}

// Sessions implements chat.Provider.
func (c *Client) Sessions(ctx context.Context) ([]chat.SessionSummary, error) {
	var resp []chatSessionWire
	err := c.do(ctx, call{
		op:     "chat_sessions",
		method: http.MethodGet,
		path:   "/chat/sessions",
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]chat.SessionSummary, 0, len(resp))
	for _, s := range resp {
		out = append(out, chat.SessionSummary(s))
	}
	return out, nil
}

var _ chat.Provider = (*Client)(nil)
