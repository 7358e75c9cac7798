package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/chat"
)

// ChatHandler serves the assistant conversation.
type ChatHandler struct {
	manager *chat.Manager
	logger  zerolog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(manager *chat.Manager, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{manager: manager, logger: logger}
}

// Get handles GET /v1/chat. Quick prompts are offered until the user has
// said something.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.view())
}

// Send handles POST /v1/chat/messages. A failed exchange still answers 200:
// the reply is the error message appended to the transcript, marked
// is_error. Only authorization failures are reported as errors.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.manager.Send(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.ChatMessageResponse{
		Reply:   reply,
		Session: h.manager.Snapshot(),
	})
}

// Reset handles POST /v1/chat/reset.
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.manager.Reset()
	response.JSON(w, r, http.StatusOK, h.view())
}

// SetLanguage handles PUT /v1/chat/language.
func (h *ChatHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req models.LanguageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.manager.SetLanguage(req.Language); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.view())
}

// Sessions handles GET /v1/chat/sessions.
func (h *ChatHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.manager.Sessions(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if sessions == nil {
		sessions = []chat.SessionSummary{}
	}
	response.JSON(w, r, http.StatusOK, models.SessionsResponse{Sessions: sessions})
}

// Resume handles POST /v1/chat/resume.
func (h *ChatHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req models.ResumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.manager.Resume(r.Context(), req.SessionID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, h.view())
}

func (h *ChatHandler) view() models.ChatView {
	snap := h.manager.Snapshot()
	view := models.ChatView{Session: snap, Languages: chat.Languages}
	if !hasUserMessage(snap.Messages) {
		view.QuickPrompts = chat.QuickPrompts()
	}
	return view
}

func hasUserMessage(msgs []chat.Message) bool {
	for _, m := range msgs {
		if m.Role == chat.RoleUser {
			return true
		}
	}
	return false
}
