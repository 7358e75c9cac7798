package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/platform"
)

// SessionHooks are run around sign-in and sign-out.
type SessionHooks struct {
	// OnBegin runs after a successful sign-in or registration.
	OnBegin []func(identity.User)

	// OnEnd runs after sign-out, and before a new sign-in, so per-user
	// state is not shown to the next user.
	OnEnd []func()
}

// SessionHandler signs the local user in and out.
type SessionHandler struct {
	client *platform.Client
	logger zerolog.Logger
	hooks  SessionHooks
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(client *platform.Client, logger zerolog.Logger, hooks SessionHooks) *SessionHandler {
	return &SessionHandler{client: client, logger: logger, hooks: hooks}
}

// Login handles POST /v1/session.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	// A new sign-in replaces whoever was signed in before.
	h.end()
	user, err := h.client.Login(r.Context(), platform.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, platform.ErrUnauthorized) {
			response.Unauthorized(w, r, "invalid email or password")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	h.begin(user)

	response.JSON(w, r, http.StatusOK, h.current())
}

// Register handles POST /v1/session/register.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	h.end()
	user, err := h.client.Register(r.Context(), platform.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.begin(user)

	response.Created(w, r, "/v1/session", h.current())
}

// Get handles GET /v1/session. With ?refresh=true the user is re-read from
// the backend, which also detects a token the server no longer accepts.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" && h.client.Session().Active() {
		if _, err := h.client.Me(r.Context()); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	response.JSON(w, r, http.StatusOK, h.current())
}

// Logout handles DELETE /v1/session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.end()
	response.NoContent(w, r)
}

func (h *SessionHandler) begin(user identity.User) {
	for _, fn := range h.hooks.OnBegin {
		fn(user)
	}
}

func (h *SessionHandler) end() {
	h.client.Logout()
	for _, fn := range h.hooks.OnEnd {
		fn()
	}
}

func (h *SessionHandler) current() models.SessionResponse {
	sess := h.client.Session()
	if !sess.Active() {
		return models.SessionResponse{}
	}
	user, _ := sess.User()
	resp := models.SessionResponse{Active: true, User: &user}
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		ts := models.Timestamp(exp)
		resp.ExpiresAt = &ts
	}
	return resp
}
