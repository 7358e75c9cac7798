package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carelens/carelens/internal/identity"
)

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     identity.Role `json:"role,omitempty"`
	Phone    string        `json:"phone,omitempty"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userWire `json:"user"`
}

type userWire struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Role  string  `json:"role"`
	Phone *string `json:"phone"`
}

func (u userWire) toUser() identity.User {
	user := identity.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  identity.Role(u.Role),
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	return user
}

// Login authenticates and begins the client's session.
func (c *Client) Login(ctx context.Context, creds Credentials) (identity.User, error) {
	var resp authResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   creds,
	}, &resp)
	if err != nil {
		return identity.User{}, err
	}
	return c.begin(resp)
}

// Register creates an account and begins the client's session.
func (c *Client) Register(ctx context.Context, reg Registration) (identity.User, error) {
	if reg.Role == "" {
		reg.Role = identity.RolePatient
	}
	var resp authResponse
	err := c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/auth/register",
		body:   reg,
	}, &resp)
	if err != nil {
		return identity.User{}, err
	}
	return c.begin(resp)
}

// Me fetches the signed-in user and refreshes the session's copy.
func (c *Client) Me(ctx context.Context) (identity.User, error) {
	var resp userWire
	err := c.do(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   "/auth/me",
		auth:   true,
	}, &resp)
	if err != nil {
		return identity.User{}, err
	}
	user := resp.toUser()
	c.session.SetUser(user)
	return user, nil
}

// Logout ends the session. The backend keeps no server-side session.
func (c *Client) Logout() {
	c.session.End()
}

func (c *Client) begin(resp authResponse) (identity.User, error) {
	user := resp.User.toUser()
	if err := c.session.Begin(resp.Token, user); err != nil {
		return identity.User{}, fmt.Errorf("begin session: %w", err)
	}
	c.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("session started")
	return user, nil
}
