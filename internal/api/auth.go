package api

import (
	"context"
	"net/http"
	"net/url"

	"campushub/internal/types"
)

// Token is the credential exchange response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Year     int    `json:"year,omitempty"`
	Grade    string `json:"grade,omitempty"`
}

// ProfileUpdate carries mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Nickname *string `json:"nickname,omitempty"`
	Year     *int    `json:"year,omitempty"`
	Grade    *string `json:"grade,omitempty"`
	Major    *string `json:"major,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// Login exchanges credentials for a token. The endpoint expects a
// form-encoded body with username/password fields.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok Token
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, form, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*types.User, error) {
	var user types.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the authenticated identity.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe updates the authenticated profile.
func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) (*types.User, error) {
	var user types.User
	if err := c.do(ctx, http.MethodPut, "/auth/me", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword swaps the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.do(ctx, http.MethodPut, "/auth/password", nil, body, nil)
}
