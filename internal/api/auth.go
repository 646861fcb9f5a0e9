package api

import (
	"context"
	"errors"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Login exchanges credentials for a token. A plain 401 (no error code) means
// bad credentials, reworded for the user; the session is not touched here,
// the caller persists the returned credential.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		var re *RemoteError
		if errors.As(err, &re) && re.Status == http.StatusUnauthorized {
			return AuthResponse{}, &RemoteError{Status: re.Status, Message: "invalid email or password"}
		}
		return AuthResponse{}, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, email, password, name string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, "register", http.MethodPost, "/auth/register", registerRequest{Email: email, Password: password, Name: name}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// Logout tells the backend to revoke the presented token. Best effort: the
// caller clears local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var out User
	if err := c.do(ctx, "profile", http.MethodGet, "/users/profile", nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (User, error) {
	var out User
	if err := c.do(ctx, "update_profile", http.MethodPatch, "/users/profile", upd, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, "delete_account", http.MethodDelete, "/users/me", nil, nil)
}
