package api

import (
	"context"
	"fmt"
	"net/http"
)

// User is the authenticated account.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Credentials identify an account at login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (token string, user *User, err error) {
	var payload struct {
		User  *User  `json:"user"`
		Token string `json:"token"`
	}
	if _, err = c.do(ctx, http.MethodPost, "/login", "", creds, &payload); err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if payload.Token == "" {
		return "", nil, &Error{Kind: ServerError, Status: http.StatusOK, Message: "login response carried no token"}
	}
	return payload.Token, payload.User, nil
}

// Logout revokes the token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	if _, err := c.do(ctx, http.MethodPost, "/logout", token, struct{}{}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if _, err := c.get(ctx, "/user", token, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}
