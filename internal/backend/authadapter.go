package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// AuthError carries the backend's error code alongside the message so
// the session guard can map it to a user-facing string.
type AuthError struct {
	ErrCode string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Code returns the backend error code, e.g. "invalid-credential".
func (e *AuthError) Code() string { return e.ErrCode }

// Auth adapts the auth endpoints to the session guard's authenticator
// interface. Identity is the account email.
type Auth struct {
	client *Client
}

// NewAuth wraps the client for the session guard.
func NewAuth(c *Client) *Auth { return &Auth{client: c} }

// Login exchanges credentials for a token.
func (a *Auth) Login(ctx context.Context, email, password string) (string, string, error) {
	res, err := a.client.Login(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		return "", "", &AuthError{ErrCode: "network-request-failed", Message: err.Error()}
	}
	if !res.Success {
		return "", "", &AuthError{ErrCode: codeForMessage(res.Message), Message: res.Message}
	}
	return email, res.Token, nil
}

// Register creates an account and returns its first token.
func (a *Auth) Register(ctx context.Context, email, password string) (string, string, error) {
	res, err := a.client.RegisterUser(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		return "", "", &AuthError{ErrCode: "network-request-failed", Message: err.Error()}
	}
	if !res.Success {
		return "", "", &AuthError{ErrCode: codeForMessage(res.Message), Message: res.Message}
	}
	return email, res.Token, nil
}

// Refresh exchanges a token for a fresh one.
func (a *Auth) Refresh(ctx context.Context, token string) (string, error) {
	var out AuthResult
	resp, err := a.client.call(ctx, http.MethodPost, "/refresh_token", false, func(r *resty.Request) *resty.Request {
		return r.SetBody(map[string]string{"token": token}).SetResult(&out).SetError(&out)
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode() == http.StatusUnauthorized || !out.Success {
		return "", &AuthError{ErrCode: "invalid-credential", Message: "session expired"}
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("backend: refresh returned %s", resp.Status())
	}
	return out.Token, nil
}

// Logout invalidates the session server side.
func (a *Auth) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

// codeForMessage maps the auth endpoints' fixed messages back to error
// codes when the response carries no code of its own.
func codeForMessage(msg string) string {
	switch msg {
	case "Invalid credentials":
		return "invalid-credential"
	case "Email already exists":
		return "email-already-in-use"
	case "Password must be at least 6 characters":
		return "weak-password"
	case "Email and password are required":
		return "invalid-email"
	default:
		return "unknown"
	}
}
