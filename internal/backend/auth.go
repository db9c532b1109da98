package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Credentials is a login or registration payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. Auth endpoints bypass the
// bearer injection since no token exists yet.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var out AuthResult
	resp, err := c.call(ctx, http.MethodPost, "/login", false, func(r *resty.Request) *resty.Request {
		return r.SetBody(creds).SetResult(&out).SetError(&out)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("backend: login returned %s", resp.Status())
	}
	return &out, nil
}

// RegisterUser creates an account. Validation failures come back in the
// result rather than as errors so callers can surface the message.
func (c *Client) RegisterUser(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var out AuthResult
	resp, err := c.call(ctx, http.MethodPost, "/register", false, func(r *resty.Request) *resty.Request {
		return r.SetBody(creds).SetResult(&out).SetError(&out)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("backend: register returned %s", resp.Status())
	}
	return &out, nil
}

// Logout invalidates the current session server side.
func (c *Client) Logout(ctx context.Context) error {
	var out ActionResult
	return c.postJSON(ctx, "/logout", nil, &out)
}

// CheckAuth verifies the current token is still accepted.
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	resp, err := c.call(ctx, http.MethodGet, "/check_auth", true, nil)
	if err != nil {
		return false, err
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("backend: check_auth returned %s", resp.Status())
	}
}
