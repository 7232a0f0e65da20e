package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"botclient/internal/pkg/errs"
)

// Credentials are the inputs of a login attempt.
type Credentials struct {
	Username string
	Password string
}

// Registration are the inputs of a signup attempt.
// Role is sent only when the contract has roles and Role is non-empty.
type Registration struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ID is a backend identifier. The backend sends ids as JSON numbers and older
// deployments sometimes as strings; both decode to the same text.
type ID string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// LoginResult is the success payload of a login call.
type LoginResult struct {
	Msg    string `json:"msg"`
	UserID ID     `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// SignupResult is the success payload of a signup call.
type SignupResult struct {
	Msg string `json:"msg"`
}

// Login posts credentials to the contract's login endpoint.
// A success response without a user id is reported as ErrInvalidResponse.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	payload := map[string]any{
		c.contract.UsernameField: creds.Username,
		"password":               creds.Password,
	}

	body, err := c.Request(ctx, c.contract.LoginPath, Options{Method: http.MethodPost, Body: payload})
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := body.Decode(&result); err != nil {
		return nil, err
	}
	if result.UserID == "" {
		return nil, errs.NewError(errs.ErrInvalidResponse)
	}
	if !c.contract.Roles {
		result.Role = ""
	}

	c.logger.Debug().Str("user_id", result.UserID.String()).Msg("Login accepted")
	return &result, nil
}

// Signup posts a registration to the contract's signup endpoint.
func (c *Client) Signup(ctx context.Context, reg Registration) (*SignupResult, error) {
	payload := map[string]any{
		c.contract.UsernameField: reg.Username,
		"email":                  reg.Email,
		"password":               reg.Password,
	}
	if c.contract.Roles && reg.Role != "" {
		payload["role"] = reg.Role
	}

	body, err := c.Request(ctx, c.contract.SignupPath, Options{Method: http.MethodPost, Body: payload})
	if err != nil {
		return nil, err
	}

	var result SignupResult
	if body.JSON {
		if err := body.Decode(&result); err != nil {
			return nil, err
		}
	} else {
		result.Msg = strings.TrimSpace(body.Text())
	}

	return &result, nil
}

// Logout ends the server-side session. It is a no-op for contracts without a
// logout endpoint.
func (c *Client) Logout(ctx context.Context) error {
	if c.contract.LogoutPath == "" {
		return nil
	}

	_, err := c.Request(ctx, c.contract.LogoutPath, Options{Method: http.MethodPost})
	return err
}
