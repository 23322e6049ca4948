package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hustlefy/hustlefy_be/internal/models"
)

// AuthError is the normalized failure every auth operation rejects
// with: the server's message when it sent one, an operation-specific
// fallback otherwise.
type AuthError struct {
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// Client issues the auth operations against the backend. A successful
// operation is the only path that mutates the session service and its
// persisted store.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Service
}

func NewClient(baseURL string, sess *Service) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: sess,
	}
}

const networkErrMsg = "Network error. Please check your connection."

func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, authed bool, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return &AuthError{Op: op, Message: op + " failed", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return &AuthError{Op: op, Message: op + " failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if tok := c.Session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &AuthError{Op: op, Message: networkErrMsg, Err: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &AuthError{Op: op, Message: op + " failed", Status: resp.StatusCode, Err: err}
	}
	return nil
}

func fallback(serverMsg, def string) string {
	if serverMsg != "" {
		return serverMsg
	}
	return def
}

type credentialEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		User  *models.User `json:"user"`
		Token string       `json:"token"`
	} `json:"data"`
}

// LoginWithCredentials signs in with email/password. The login
// response nests user and token under data.
func (c *Client) LoginWithCredentials(ctx context.Context, email, password string) error {
	var env credentialEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "Login", http.MethodPost, "/auth/login", body, false, &env); err != nil {
		return err
	}
	if env.Data.User == nil || env.Data.Token == "" {
		return &AuthError{Op: "Login", Message: fallback(env.Message, "Login failed")}
	}
	c.Session.Login(env.Data.User, env.Data.Token)
	return nil
}

// GoogleLoginResult carries the extra flags the Google endpoint
// returns alongside the session.
type GoogleLoginResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	IsNewUser bool         `json:"isNewUser"`
	Message   string       `json:"message"`
}

// LoginWithGoogle exchanges a Google Sign-In credential. This
// endpoint keeps user and token at the top level.
func (c *Client) LoginWithGoogle(ctx context.Context, credential string) (*GoogleLoginResult, error) {
	var res GoogleLoginResult
	body := map[string]string{"credential": credential}
	if err := c.do(ctx, "Google sign-in", http.MethodPost, "/auth/google", body, false, &res); err != nil {
		return nil, err
	}
	if res.User == nil || res.Token == "" {
		return nil, &AuthError{Op: "Google sign-in", Message: fallback(res.Message, "Google sign-in failed")}
	}
	c.Session.Login(res.User, res.Token)
	return &res, nil
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

// RegisterUser creates an account and signs straight in.
func (c *Client) RegisterUser(ctx context.Context, req RegisterRequest) error {
	var env credentialEnvelope
	if err := c.do(ctx, "Registration", http.MethodPost, "/auth/register", req, false, &env); err != nil {
		return err
	}
	if env.Data.User == nil || env.Data.Token == "" {
		return &AuthError{Op: "Registration", Message: fallback(env.Message, "Registration failed")}
	}
	c.Session.Login(env.Data.User, env.Data.Token)
	return nil
}

// ProfileUpdateRequest is the explicit profile-edit payload; nil
// fields are left untouched server-side.
type ProfileUpdateRequest struct {
	Name           *string   `json:"name,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Location       *string   `json:"location,omitempty"`
	WorkCategories *[]string `json:"workCategories,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
}

type profileEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *models.User `json:"data"`
	Token   string       `json:"token"`
}

// UpdateProfile edits the profile; the server issues a fresh token on
// profile change, so a success rotates the persisted one and replaces
// the in-memory user.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) error {
	var env profileEnvelope
	if err := c.do(ctx, "Profile update", http.MethodPut, "/profile", req, true, &env); err != nil {
		return err
	}
	if env.Data == nil || env.Token == "" {
		return &AuthError{Op: "Profile update", Message: fallback(env.Message, "Profile update failed")}
	}
	c.Session.RotateToken(env.Token)
	c.Session.ReplaceUser(env.Data)
	return nil
}
