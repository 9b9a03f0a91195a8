// Package backend implements the ports.IdentityAPI and ports.ContentAPI
// interfaces against the remote REST API. Failures are normalized into
// *domain.RemoteError so the core can branch on fault kind and status without
// knowing anything about HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahafa/appcore/internal/core/domain"
	"github.com/sahafa/appcore/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// Client is a thin JSON client over the backend API. Per-call deadlines come
// from the caller's context; the embedded http.Client timeout is only a
// safety net for calls issued without one.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds a Client for the given base URL. A non-positive timeout
// falls back to a default.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// errorEnvelope is the backend's canonical error body: {"message": "..."}.
type errorEnvelope struct {
	Message string `json:"message"`
}

// do issues one JSON request. Transport failures become network-class
// RemoteErrors (no backend response existed); non-2xx responses become
// server-class RemoteErrors carrying the status and the backend message.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RemoteError{Kind: domain.FaultNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend returned error status")
		return &domain.RemoteError{
			Kind:       domain.FaultServer,
			StatusCode: resp.StatusCode,
			Message:    env.Message,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &domain.RemoteError{
				Kind:       domain.FaultServer,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("malformed response body: %v", err),
			}
		}
	}
	return nil
}

// ---- identity surface ----

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*ports.SignupResult, error) {
	var resp signupResponse
	err := c.do(ctx, http.MethodPost, "/signup", "", signupRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.SignupResult{Token: resp.Token, Role: resp.Role, Email: resp.Email}, nil
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinResponse struct {
	Token string `json:"token"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var resp signinResponse
	err := c.do(ctx, http.MethodPost, "/signin", "", signinRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

type meResponse struct {
	Role          string `json:"role"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verifiedEmail"`
}

func (c *Client) Me(ctx context.Context, token string) (*ports.Identity, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &ports.Identity{Role: resp.Role, Email: resp.Email, VerifiedEmail: resp.VerifiedEmail}, nil
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

func (c *Client) VerifyEmail(ctx context.Context, token, code string) error {
	return c.do(ctx, http.MethodPost, "/verify-email", token, verifyEmailRequest{Code: code}, nil)
}

func (c *Client) SendVerificationCode(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/send-verification-code", token, nil, nil)
}

func (c *Client) ResendVerificationCode(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/resend-verification-code", token, nil, nil)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type updateRoleResponse struct {
	Role string `json:"role"`
}

func (c *Client) UpdateRole(ctx context.Context, token, role string) (string, error) {
	var resp updateRoleResponse
	if err := c.do(ctx, http.MethodPatch, "/update-role", token, updateRoleRequest{Role: role}, &resp); err != nil {
		return "", err
	}
	if resp.Role == "" {
		// Older backend versions echo nothing; the requested role stands.
		return role, nil
	}
	return resp.Role, nil
}

// ---- content surface ----

func (c *Client) HomeArticles(ctx context.Context) ([]domain.Article, error) {
	var out []domain.Article
	if err := c.do(ctx, http.MethodGet, "/articles/home", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RandomJournalists(ctx context.Context) ([]domain.Journalist, error) {
	var out []domain.Journalist
	if err := c.do(ctx, http.MethodGet, "/journalists/random", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchArticles(ctx context.Context) ([]domain.Article, error) {
	var out []domain.Article
	if err := c.do(ctx, http.MethodGet, "/article/search", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) HomeHeadlines(ctx context.Context) ([]domain.Headline, error) {
	var out []domain.Headline
	if err := c.do(ctx, http.MethodGet, "/articles/home/headlines", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecentVideos(ctx context.Context) ([]domain.Video, error) {
	var out []domain.Video
	if err := c.do(ctx, http.MethodGet, "/videos/home?page=1&limit=5", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UserProfile(ctx context.Context, token string) (*domain.UserProfile, error) {
	var out domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/user/profile/", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ ports.IdentityAPI = (*Client)(nil)
var _ ports.ContentAPI = (*Client)(nil)
