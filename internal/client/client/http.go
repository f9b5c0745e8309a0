package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/logging"
)

const maxResponseBytes = 1 << 20

// envelope is the common response shape of the API.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API rooted at baseURL
// (e.g. http://localhost:5000/api). timeout bounds every call; zero means no
// client-side limit.
func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: missing host", baseURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &headerTransport{next: http.DefaultTransport},
		},
		logger: logger.With("component", "api"),
	}, nil
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return nil, err
	}
	return authResult(env)
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	return authResult(env)
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.do(withAccessToken(ctx, token), http.MethodPost, "/auth/logout", nil)
	return err
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*models.Identity, error) {
	env, err := c.do(withAccessToken(ctx, token), http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var id models.Identity
	if err := decodeData(env, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *HTTPClient) UpdateMe(ctx context.Context, token string, fields models.ProfileUpdate) (*models.Identity, error) {
	env, err := c.do(withAccessToken(ctx, token), http.MethodPut, "/auth/me", fields)
	if err != nil {
		return nil, err
	}
	var id models.Identity
	if err := decodeData(env, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *HTTPClient) CheckEmail(ctx context.Context, email string) (*models.ResetIdentity, error) {
	env, err := c.do(ctx, http.MethodPost, "/password-reset/check-email", map[string]string{"email": email})
	if err != nil {
		return nil, err
	}
	var id models.ResetIdentity
	if err := decodeData(env, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *HTTPClient) SendOTP(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/password-reset/send-otp", map[string]string{"email": email})
	return err
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) error {
	_, err := c.do(ctx, http.MethodPost, "/password-reset/verify-otp", map[string]string{"email": email, "otp": otp})
	return err
}

func (c *HTTPClient) ResendOTP(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/password-reset/resend-otp", map[string]string{"email": email})
	return err
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	body := map[string]string{
		"email":           email,
		"newPassword":     newPassword,
		"confirmPassword": confirmPassword,
	}
	_, err := c.do(ctx, http.MethodPost, "/password-reset/reset-password", body)
	return err
}

// do sends one JSON request and decodes the response envelope. Non-2xx
// statuses are returned as *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "request failed", "method", method, "path", path, "error", err)
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "request completed",
		"method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(resp.StatusCode, raw)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return &env, nil
}

// handleRequestError classifies failures that produced no HTTP response.
func (c *HTTPClient) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request canceled: %w", context.Canceled)
	}
	var urlErr *url.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
		return fmt.Errorf("%w: request timed out", ErrUnavailable)
	}
	return fmt.Errorf("%w: cannot connect to %s: %v", ErrUnavailable, c.baseURL, err)
}

func handleErrorResponse(status int, raw []byte) error {
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return &APIError{Status: status, Message: strings.TrimSpace(env.Message)}
}

func decodeData(env *envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrBadResponse)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return nil
}

func authResult(env *envelope) (*models.AuthResult, error) {
	if env.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrBadResponse)
	}
	var id models.Identity
	if err := decodeData(env, &id); err != nil {
		return nil, err
	}
	return &models.AuthResult{Token: env.Token, Identity: id}, nil
}
