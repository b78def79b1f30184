package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OpRequestReset  = "request_reset"
	OpVerifyToken   = "verify_token"
	OpResetPassword = "reset_password"

	DefaultRequestResetPath  = "/auth/forgot-password"
	DefaultVerifyTokenPath   = "/auth/reset-password"
	DefaultResetPasswordPath = "/auth/reset-password"

	maxResponseBytes = 1 << 20
)

// Config holds the HTTP binding of the reset operations.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestResetPath  string
	VerifyTokenPath   string
	ResetPasswordPath string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client calls the reset API. It is safe for concurrent use.
type Client struct {
	baseURL           string
	requestResetPath  string
	verifyTokenPath   string
	resetPasswordPath string
	userAgent         string
	httpClient        *http.Client
	logger            *zap.Logger
	newRequestID      func() string
}

type requestResetBody struct {
	Email string `json:"email"`
}

type resetPasswordBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// New builds a Client. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:           base,
		requestResetPath:  pathOrDefault(cfg.RequestResetPath, DefaultRequestResetPath),
		verifyTokenPath:   strings.TrimRight(pathOrDefault(cfg.VerifyTokenPath, DefaultVerifyTokenPath), "/"),
		resetPasswordPath: pathOrDefault(cfg.ResetPasswordPath, DefaultResetPasswordPath),
		userAgent:         cfg.UserAgent,
		httpClient:        httpClient,
		logger:            logger.Named("api"),
		newRequestID:      uuid.NewString,
	}, nil
}

// RequestReset asks the server to email a reset link to email.
func (c *Client) RequestReset(ctx context.Context, email string) (*Response, error) {
	return c.do(ctx, OpRequestReset, http.MethodPost, c.requestResetPath, requestResetBody{Email: email})
}

// VerifyToken checks a reset token. The token travels as a path segment.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, OpVerifyToken, http.MethodGet, c.verifyTokenPath+"/"+url.PathEscape(token), nil)
}

// ResetPassword submits the new password for the account bound to token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*Response, error) {
	return c.do(ctx, OpResetPassword, http.MethodPost, c.resetPasswordPath, resetPasswordBody{
		Token:       token,
		NewPassword: newPassword,
	})
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := c.newRequestID()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("sending reset api request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("reset api request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("failed to read reset api response",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err))
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	out := &Response{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			if !json.Valid(raw) {
				c.logger.Error("reset api returned malformed body",
					zap.String("op", op),
					zap.String("request_id", requestID),
					zap.Int("status_code", resp.StatusCode),
					zap.Error(err))
				return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
			}
			// Valid JSON of the wrong shape carries no discriminator.
			c.logger.Warn("reset api returned unexpected body shape",
				zap.String("op", op),
				zap.String("request_id", requestID),
				zap.Int("status_code", resp.StatusCode),
				zap.Error(err))
			out = &Response{StatusCode: resp.StatusCode}
		}
	}
	out.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("reset api returned non-2xx status",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode))
	} else {
		c.logger.Debug("reset api request completed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode))
	}

	return out, nil
}

func pathOrDefault(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return def
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
