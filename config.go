package goRecover

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goRecover/internal/flows"
)

// Config holds every tunable of a Client. Build it with DefaultConfig, set
// API.BaseURL, and pass it to Builder.WithConfig.
type Config struct {
	API      APIConfig
	Password PasswordConfig
	Messages MessagesConfig
	Throttle ThrottleConfig
	Events   EventsConfig
	Metrics  MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig binds the three reset operations to one HTTP server. BaseURL is
// the only value without a default.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	RequestResetPath  string
	VerifyTokenPath   string
	ResetPasswordPath string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig sets the local password rules applied before submission.
type PasswordConfig struct {
	MinLength int
}

/*
====================================
MESSAGES CONFIG
====================================
*/

// MessagesConfig holds the user-facing texts. Server-provided messages take
// precedence over RequestFailed, VerifyInvalid and ResetFailed.
type MessagesConfig struct {
	RequestSent      string
	RequestFailed    string
	RequestTransport string
	RequestThrottled string
	EmptyEmail       string

	VerifyInvalid   string
	VerifyTransport string
	MissingToken    string

	PasswordTooShort string
	PasswordMismatch string
	ResetFailed      string
	ResetTransport   string
	ResetCompleted   string
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig enables the Redis fixed-window limit on reset requests per
// email. It requires Builder.WithRedis.
type ThrottleConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
	RedisPrefix string
}

/*
====================================
EVENTS & METRICS CONFIG
====================================
*/

// EventsConfig controls asynchronous flow-event delivery.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a complete configuration except for API.BaseURL.
func DefaultConfig() Config {
	return defaultConfig()
}

const defaultMinPasswordLength = 6

func passwordTooShortMessage(minLength int) string {
	return fmt.Sprintf("Password must be at least %d characters long.", minLength)
}

// deriveMessages rewrites the default too-short message for a non-default
// MinLength. Caller-supplied text is left alone.
func (c *Config) deriveMessages() {
	if c.Messages.PasswordTooShort == passwordTooShortMessage(defaultMinPasswordLength) {
		c.Messages.PasswordTooShort = passwordTooShortMessage(c.Password.MinLength)
	}
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   15 * time.Second,
			UserAgent: "goRecover",
		},
		Password: PasswordConfig{
			MinLength: defaultMinPasswordLength,
		},
		Messages: MessagesConfig{
			RequestSent:      "If an account with that email exists, a password reset link has been sent.",
			RequestFailed:    "Failed to send reset email. Please try again.",
			RequestTransport: "Unable to reach the server. Please check your connection and try again.",
			RequestThrottled: "Too many reset requests. Please wait before trying again.",
			EmptyEmail:       "Please enter your email address.",
			VerifyInvalid:    "Invalid or expired reset link.",
			VerifyTransport:  "Failed to verify reset link. Please try again later.",
			MissingToken:     "This reset link is incomplete. Please request a new one.",
			PasswordTooShort: passwordTooShortMessage(defaultMinPasswordLength),
			PasswordMismatch: "Passwords do not match.",
			ResetFailed:      "Failed to reset password. Please try again.",
			ResetTransport:   "Unable to reach the server. Your password was not changed, please submit again.",
			ResetCompleted:   "Your password has been reset. You can now log in.",
		},
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxRequests: 3,
			Window:      15 * time.Minute,
			RedisPrefix: "grr",
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

func (m MessagesConfig) flowMessages() flows.Messages {
	return flows.Messages{
		RequestSent:      m.RequestSent,
		RequestFailed:    m.RequestFailed,
		RequestTransport: m.RequestTransport,
		RequestThrottled: m.RequestThrottled,
		EmptyEmail:       m.EmptyEmail,
		VerifyInvalid:    m.VerifyInvalid,
		VerifyTransport:  m.VerifyTransport,
		MissingToken:     m.MissingToken,
		PasswordTooShort: m.PasswordTooShort,
		PasswordMismatch: m.PasswordMismatch,
		ResetFailed:      m.ResetFailed,
		ResetTransport:   m.ResetTransport,
		ResetCompleted:   m.ResetCompleted,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem, including a missing
// API.BaseURL.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireBaseURL bool) error {
	// API
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		if requireBaseURL {
			return errors.New("API BaseURL must be set")
		}
	} else {
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("API BaseURL is invalid: %v", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("API BaseURL must use http or https")
		}
		if u.Host == "" {
			return errors.New("API BaseURL must include a host")
		}
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}
	if !validPath(c.API.RequestResetPath) {
		return errors.New("API RequestResetPath must start with /")
	}
	if !validPath(c.API.VerifyTokenPath) {
		return errors.New("API VerifyTokenPath must start with /")
	}
	if !validPath(c.API.ResetPasswordPath) {
		return errors.New("API ResetPasswordPath must start with /")
	}

	// Password
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Messages
	if err := c.Messages.validate(); err != nil {
		return err
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxRequests <= 0 {
			return errors.New("Throttle MaxRequests must be > 0 when Enabled")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle Window must be > 0 when Enabled")
		}
		if strings.TrimSpace(c.Throttle.RedisPrefix) == "" {
			return errors.New("Throttle RedisPrefix must be set when Enabled")
		}
	}

	// Events
	if c.Events.BufferSize < 0 {
		return errors.New("Events BufferSize must be >= 0")
	}
	if c.Events.Enabled && c.Events.BufferSize == 0 {
		return errors.New("Events BufferSize must be > 0 when Enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (m MessagesConfig) validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"RequestSent", m.RequestSent},
		{"RequestFailed", m.RequestFailed},
		{"RequestTransport", m.RequestTransport},
		{"RequestThrottled", m.RequestThrottled},
		{"EmptyEmail", m.EmptyEmail},
		{"VerifyInvalid", m.VerifyInvalid},
		{"VerifyTransport", m.VerifyTransport},
		{"MissingToken", m.MissingToken},
		{"PasswordTooShort", m.PasswordTooShort},
		{"PasswordMismatch", m.PasswordMismatch},
		{"ResetFailed", m.ResetFailed},
		{"ResetTransport", m.ResetTransport},
		{"ResetCompleted", m.ResetCompleted},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("Messages %s must be set", f.name)
		}
	}
	return nil
}

func validPath(p string) bool {
	return p == "" || strings.HasPrefix(p, "/")
}
