package flows

import (
	"context"
	"strconv"
	"time"

	"github.com/MrEthical07/goRecover/api"
)

// Deps groups flow dependency sets. The root client builds this once and
// every flow instance runs its steps through the same immutable wiring.
type Deps struct {
	Request RequestDeps
	Verify  VerifyDeps
	Reset   ResetDeps
}

// Messages are the user-facing texts produced by the flows. Server messages
// take precedence over the *Failed / VerifyInvalid fallbacks.
type Messages struct {
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

// Errors are the sentinels attached to outcomes, supplied by the root package
// so errors.Is works against its exported values.
type Errors struct {
	NotReady         error
	EmptyEmail       error
	PasswordTooShort error
	PasswordMismatch error
	MissingToken     error
	Throttled        error
	Application      error
	Transport        error
}

// Hooks are the observability callbacks shared by every flow step.
type Hooks struct {
	Now            func() time.Time
	ObserveLatency func(op string, d time.Duration)
	MetricInc      func(int)
	EmitEvent      func(ctx context.Context, eventType string, success bool, kind ErrorKind, message string, metadata func() map[string]string)
}

type (
	RequestResetFunc  func(context.Context, string) (*api.Response, error)
	VerifyTokenFunc   func(context.Context, string) (*api.Response, error)
	ResetPasswordFunc func(context.Context, string, string) (*api.Response, error)
)

func normalizeHooks(h *Hooks) {
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.ObserveLatency == nil {
		h.ObserveLatency = func(string, time.Duration) {}
	}
	if h.MetricInc == nil {
		h.MetricInc = func(int) {}
	}
	if h.EmitEvent == nil {
		h.EmitEvent = func(context.Context, string, bool, ErrorKind, string, func() map[string]string) {}
	}
}

func statusMetadata(resp *api.Response) func() map[string]string {
	if resp == nil || resp.StatusCode == 0 {
		return nil
	}
	return func() map[string]string {
		return map[string]string{
			"status_code": strconv.Itoa(resp.StatusCode),
		}
	}
}

func reasonMetadata(reason string) func() map[string]string {
	if reason == "" {
		return nil
	}
	return func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	}
}

func retryMetadata(retryIn time.Duration) func() map[string]string {
	if retryIn <= 0 {
		return nil
	}
	return func() map[string]string {
		return map[string]string{
			"retry_in_seconds": strconv.FormatInt(int64(retryIn.Round(time.Second)/time.Second), 10),
		}
	}
}
