package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goRecover/api"
	"github.com/MrEthical07/goRecover/validate"
)

type RequestMetrics struct {
	Submitted        int
	Accepted         int
	Rejected         int
	TransportFault   int
	ValidationFailed int
	Throttled        int
}

type RequestEvents struct {
	Submit string
}

type RequestDeps struct {
	Hooks

	// Throttle is optional. Errors for which IsThrottled is false are handed
	// to ThrottleUnavailable and the request proceeds. ThrottleRetryIn, when
	// set, reports how long a throttled email must wait.
	Throttle            func(context.Context, string) error
	IsThrottled         func(error) bool
	ThrottleUnavailable func(error)
	ThrottleRetryIn     func(context.Context, string) time.Duration

	RequestReset RequestResetFunc

	Messages Messages
	Metrics  RequestMetrics
	Events   RequestEvents
	Errors   Errors
}

// PrepareRequest validates the raw email input. On success it returns the
// trimmed email and an OK outcome. It has no side effects so callers may run
// it under their own lock; report failures with RecordRequestRejected.
func PrepareRequest(email string, deps RequestDeps) (string, Outcome) {
	trimmed := strings.TrimSpace(email)
	if !validate.EmailNonEmpty(trimmed) {
		return "", Outcome{
			Kind:    KindValidation,
			Message: deps.Messages.EmptyEmail,
			Err:     deps.Errors.EmptyEmail,
			Reason:  "empty_email",
		}
	}
	return trimmed, Outcome{}
}

// RecordRequestRejected counts and emits a failed PrepareRequest outcome.
func RecordRequestRejected(ctx context.Context, out Outcome, deps RequestDeps) {
	if out.OK() {
		return
	}
	normalizeRequestDeps(&deps)
	deps.MetricInc(deps.Metrics.ValidationFailed)
	deps.EmitEvent(ctx, deps.Events.Submit, false, out.Kind, out.Message, reasonMetadata(out.Reason))
}

// RunRequestReset submits an email accepted by PrepareRequest. A success
// outcome always carries the same message so account existence never shows.
func RunRequestReset(ctx context.Context, email string, deps RequestDeps) Outcome {
	normalizeRequestDeps(&deps)

	if deps.RequestReset == nil {
		return Outcome{
			Kind:    KindApplication,
			Message: deps.Messages.RequestFailed,
			Err:     deps.Errors.NotReady,
		}
	}

	if deps.Throttle != nil {
		if err := deps.Throttle(ctx, email); err != nil {
			if deps.IsThrottled(err) {
				var retryIn time.Duration
				if deps.ThrottleRetryIn != nil {
					retryIn = deps.ThrottleRetryIn(ctx, email)
				}
				deps.MetricInc(deps.Metrics.Throttled)
				deps.EmitEvent(ctx, deps.Events.Submit, false, KindThrottled, deps.Messages.RequestThrottled, retryMetadata(retryIn))
				return Outcome{
					Kind:    KindThrottled,
					Message: deps.Messages.RequestThrottled,
					Err:     deps.Errors.Throttled,
					RetryIn: retryIn,
				}
			}
			deps.ThrottleUnavailable(err)
		}
	}

	deps.MetricInc(deps.Metrics.Submitted)
	start := deps.Now()
	resp, err := deps.RequestReset(ctx, email)
	deps.ObserveLatency(api.OpRequestReset, deps.Now().Sub(start))

	if err != nil {
		msg := validate.ServerMessage(nil, deps.Messages.RequestTransport)
		deps.MetricInc(deps.Metrics.TransportFault)
		deps.EmitEvent(ctx, deps.Events.Submit, false, KindTransport, msg, nil)
		return Outcome{
			Kind:    KindTransport,
			Message: msg,
			Err:     errors.Join(deps.Errors.Transport, err),
		}
	}

	if !resp.OK() {
		msg := validate.ServerMessage(resp, deps.Messages.RequestFailed)
		deps.MetricInc(deps.Metrics.Rejected)
		deps.EmitEvent(ctx, deps.Events.Submit, false, KindApplication, msg, statusMetadata(resp))
		return Outcome{
			Kind:    KindApplication,
			Message: msg,
			Err:     deps.Errors.Application,
		}
	}

	deps.MetricInc(deps.Metrics.Accepted)
	deps.EmitEvent(ctx, deps.Events.Submit, true, KindNone, deps.Messages.RequestSent, nil)
	return Outcome{
		Kind:    KindNone,
		Message: deps.Messages.RequestSent,
	}
}

func normalizeRequestDeps(deps *RequestDeps) {
	normalizeHooks(&deps.Hooks)
	if deps.IsThrottled == nil {
		deps.IsThrottled = func(error) bool { return true }
	}
	if deps.ThrottleUnavailable == nil {
		deps.ThrottleUnavailable = func(error) {}
	}
}
