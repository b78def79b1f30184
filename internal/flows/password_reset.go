package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goRecover/api"
	"github.com/MrEthical07/goRecover/validate"
)

type VerifyMetrics struct {
	Valid          int
	Invalid        int
	TransportFault int
	MissingToken   int
}

type VerifyEvents struct {
	Verify       string
	MissingToken string
}

type VerifyDeps struct {
	Hooks

	VerifyToken VerifyTokenFunc

	Messages Messages
	Metrics  VerifyMetrics
	Events   VerifyEvents
	Errors   Errors
}

type ResetMetrics struct {
	Submitted        int
	Success          int
	Rejected         int
	TransportFault   int
	ValidationFailed int
}

type ResetEvents struct {
	Submit string
}

type ResetDeps struct {
	Hooks

	MinPasswordLength int
	ResetPassword     ResetPasswordFunc

	Messages Messages
	Metrics  ResetMetrics
	Events   ResetEvents
	Errors   Errors
}

// RunMissingToken records a reset entry without a token.
func RunMissingToken(ctx context.Context, deps VerifyDeps) Outcome {
	normalizeVerifyDeps(&deps)

	deps.MetricInc(deps.Metrics.MissingToken)
	deps.EmitEvent(ctx, deps.Events.MissingToken, false, KindMissingToken, deps.Messages.MissingToken, nil)
	return Outcome{
		Kind:    KindMissingToken,
		Message: deps.Messages.MissingToken,
		Err:     deps.Errors.MissingToken,
	}
}

// RunVerifyToken checks token against the server. A success response without
// an email is treated as an invalid link.
func RunVerifyToken(ctx context.Context, token string, deps VerifyDeps) Outcome {
	normalizeVerifyDeps(&deps)

	if strings.TrimSpace(token) == "" {
		return RunMissingToken(ctx, deps)
	}
	if deps.VerifyToken == nil {
		return Outcome{
			Kind:    KindApplication,
			Message: deps.Messages.VerifyInvalid,
			Err:     deps.Errors.NotReady,
		}
	}

	start := deps.Now()
	resp, err := deps.VerifyToken(ctx, token)
	deps.ObserveLatency(api.OpVerifyToken, deps.Now().Sub(start))

	if err != nil {
		msg := validate.ServerMessage(nil, deps.Messages.VerifyTransport)
		deps.MetricInc(deps.Metrics.TransportFault)
		deps.EmitEvent(ctx, deps.Events.Verify, false, KindTransport, msg, nil)
		return Outcome{
			Kind:    KindTransport,
			Message: msg,
			Err:     errors.Join(deps.Errors.Transport, err),
		}
	}

	if !resp.OK() {
		msg := validate.ServerMessage(resp, deps.Messages.VerifyInvalid)
		deps.MetricInc(deps.Metrics.Invalid)
		deps.EmitEvent(ctx, deps.Events.Verify, false, KindApplication, msg, statusMetadata(resp))
		return Outcome{
			Kind:    KindApplication,
			Message: msg,
			Err:     deps.Errors.Application,
		}
	}

	email := strings.TrimSpace(resp.Email())
	if email == "" {
		deps.MetricInc(deps.Metrics.Invalid)
		deps.EmitEvent(ctx, deps.Events.Verify, false, KindApplication, deps.Messages.VerifyInvalid, func() map[string]string {
			return map[string]string{
				"reason": "missing_email",
			}
		})
		return Outcome{
			Kind:    KindApplication,
			Message: deps.Messages.VerifyInvalid,
			Err:     deps.Errors.Application,
		}
	}

	deps.MetricInc(deps.Metrics.Valid)
	deps.EmitEvent(ctx, deps.Events.Verify, true, KindNone, "", nil)
	return Outcome{
		Kind:  KindNone,
		Email: email,
	}
}

// PrepareReset applies the local password rules: the length floor first,
// then the confirmation match. Like PrepareRequest it has no side effects;
// report failures with RecordResetRejected.
func PrepareReset(newPassword, confirmPassword string, deps ResetDeps) Outcome {
	normalizeResetDeps(&deps)

	if !validate.PasswordPolicy(newPassword, deps.MinPasswordLength) {
		return Outcome{
			Kind:    KindValidation,
			Message: deps.Messages.PasswordTooShort,
			Err:     deps.Errors.PasswordTooShort,
			Reason:  "too_short",
		}
	}
	if !validate.PasswordsMatch(newPassword, confirmPassword) {
		return Outcome{
			Kind:    KindValidation,
			Message: deps.Messages.PasswordMismatch,
			Err:     deps.Errors.PasswordMismatch,
			Reason:  "mismatch",
		}
	}
	return Outcome{}
}

// RecordResetRejected counts and emits a failed PrepareReset outcome.
func RecordResetRejected(ctx context.Context, out Outcome, deps ResetDeps) {
	if out.OK() {
		return
	}
	normalizeResetDeps(&deps)
	deps.MetricInc(deps.Metrics.ValidationFailed)
	deps.EmitEvent(ctx, deps.Events.Submit, false, out.Kind, out.Message, reasonMetadata(out.Reason))
}

// RunResetPassword submits a password accepted by PrepareReset.
func RunResetPassword(ctx context.Context, token, newPassword string, deps ResetDeps) Outcome {
	normalizeResetDeps(&deps)

	if deps.ResetPassword == nil {
		return Outcome{
			Kind:    KindApplication,
			Message: deps.Messages.ResetFailed,
			Err:     deps.Errors.NotReady,
		}
	}

	deps.MetricInc(deps.Metrics.Submitted)
	start := deps.Now()
	resp, err := deps.ResetPassword(ctx, token, newPassword)
	deps.ObserveLatency(api.OpResetPassword, deps.Now().Sub(start))

	if err != nil {
		msg := validate.ServerMessage(nil, deps.Messages.ResetTransport)
		deps.MetricInc(deps.Metrics.TransportFault)
		deps.EmitEvent(ctx, deps.Events.Submit, false, KindTransport, msg, nil)
		return Outcome{
			Kind:    KindTransport,
			Message: msg,
			Err:     errors.Join(deps.Errors.Transport, err),
		}
	}

	if !resp.OK() {
		msg := validate.ServerMessage(resp, deps.Messages.ResetFailed)
		deps.MetricInc(deps.Metrics.Rejected)
		deps.EmitEvent(ctx, deps.Events.Submit, false, KindApplication, msg, statusMetadata(resp))
		return Outcome{
			Kind:    KindApplication,
			Message: msg,
			Err:     deps.Errors.Application,
		}
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitEvent(ctx, deps.Events.Submit, true, KindNone, deps.Messages.ResetCompleted, nil)
	return Outcome{
		Kind:    KindNone,
		Message: deps.Messages.ResetCompleted,
	}
}

func normalizeVerifyDeps(deps *VerifyDeps) {
	normalizeHooks(&deps.Hooks)
}

func normalizeResetDeps(deps *ResetDeps) {
	normalizeHooks(&deps.Hooks)
	if deps.MinPasswordLength <= 0 {
		deps.MinPasswordLength = validate.DefaultMinPasswordLength
	}
}
