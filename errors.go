package goRecover

import (
	"errors"
	"time"

	"github.com/MrEthical07/goRecover/internal/flows"
)

var (
	// ErrEmptyEmail is returned when a reset request carries a blank email.
	ErrEmptyEmail = errors.New("email required")
	// ErrPasswordTooShort is returned when the new password is below the length floor.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordMismatch is returned when the confirmation differs from the new password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingToken is returned when a reset flow is entered without a token.
	ErrMissingToken = errors.New("reset token missing")
	// ErrSubmissionInFlight is returned while the flow already has a call outstanding.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrFlowNotReady is returned when a reset is submitted outside the ready state.
	ErrFlowNotReady = errors.New("reset flow not ready")
	// ErrFlowCompleted is returned when a flow in a terminal success state is submitted again.
	ErrFlowCompleted = errors.New("flow already completed")
	// ErrFlowClosed is returned by every action after Close.
	ErrFlowClosed = errors.New("flow closed")
	// ErrRequestThrottled is returned when the request throttle denies an attempt.
	ErrRequestThrottled = errors.New("reset request throttled")
	// ErrApplication is returned when the server answered and rejected the operation.
	ErrApplication = errors.New("reset api rejected operation")
	// ErrTransport is returned when no interpretable response was obtained.
	ErrTransport = errors.New("reset api unreachable")
	// ErrClientNotReady is returned by a client that was not built through Builder.Build.
	ErrClientNotReady = errors.New("client not initialized")
)

// ErrorKind classifies a failed attempt.
type ErrorKind = flows.ErrorKind

const (
	KindNone         = flows.KindNone
	KindValidation   = flows.KindValidation
	KindApplication  = flows.KindApplication
	KindTransport    = flows.KindTransport
	KindMissingToken = flows.KindMissingToken
	KindThrottled    = flows.KindThrottled
)

// FlowError is returned by flow actions that end in a failed attempt. Message
// is the same text the flow state carries; Err matches one of the package
// sentinels through errors.Is.
type FlowError struct {
	Kind    ErrorKind
	Message string
	Err     error
	// RetryIn is set on throttled errors when the window end is known.
	RetryIn time.Duration
}

func (e *FlowError) Error() string {
	if e.Err == nil {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func flowErrorFromOutcome(o flows.Outcome) error {
	if o.OK() {
		return nil
	}
	return &FlowError{
		Kind:    o.Kind,
		Message: o.Message,
		Err:     o.Err,
		RetryIn: o.RetryIn,
	}
}

func flowErrors() flows.Errors {
	return flows.Errors{
		NotReady:         ErrClientNotReady,
		EmptyEmail:       ErrEmptyEmail,
		PasswordTooShort: ErrPasswordTooShort,
		PasswordMismatch: ErrPasswordMismatch,
		MissingToken:     ErrMissingToken,
		Throttled:        ErrRequestThrottled,
		Application:      ErrApplication,
		Transport:        ErrTransport,
	}
}
