package flows

import "time"

// ErrorKind classifies why an attempt did not succeed.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindValidation is a local, pre-network rejection.
	KindValidation
	// KindApplication means the server answered but rejected the request.
	KindApplication
	// KindTransport means no interpretable response was obtained.
	KindTransport
	// KindMissingToken means the reset entry carried no token.
	KindMissingToken
	// KindThrottled means the local request throttle denied the attempt.
	KindThrottled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindApplication:
		return "application"
	case KindTransport:
		return "transport"
	case KindMissingToken:
		return "missing_token"
	case KindThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one flow step. Kind == KindNone means success.
type Outcome struct {
	Kind    ErrorKind
	Message string
	Email   string
	Err     error
	// Reason names the failed rule of a validation outcome.
	Reason string
	// RetryIn is how long a throttled attempt should wait. Zero when unknown.
	RetryIn time.Duration
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool {
	return o.Kind == KindNone
}

/*
====================================
REQUEST FLOW STATE
====================================
*/

// RequestStatus is the phase of a request flow.
type RequestStatus int

const (
	RequestIdle RequestStatus = iota
	RequestSubmitting
	RequestAwaitingEmail
	RequestFailed
)

func (s RequestStatus) String() string {
	switch s {
	case RequestIdle:
		return "idle"
	case RequestSubmitting:
		return "submitting"
	case RequestAwaitingEmail:
		return "awaiting_email"
	case RequestFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow can no longer change on its own.
func (s RequestStatus) Terminal() bool {
	return s == RequestAwaitingEmail
}

// RequestState is the full view state of a request flow.
type RequestState struct {
	Status  RequestStatus
	Email   string
	Message string
	Kind    ErrorKind
	RetryIn time.Duration
}

// BeginRequest moves s into Submitting and clears the previous message.
func BeginRequest(s RequestState, email string) RequestState {
	if s.Status.Terminal() {
		return s
	}
	s.Status = RequestSubmitting
	s.Email = email
	s.Message = ""
	s.Kind = KindNone
	s.RetryIn = 0
	return s
}

// ApplyRequestOutcome folds o into s.
func ApplyRequestOutcome(s RequestState, o Outcome) RequestState {
	if s.Status.Terminal() {
		return s
	}
	if o.OK() {
		s.Status = RequestAwaitingEmail
		s.Message = o.Message
		s.Kind = KindNone
		return s
	}
	s.Status = RequestFailed
	s.Message = o.Message
	s.Kind = o.Kind
	s.RetryIn = o.RetryIn
	return s
}

/*
====================================
RESET FLOW STATE
====================================
*/

// ResetStatus is the phase of a reset flow.
type ResetStatus int

const (
	ResetVerifying ResetStatus = iota
	ResetReady
	ResetSubmitting
	ResetInvalid
	ResetCompleted
)

func (s ResetStatus) String() string {
	switch s {
	case ResetVerifying:
		return "verifying"
	case ResetReady:
		return "ready"
	case ResetSubmitting:
		return "submitting"
	case ResetInvalid:
		return "invalid"
	case ResetCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow can no longer change on its own.
func (s ResetStatus) Terminal() bool {
	return s == ResetInvalid || s == ResetCompleted
}

// ResetState is the full view state of a reset flow. The form values are kept
// so a failed attempt does not lose user input.
type ResetState struct {
	Status          ResetStatus
	Email           string
	Message         string
	Kind            ErrorKind
	NewPassword     string
	ConfirmPassword string
}

// NewResetState returns the state of a flow whose token is being verified.
func NewResetState() ResetState {
	return ResetState{Status: ResetVerifying}
}

// ApplyVerifyOutcome folds the verification outcome into s. It only acts on a
// verifying state, so verification can never be applied twice.
func ApplyVerifyOutcome(s ResetState, o Outcome) ResetState {
	if s.Status != ResetVerifying {
		return s
	}
	if o.OK() {
		s.Status = ResetReady
		s.Email = o.Email
		s.Message = ""
		s.Kind = KindNone
		return s
	}
	s.Status = ResetInvalid
	s.Message = o.Message
	s.Kind = o.Kind
	return s
}

// RecordResetInput stores the submitted form values without changing phase.
func RecordResetInput(s ResetState, newPassword, confirmPassword string) ResetState {
	s.NewPassword = newPassword
	s.ConfirmPassword = confirmPassword
	return s
}

// BeginReset moves a ready state into Submitting and clears the previous message.
func BeginReset(s ResetState) ResetState {
	if s.Status != ResetReady {
		return s
	}
	s.Status = ResetSubmitting
	s.Message = ""
	s.Kind = KindNone
	return s
}

// ApplyResetOutcome folds a submission outcome into s. Failures return the
// flow to Ready with the message set and the form values kept; success drops
// the form values.
func ApplyResetOutcome(s ResetState, o Outcome) ResetState {
	if s.Status != ResetReady && s.Status != ResetSubmitting {
		return s
	}
	if o.OK() {
		s.Status = ResetCompleted
		s.Message = o.Message
		s.Kind = KindNone
		s.NewPassword = ""
		s.ConfirmPassword = ""
		return s
	}
	s.Status = ResetReady
	s.Message = o.Message
	s.Kind = o.Kind
	return s
}

// MissingTokenState is the terminal state of a flow entered without a token.
func MissingTokenState(message string) ResetState {
	return ResetState{
		Status:  ResetInvalid,
		Message: message,
		Kind:    KindMissingToken,
	}
}
