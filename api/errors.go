package api

import "errors"

var (
	// ErrTransport matches every failure to obtain an interpretable response.
	ErrTransport = errors.New("reset api transport failure")
	// ErrInvalidBaseURL is returned by New when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("reset api base url invalid")
)

// TransportError wraps the underlying network or read failure of one operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "api: " + e.Op + ": transport failure"
	}
	return "api: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
