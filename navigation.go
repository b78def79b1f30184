package goRecover

// Target names a navigation destination outside the reset flows.
type Target string

const (
	// TargetRequestReset is the entry point where a user asks for a new reset link.
	TargetRequestReset Target = "request-reset"
	// TargetLogin is the login entry point, reached after a successful reset.
	TargetLogin Target = "login"
)

// Navigator moves the user to a target. The flows only name targets; routing
// them is up to the implementation.
type Navigator interface {
	Navigate(target Target)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Target)

func (f NavigatorFunc) Navigate(target Target) {
	if f != nil {
		f(target)
	}
}

type noopNavigator struct{}

func (noopNavigator) Navigate(Target) {}
