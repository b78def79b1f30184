package flows

import "context"

// Service is the flow runner built once by the root client and shared by
// every flow instance it creates.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether all three server operations are wired.
func (s Service) Initialized() bool {
	return s.deps.Request.RequestReset != nil &&
		s.deps.Verify.VerifyToken != nil &&
		s.deps.Reset.ResetPassword != nil
}

func (s Service) PrepareRequest(email string) (string, Outcome) {
	return PrepareRequest(email, s.deps.Request)
}

func (s Service) RecordRequestRejected(ctx context.Context, out Outcome) {
	RecordRequestRejected(ctx, out, s.deps.Request)
}

func (s Service) RequestReset(ctx context.Context, email string) Outcome {
	return RunRequestReset(ctx, email, s.deps.Request)
}

func (s Service) MissingToken(ctx context.Context) Outcome {
	return RunMissingToken(ctx, s.deps.Verify)
}

func (s Service) VerifyToken(ctx context.Context, token string) Outcome {
	return RunVerifyToken(ctx, token, s.deps.Verify)
}

func (s Service) PrepareReset(newPassword, confirmPassword string) Outcome {
	return PrepareReset(newPassword, confirmPassword, s.deps.Reset)
}

func (s Service) RecordResetRejected(ctx context.Context, out Outcome) {
	RecordResetRejected(ctx, out, s.deps.Reset)
}

func (s Service) ResetPassword(ctx context.Context, token, newPassword string) Outcome {
	return RunResetPassword(ctx, token, newPassword, s.deps.Reset)
}
