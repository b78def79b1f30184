package goRecover

import (
	"context"
	"sync"

	"github.com/MrEthical07/goRecover/api"
	"github.com/MrEthical07/goRecover/internal/flows"
)

// ResetFlow verifies a reset token once and then accepts a new password.
// It is safe for concurrent use.
type ResetFlow struct {
	client *Client
	id     string
	token  string

	verifyOnce sync.Once
	verified   chan struct{}

	mu     sync.Mutex
	state  flows.ResetState
	epoch  uint64
	closed bool
}

func startResetFlow(ctx context.Context, c *Client, entry EntryContext) (*ResetFlow, error) {
	f := &ResetFlow{
		client:   c,
		id:       c.newFlowID(),
		token:    entry.Token,
		verified: make(chan struct{}),
		state:    flows.NewResetState(),
	}
	ctx = withFlow(ctx, f.id, FlowReset)

	if !entry.HasToken() {
		out := c.service.MissingToken(ctx)
		f.state = flows.MissingTokenState(out.Message)
		f.verifyOnce.Do(func() { close(f.verified) })
		c.navigate(ctx, TargetRequestReset)
		return f, flowErrorFromOutcome(out)
	}

	f.verifyOnce.Do(func() {
		go f.verify(ctx, f.epoch)
	})
	return f, nil
}

func (f *ResetFlow) verify(ctx context.Context, epoch uint64) {
	defer close(f.verified)

	out := f.client.service.VerifyToken(ctx, f.token)

	f.mu.Lock()
	if f.closed || f.epoch != epoch {
		f.mu.Unlock()
		f.client.lateResponse(ctx, api.OpVerifyToken)
		return
	}
	f.state = flows.ApplyVerifyOutcome(f.state, out)
	f.mu.Unlock()
}

// ID identifies the flow in events and logs.
func (f *ResetFlow) ID() string {
	return f.id
}

// State returns a snapshot of the flow.
func (f *ResetFlow) State() ResetState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Verified is closed once verification has resolved, whether it was applied
// or discarded after Close.
func (f *ResetFlow) Verified() <-chan struct{} {
	return f.verified
}

// AwaitVerification blocks until verification resolves or ctx ends, then
// returns the current state.
func (f *ResetFlow) AwaitVerification(ctx context.Context) (ResetState, error) {
	select {
	case <-f.verified:
		return f.State(), nil
	case <-ctx.Done():
		return f.State(), ctx.Err()
	}
}

// Submit validates the new password and sends it with the flow's token. It is
// only accepted in the Ready state. Success navigates to TargetLogin and is
// terminal; every failure returns the flow to Ready with a message and is
// returned as *FlowError.
func (f *ResetFlow) Submit(ctx context.Context, newPassword, confirmPassword string) error {
	if f == nil || f.client == nil {
		return ErrClientNotReady
	}
	ctx = withFlow(ctx, f.id, FlowReset)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	switch f.state.Status {
	case ResetCompleted:
		f.mu.Unlock()
		return ErrFlowCompleted
	case ResetSubmitting:
		f.mu.Unlock()
		f.client.duplicateBlocked(ctx, ResetSubmitting.String())
		return ErrSubmissionInFlight
	case ResetReady:
	default:
		f.mu.Unlock()
		return ErrFlowNotReady
	}

	f.state = flows.RecordResetInput(f.state, newPassword, confirmPassword)
	if out := f.client.service.PrepareReset(newPassword, confirmPassword); !out.OK() {
		f.state = flows.ApplyResetOutcome(f.state, out)
		f.mu.Unlock()
		f.client.service.RecordResetRejected(ctx, out)
		return flowErrorFromOutcome(out)
	}

	f.state = flows.BeginReset(f.state)
	epoch := f.epoch
	f.mu.Unlock()

	out := f.client.service.ResetPassword(ctx, f.token, newPassword)

	f.mu.Lock()
	if f.closed || f.epoch != epoch {
		f.mu.Unlock()
		f.client.lateResponse(ctx, api.OpResetPassword)
		return ErrFlowClosed
	}
	f.state = flows.ApplyResetOutcome(f.state, out)
	completed := f.state.Status == ResetCompleted
	f.mu.Unlock()

	if completed {
		f.client.navigate(ctx, TargetLogin)
		return nil
	}
	return flowErrorFromOutcome(out)
}

// Close detaches the flow. Outstanding verification or submission results are
// discarded when they arrive. Close is idempotent.
func (f *ResetFlow) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.epoch++
	status := f.state.Status.String()
	f.mu.Unlock()

	if f.client != nil {
		f.client.flowClosed(withFlow(context.Background(), f.id, FlowReset), status)
	}
}
