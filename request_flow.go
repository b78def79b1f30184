package goRecover

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/goRecover/api"
	"github.com/MrEthical07/goRecover/internal/flows"
)

// RequestFlow collects an email and asks the server to send a reset link.
// It is safe for concurrent use; at most one request is outstanding at a time.
type RequestFlow struct {
	client *Client
	id     string

	mu     sync.Mutex
	state  flows.RequestState
	epoch  uint64
	closed bool
}

func newRequestFlow(c *Client) *RequestFlow {
	return &RequestFlow{
		client: c,
		id:     c.newFlowID(),
	}
}

// ID identifies the flow in events and logs.
func (f *RequestFlow) ID() string {
	return f.id
}

// State returns a snapshot of the flow.
func (f *RequestFlow) State() RequestState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates email and sends one reset request. Validation, throttle,
// server and transport failures leave the flow Failed and are returned as
// *FlowError; the flow may be submitted again. Success is terminal.
func (f *RequestFlow) Submit(ctx context.Context, email string) error {
	if f == nil || f.client == nil {
		return ErrClientNotReady
	}
	ctx = withFlow(ctx, f.id, FlowRequest)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	switch f.state.Status {
	case RequestAwaitingEmail:
		f.mu.Unlock()
		return ErrFlowCompleted
	case RequestSubmitting:
		f.mu.Unlock()
		f.client.duplicateBlocked(ctx, RequestSubmitting.String())
		return ErrSubmissionInFlight
	}

	trimmed, out := f.client.service.PrepareRequest(email)
	if !out.OK() {
		f.state = flows.ApplyRequestOutcome(flows.BeginRequest(f.state, strings.TrimSpace(email)), out)
		f.mu.Unlock()
		f.client.service.RecordRequestRejected(ctx, out)
		return flowErrorFromOutcome(out)
	}

	f.state = flows.BeginRequest(f.state, trimmed)
	epoch := f.epoch
	f.mu.Unlock()

	out = f.client.service.RequestReset(ctx, trimmed)

	f.mu.Lock()
	if f.closed || f.epoch != epoch {
		f.mu.Unlock()
		f.client.lateResponse(ctx, api.OpRequestReset)
		return ErrFlowClosed
	}
	f.state = flows.ApplyRequestOutcome(f.state, out)
	f.mu.Unlock()
	return flowErrorFromOutcome(out)
}

// Close detaches the flow. A request still outstanding completes on the wire
// but its result is discarded. Close is idempotent.
func (f *RequestFlow) Close() {
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
		f.client.flowClosed(withFlow(context.Background(), f.id, FlowRequest), status)
	}
}
