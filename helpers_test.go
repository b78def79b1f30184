package goRecover

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goRecover/api"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type resetCall struct {
	token       string
	newPassword string
}

type fakeAPI struct {
	mu       sync.Mutex
	emails   []string
	verified []string
	resets   []resetCall

	requestFn func(ctx context.Context, email string) (*api.Response, error)
	verifyFn  func(ctx context.Context, token string) (*api.Response, error)
	resetFn   func(ctx context.Context, token, newPassword string) (*api.Response, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{}
}

func boolPtr(b bool) *bool { return &b }

func successResponse() *api.Response {
	return &api.Response{Success: boolPtr(true), StatusCode: 200}
}

func failureResponse(message string) *api.Response {
	return &api.Response{Success: boolPtr(false), Message: message, StatusCode: 400}
}

func verifiedResponse(email string) *api.Response {
	return &api.Response{
		Success:    boolPtr(true),
		Data:       &api.ResponseData{Email: email},
		StatusCode: 200,
	}
}

func (f *fakeAPI) RequestReset(ctx context.Context, email string) (*api.Response, error) {
	f.mu.Lock()
	f.emails = append(f.emails, email)
	fn := f.requestFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, email)
	}
	return successResponse(), nil
}

func (f *fakeAPI) VerifyToken(ctx context.Context, token string) (*api.Response, error) {
	f.mu.Lock()
	f.verified = append(f.verified, token)
	fn := f.verifyFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, token)
	}
	return verifiedResponse("a@b.com"), nil
}

func (f *fakeAPI) ResetPassword(ctx context.Context, token, newPassword string) (*api.Response, error) {
	f.mu.Lock()
	f.resets = append(f.resets, resetCall{token: token, newPassword: newPassword})
	fn := f.resetFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, token, newPassword)
	}
	return successResponse(), nil
}

func (f *fakeAPI) requestCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.emails...)
}

func (f *fakeAPI) verifyCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verified...)
}

func (f *fakeAPI) resetCalls() []resetCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]resetCall(nil), f.resets...)
}

// gate blocks a fake call until released and reports when the call started.
type gate struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gate) wait() {
	g.started <- struct{}{}
	<-g.release
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}

type recordingNavigator struct {
	mu      sync.Mutex
	targets []Target
}

func (n *recordingNavigator) Navigate(target Target) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *recordingNavigator) Targets() []Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Target(nil), n.targets...)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func buildTestClient(t *testing.T, a API, configure func(*Builder)) *Client {
	t.Helper()

	b := New().WithAPI(a)
	if configure != nil {
		configure(b)
	}
	client, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func defaultMessages() MessagesConfig {
	return DefaultConfig().Messages
}

// gatedSink holds every delivered event until its gate opens.
type gatedSink struct {
	gate *gate
}

func (s gatedSink) Emit(context.Context, FlowEvent) {
	select {
	case s.gate.started <- struct{}{}:
	default:
	}
	<-s.gate.release
}

// buildBlockingEventsClient returns a client whose event buffer holds one
// event and whose sink never drains until the test ends.
func buildBlockingEventsClient(t *testing.T, a API) (*Client, *gate) {
	t.Helper()

	g := newGate()
	cfg := DefaultConfig()
	cfg.Events = EventsConfig{Enabled: true, BufferSize: 1, DropIfFull: false}
	client := buildTestClient(t, a, func(b *Builder) {
		b.WithConfig(cfg).WithEventSink(gatedSink{gate: g})
	})
	t.Cleanup(g.open)
	return client, g
}

// stateReturns reports whether read finishes within a second.
func stateReturns(read func()) bool {
	done := make(chan struct{})
	go func() {
		read()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(time.Second):
		return false
	}
}

// waitCount polls n until it reaches want or a second passes.
func waitCount(t *testing.T, n *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for n.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d completed submits, got %d", want, n.Load())
		}
		time.Sleep(time.Millisecond)
	}
}
