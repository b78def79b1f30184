package goRecover

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goRecover/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildRequiresBaseURLWithoutCustomAPI(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected missing base URL to fail")
	}
	if _, err := New().WithAPI(newFakeAPI()).Build(); err != nil {
		t.Fatalf("custom API must not need a base URL: %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithAPI(newFakeAPI())
	client, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestZeroClientIsNotReady(t *testing.T) {
	var c *Client
	if _, err := c.NewRequestFlow(); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
	if _, err := (&Client{}).StartResetFlow(context.Background(), EntryContext{Token: "t"}); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
	if got := c.MetricsSnapshot(); len(got.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got)
	}
	c.Close()
}

func TestEntryFromURL(t *testing.T) {
	tests := []struct {
		raw     string
		token   string
		wantErr bool
	}{
		{"https://app.example.com/reset-password?token=abc123", "abc123", false},
		{"https://app.example.com/reset-password?token=a%2Bb%2Fc", "a+b/c", false},
		{"https://app.example.com/reset-password", "", false},
		{"/reset-password?token=%20", "", false},
		{"", "", true},
		{"https://app.example.com/%zz", "", true},
	}
	for _, tt := range tests {
		entry, err := EntryFromURL(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tt.raw, err)
		}
		if entry.Token != tt.token || entry.HasToken() != (tt.token != "") {
			t.Fatalf("%q: unexpected entry %+v", tt.raw, entry)
		}
	}
}

func TestMetricsSnapshotCountsFlowSteps(t *testing.T) {
	fake := newFakeAPI()
	client := buildTestClient(t, fake, nil)

	req, _ := client.NewRequestFlow()
	_ = req.Submit(context.Background(), "")
	_ = req.Submit(context.Background(), "a@b.com")

	flow := startReadyFlow(t, client, "tok")
	_ = flow.Submit(context.Background(), "short", "short")
	_ = flow.Submit(context.Background(), "secret1", "secret1")

	_, _ = client.StartResetFlow(context.Background(), EntryContext{})

	snap := client.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricRequestValidationFailed: 1,
		MetricRequestSubmitted:        1,
		MetricRequestAccepted:         1,
		MetricVerifyValid:             1,
		MetricResetValidationFailed:   1,
		MetricResetSubmitted:          1,
		MetricResetSuccess:            1,
		MetricMissingToken:            1,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}
	for _, id := range []MetricID{MetricRequestResetLatency, MetricVerifyTokenLatency, MetricResetPasswordLatency} {
		var total uint64
		for _, n := range snap.Histograms[id] {
			total += n
		}
		if total != 1 {
			t.Fatalf("histogram %d: expected one observation, got %d", id, total)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	client := buildTestClient(t, newFakeAPI(), func(b *Builder) {
		b.WithMetricsEnabled(false).WithLatencyHistograms(false)
	})
	req, _ := client.NewRequestFlow()
	_ = req.Submit(context.Background(), "a@b.com")

	snap := client.MetricsSnapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{10 * time.Millisecond, 0},
		{100 * time.Millisecond, 1},
		{200 * time.Millisecond, 2},
		{500 * time.Millisecond, 3},
		{time.Second, 4},
		{2 * time.Second, 5},
		{5 * time.Second, 6},
		{30 * time.Second, 7},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.d); got != tt.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestEventsCarryFlowIdentityWithoutSecrets(t *testing.T) {
	sink := NewChannelSink(64)
	fake := newFakeAPI()
	client := buildTestClient(t, fake, func(b *Builder) {
		cfg := DefaultConfig()
		cfg.Events.Enabled = true
		cfg.Events.DropIfFull = false
		b.WithConfig(cfg).WithEventSink(sink)
	})

	req, _ := client.NewRequestFlow()
	if err := req.Submit(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	flow := startReadyFlow(t, client, "super-secret-token")
	if err := flow.Submit(context.Background(), "hunter2-password", "hunter2-password"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	flow.Close()
	client.Close()

	var got []FlowEvent
	for {
		select {
		case ev := <-sink.Events():
			got = append(got, ev)
			continue
		default:
		}
		break
	}

	types := make([]string, 0, len(got))
	for _, ev := range got {
		types = append(types, ev.Flow+":"+ev.EventType+":"+ev.Status)
		raw, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal event: %v", err)
		}
		for _, secret := range []string{"alice@example.com", "a@b.com", "super-secret-token", "hunter2-password"} {
			if strings.Contains(string(raw), secret) {
				t.Fatalf("event leaks %q: %s", secret, raw)
			}
		}
		if ev.FlowID == "" || ev.Timestamp.IsZero() {
			t.Fatalf("event missing identity: %+v", ev)
		}
	}

	want := []string{
		"request:request_submit:awaiting_email",
		"reset:verify_token:ready",
		"reset:reset_submit:completed",
		"reset:navigate:",
		"reset:flow_closed:completed",
	}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event sequence:\n got %v\nwant %v", types, want)
	}
	if got[1].FlowID != got[4].FlowID || got[0].FlowID == got[1].FlowID {
		t.Fatal("events must be attributed to their own flow")
	}
	if client.EventsDropped() != 0 {
		t.Fatalf("expected no dropped events, got %d", client.EventsDropped())
	}
}

func TestMetricsSnapshotAttributesDroppedEvents(t *testing.T) {
	g := newGate()
	cfg := DefaultConfig()
	cfg.Events = EventsConfig{Enabled: true, BufferSize: 1, DropIfFull: true}
	client := buildTestClient(t, newFakeAPI(), func(b *Builder) {
		b.WithConfig(cfg).WithEventSink(gatedSink{gate: g})
	})
	t.Cleanup(g.open)

	flow := newRequestFlowForTest(t, client)
	for i := 0; i < 4; i++ {
		_ = flow.Submit(context.Background(), "")
	}

	snap := client.MetricsSnapshot()
	if snap.Events.Dropped[EventRequestSubmit] < 2 {
		t.Fatalf("expected request_submit drops, got %v", snap.Events.Dropped)
	}
	if len(snap.Events.Dropped) != 1 {
		t.Fatalf("drops attributed to unexpected event types: %v", snap.Events.Dropped)
	}
	if client.EventsDropped() != snap.Events.Dropped[EventRequestSubmit] {
		t.Fatalf("EventsDropped %d disagrees with snapshot %v", client.EventsDropped(), snap.Events.Dropped)
	}
	if snap.Counters[MetricRequestValidationFailed] != 4 {
		t.Fatalf("expected 4 validation failures, got %d", snap.Counters[MetricRequestValidationFailed])
	}
}

func TestZapSinkLogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), FlowEvent{FlowID: "f1", Flow: FlowReset, EventType: EventVerifyToken, Status: "ready", Success: true})
	sink.Emit(context.Background(), FlowEvent{FlowID: "f1", Flow: FlowReset, EventType: EventResetSubmit, Status: "ready", Kind: "transport", Metadata: map[string]string{"status_code": "502"}})

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected two log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].Message != EventVerifyToken {
		t.Fatalf("unexpected success entry %+v", entries[0])
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected failures at warn, got %v", entries[1].Level)
	}
	fields := entries[1].ContextMap()
	if fields["kind"] != "transport" || fields["status_code"] != "502" || fields["flow_id"] != "f1" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestClientOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/auth/reset-password/tok":
			_, _ = w.Write([]byte(`{"success":true,"data":{"email":"a@b.com"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/auth/reset-password":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Password too weak"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL
	client, err := New().WithConfig(cfg).WithHTTPClient(srv.Client()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	flow := startReadyFlow(t, client, "tok")
	err = flow.Submit(context.Background(), "secret1", "secret1")
	if !errors.Is(err, ErrApplication) {
		t.Fatalf("expected ErrApplication, got %v", err)
	}
	if st := flow.State(); st.Message != "Password too weak" {
		t.Fatalf("expected server message, got %+v", st)
	}

	var _ API = (*api.Client)(nil)
}

func TestGatewayErrorPageIsTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>502 Bad Gateway</html>`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL
	client, err := New().WithConfig(cfg).WithHTTPClient(srv.Client()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	flow, err := client.StartResetFlow(context.Background(), EntryContext{Token: "tok"})
	if err != nil {
		t.Fatalf("StartResetFlow failed: %v", err)
	}
	st := awaitVerified(t, flow)
	if st.Status != ResetInvalid || st.Kind != KindTransport {
		t.Fatalf("expected transport fault, got %+v", st)
	}
	if st.Message != cfg.Messages.VerifyTransport {
		t.Fatalf("expected verify transport message, got %q", st.Message)
	}

	req, err := client.NewRequestFlow()
	if err != nil {
		t.Fatalf("NewRequestFlow failed: %v", err)
	}
	err = req.Submit(context.Background(), "a@b.com")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if st := req.State(); st.Kind != KindTransport || st.Message != cfg.Messages.RequestTransport {
		t.Fatalf("unexpected request state %+v", st)
	}
}
