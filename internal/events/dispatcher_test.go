package events

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected nil dispatcher to report zero drops")
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for _, typ := range []string{"e1", "e2", "e3"} {
		d.Emit(context.Background(), Event{EventType: typ})
	}
	d.Close()

	for _, want := range []string{"e1", "e2", "e3"} {
		select {
		case got := <-sink.Events():
			if got.EventType != want {
				t.Fatalf("expected %s, got %s", want, got.EventType)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestDispatcherDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	start := time.Now()
	d.Emit(context.Background(), Event{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestDispatcherBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
	}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestDispatcherBlockedEmitHonoursContext(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Emit(context.Background(), Event{EventType: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "e3"})

	if d.Dropped() != 1 {
		t.Fatalf("expected cancelled emit to count as dropped, got %d", d.Dropped())
	}
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, NoOpSink{})

	d.Emit(context.Background(), Event{EventType: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{EventType: "e2"})
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf lockedBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		FlowID:    "f1",
		Flow:      "request",
		EventType: "request.submit",
		Status:    "awaiting_email",
		Success:   true,
	})
	sink.Emit(context.Background(), Event{FlowID: "f1", EventType: "request.close"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two JSON lines, got %d", len(lines))
	}
	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if decoded.FlowID != "f1" || decoded.Status != "awaiting_email" || !decoded.Success {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
}

type panicSink struct{ on string }

func (s panicSink) Emit(_ context.Context, ev Event) {
	if ev.EventType == s.on {
		panic("sink failure")
	}
}

func TestDispatcherAttributesDropsToEventType(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "request.submit"})
	// Wait until the loop holds the first event so the buffer slot is free.
	deadline := time.Now().Add(time.Second)
	for d.Stats().Pending != 0 {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher never picked up the first event")
		}
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "reset.verify"})

	d.Emit(context.Background(), Event{EventType: "reset.submit"})
	d.Emit(context.Background(), Event{EventType: "reset.submit"})
	d.Emit(context.Background(), Event{EventType: "request.submit"})

	st := d.Stats()
	if st.Dropped["reset.submit"] != 2 || st.Dropped["request.submit"] != 1 {
		t.Fatalf("unexpected per-type drops %v", st.Dropped)
	}
	if _, ok := st.Dropped["reset.verify"]; ok {
		t.Fatalf("queued event counted as dropped: %v", st.Dropped)
	}
	if st.DroppedTotal() != 3 || d.Dropped() != 3 {
		t.Fatalf("expected 3 drops in total, got %d", st.DroppedTotal())
	}
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, panicSink{on: "reset.verify"})

	d.Emit(context.Background(), Event{EventType: "request.submit"})
	d.Emit(context.Background(), Event{EventType: "reset.verify"})
	d.Emit(context.Background(), Event{EventType: "reset.submit"})
	d.Close()

	st := d.Stats()
	if st.Delivered != 2 {
		t.Fatalf("expected the other events to be delivered, got %d", st.Delivered)
	}
	if st.SinkPanics["reset.verify"] != 1 {
		t.Fatalf("expected sink panic to be counted, got %v", st.SinkPanics)
	}
}

func TestNilDispatcherStats(t *testing.T) {
	var d *Dispatcher
	st := d.Stats()
	if st.Dropped == nil || st.SinkPanics == nil || st.Delivered != 0 {
		t.Fatalf("unexpected nil stats %+v", st)
	}
}
