package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Stats is a point-in-time view of delivery. Dropped and SinkPanics are keyed
// by event type.
type Stats struct {
	Delivered  uint64
	Pending    int
	Dropped    map[string]uint64
	SinkPanics map[string]uint64
}

// DroppedTotal sums Dropped over every event type.
func (s Stats) DroppedTotal() uint64 {
	var total uint64
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// typeCounters counts occurrences per event type.
type typeCounters struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (c *typeCounters) inc(eventType string) {
	c.mu.Lock()
	if c.counts == nil {
		c.counts = make(map[string]uint64)
	}
	c.counts[eventType]++
	c.mu.Unlock()
}

func (c *typeCounters) snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for t, n := range c.counts {
		out[t] = n
	}
	return out
}

// Dispatcher relays flow events to a sink from one goroutine, so a flow's
// events reach the sink in the order the flow produced them.
type Dispatcher struct {
	cfg  Config
	sink Sink
	ch   chan Event
	done chan struct{}
	wg   sync.WaitGroup

	delivered  atomic.Uint64
	dropped    typeCounters
	sinkPanics typeCounters

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher returns nil when cfg is disabled; a nil Dispatcher accepts
// and discards every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Event, cfg.BufferSize),
		done: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.ch:
			d.deliver(ev)
		case <-d.done:
			// Flush what flows already queued before Close.
			for {
				select {
				case ev := <-d.ch:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// deliver hands ev to the sink. A panicking sink loses that event only.
func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.sinkPanics.inc(ev.EventType)
		}
	}()
	d.sink.Emit(context.Background(), ev)
	d.delivered.Add(1)
}

// Emit queues ev. With DropIfFull a full buffer drops the event; otherwise
// Emit waits for room until ctx ends. Either way the loss is attributed to
// ev.EventType. Events emitted after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case d.ch <- ev:
		return
	case <-d.done:
		return
	default:
	}
	if d.cfg.DropIfFull {
		d.dropped.inc(ev.EventType)
		return
	}

	select {
	case d.ch <- ev:
	case <-d.done:
	case <-ctx.Done():
		d.dropped.inc(ev.EventType)
	}
}

// Close stops the dispatcher after delivering queued events. It is safe to
// call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Stats reports delivery counters. A nil Dispatcher reports zero values with
// non-nil maps.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{Dropped: map[string]uint64{}, SinkPanics: map[string]uint64{}}
	}
	return Stats{
		Delivered:  d.delivered.Load(),
		Pending:    len(d.ch),
		Dropped:    d.dropped.snapshot(),
		SinkPanics: d.sinkPanics.snapshot(),
	}
}

// Dropped reports the total number of dropped events.
func (d *Dispatcher) Dropped() uint64 {
	return d.Stats().DroppedTotal()
}
