package goRecover

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goRecover/internal/events"
	"github.com/MrEthical07/goRecover/internal/flows"
	"github.com/MrEthical07/goRecover/internal/limiters"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client creates reset flows. It holds only immutable collaborators, so flows
// created by one Client share no state. Build it with New().Build().
type Client struct {
	config    Config
	api       API
	navigator Navigator
	limiter   *limiters.RequestLimiter
	events    *events.Dispatcher
	metrics   *Metrics
	logger    *zap.Logger
	service   flows.Service
	now       func() time.Time
	newFlowID func() string
}

// Close stops event delivery after flushing queued events. Flows created by
// the client keep working but emit nothing further.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.events != nil {
		c.events.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// EventsDropped reports how many flow events were discarded because the
// buffer was full or the emitting context ended.
func (c *Client) EventsDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.events.Dropped()
}

// MetricsSnapshot copies the counters, latency histograms and event delivery
// stats.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
			Events:     (*events.Dispatcher)(nil).Stats(),
		}
	}
	s := c.metrics.Snapshot()
	s.Events = c.events.Stats()
	return s
}

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return cloneConfig(c.config)
}

func (c *Client) ready() bool {
	return c != nil && c.service.Initialized()
}

// NewRequestFlow returns an idle request flow.
func (c *Client) NewRequestFlow() (*RequestFlow, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	return newRequestFlow(c), nil
}

// StartResetFlow creates a reset flow for entry and starts token verification
// in the background. ctx bounds the verification call.
//
// An entry without a token returns the flow in its Invalid state together
// with a *FlowError matching ErrMissingToken; the navigator has already been
// sent to TargetRequestReset and no call was made.
func (c *Client) StartResetFlow(ctx context.Context, entry EntryContext) (*ResetFlow, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return startResetFlow(ctx, c, entry)
}

/*
====================================
HOOKS
====================================
*/

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) observeLatency(op string, d time.Duration) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.ObserveOperation(op, d)
}

func (c *Client) emitFlowEvent(
	ctx context.Context,
	eventType string,
	success bool,
	kind ErrorKind,
	message string,
	metadataBuilder func() map[string]string,
) {
	id, flow := flowFromContext(ctx)
	c.emit(ctx, FlowEvent{
		FlowID:    id,
		Flow:      flow,
		EventType: eventType,
		Status:    statusAfter(eventType, success),
		Success:   success,
		Kind:      kindLabel(kind),
		Message:   message,
	}, metadataBuilder)
}

func (c *Client) emit(ctx context.Context, event FlowEvent, metadataBuilder func() map[string]string) {
	if c == nil {
		return
	}
	if !event.Success && event.Kind != "" {
		c.logger.Debug("reset flow step failed",
			zap.String("flow_id", event.FlowID),
			zap.String("flow", event.Flow),
			zap.String("event", event.EventType),
			zap.String("kind", event.Kind))
	}
	if c.events == nil {
		return
	}
	if metadataBuilder != nil {
		event.Metadata = metadataBuilder()
	}
	event.Timestamp = c.now().UTC()
	c.events.Emit(ctx, event)
}

func (c *Client) duplicateBlocked(ctx context.Context, status string) {
	c.metricInc(MetricDuplicateSubmitBlocked)
	id, flow := flowFromContext(ctx)
	c.emit(ctx, FlowEvent{
		FlowID:    id,
		Flow:      flow,
		EventType: EventDuplicateSubmit,
		Status:    status,
	}, nil)
}

func (c *Client) lateResponse(ctx context.Context, op string) {
	c.metricInc(MetricLateResponseDiscarded)
	id, flow := flowFromContext(ctx)
	c.logger.Debug("discarding response for closed flow",
		zap.String("flow_id", id),
		zap.String("flow", flow),
		zap.String("op", op))
	c.emit(ctx, FlowEvent{
		FlowID:    id,
		Flow:      flow,
		EventType: EventLateResponseDiscarded,
	}, func() map[string]string {
		return map[string]string{
			"op": op,
		}
	})
}

func (c *Client) navigate(ctx context.Context, target Target) {
	id, flow := flowFromContext(ctx)
	c.emit(ctx, FlowEvent{
		FlowID:    id,
		Flow:      flow,
		EventType: EventNavigate,
		Success:   true,
	}, func() map[string]string {
		return map[string]string{
			"target": string(target),
		}
	})
	c.navigator.Navigate(target)
}

func (c *Client) flowClosed(ctx context.Context, status string) {
	id, flow := flowFromContext(ctx)
	c.emit(ctx, FlowEvent{
		FlowID:    id,
		Flow:      flow,
		EventType: EventFlowClosed,
		Status:    status,
		Success:   true,
	}, nil)
}

// statusAfter names the status a flow lands in after a step event.
func statusAfter(eventType string, success bool) string {
	switch eventType {
	case EventRequestSubmit:
		if success {
			return RequestAwaitingEmail.String()
		}
		return RequestFailed.String()
	case EventVerifyToken:
		if success {
			return ResetReady.String()
		}
		return ResetInvalid.String()
	case EventMissingToken:
		return ResetInvalid.String()
	case EventResetSubmit:
		if success {
			return ResetCompleted.String()
		}
		return ResetReady.String()
	}
	return ""
}

func kindLabel(kind ErrorKind) string {
	if kind == KindNone {
		return ""
	}
	return kind.String()
}

/*
====================================
FLOW WIRING
====================================
*/

func (c *Client) flowDeps() flows.Deps {
	hooks := flows.Hooks{
		Now:            c.now,
		ObserveLatency: c.observeLatency,
		MetricInc:      func(id int) { c.metricInc(MetricID(id)) },
		EmitEvent:      c.emitFlowEvent,
	}
	messages := c.config.Messages.flowMessages()
	errs := flowErrors()

	request := flows.RequestDeps{
		Hooks:        hooks,
		RequestReset: c.api.RequestReset,
		Messages:     messages,
		Metrics: flows.RequestMetrics{
			Submitted:        int(MetricRequestSubmitted),
			Accepted:         int(MetricRequestAccepted),
			Rejected:         int(MetricRequestRejected),
			TransportFault:   int(MetricRequestTransportFault),
			ValidationFailed: int(MetricRequestValidationFailed),
			Throttled:        int(MetricRequestThrottled),
		},
		Events: flows.RequestEvents{
			Submit: EventRequestSubmit,
		},
		Errors: errs,
	}
	if c.limiter != nil {
		request.Throttle = c.limiter.Check
		request.IsThrottled = func(err error) bool {
			return errors.Is(err, limiters.ErrRequestThrottled)
		}
		request.ThrottleUnavailable = func(err error) {
			c.metricInc(MetricThrottleUnavailable)
			c.logger.Warn("reset request throttle unavailable, allowing request", zap.Error(err))
		}
		request.ThrottleRetryIn = func(ctx context.Context, email string) time.Duration {
			d, err := c.limiter.Remaining(ctx, email)
			if err != nil {
				c.logger.Debug("reset request throttle window unknown", zap.Error(err))
				return 0
			}
			return d
		}
	}

	return flows.Deps{
		Request: request,
		Verify: flows.VerifyDeps{
			Hooks:       hooks,
			VerifyToken: c.api.VerifyToken,
			Messages:    messages,
			Metrics: flows.VerifyMetrics{
				Valid:          int(MetricVerifyValid),
				Invalid:        int(MetricVerifyInvalid),
				TransportFault: int(MetricVerifyTransportFault),
				MissingToken:   int(MetricMissingToken),
			},
			Events: flows.VerifyEvents{
				Verify:       EventVerifyToken,
				MissingToken: EventMissingToken,
			},
			Errors: errs,
		},
		Reset: flows.ResetDeps{
			Hooks:             hooks,
			MinPasswordLength: c.config.Password.MinLength,
			ResetPassword:     c.api.ResetPassword,
			Messages:          messages,
			Metrics: flows.ResetMetrics{
				Submitted:        int(MetricResetSubmitted),
				Success:          int(MetricResetSuccess),
				Rejected:         int(MetricResetRejected),
				TransportFault:   int(MetricResetTransportFault),
				ValidationFailed: int(MetricResetValidationFailed),
			},
			Events: flows.ResetEvents{
				Submit: EventResetSubmit,
			},
			Errors: errs,
		},
	}
}

func newFlowID() string {
	return uuid.NewString()
}
