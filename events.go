package goRecover

import (
	"context"
	"io"

	"github.com/MrEthical07/goRecover/internal/events"
	"go.uber.org/zap"
)

// Flow names carried in FlowEvent.Flow.
const (
	FlowRequest = "request"
	FlowReset   = "reset"
)

// Event types carried in FlowEvent.EventType.
const (
	EventRequestSubmit         = "request_submit"
	EventVerifyToken           = "verify_token"
	EventMissingToken          = "missing_token"
	EventResetSubmit           = "reset_submit"
	EventDuplicateSubmit       = "duplicate_submit_blocked"
	EventLateResponseDiscarded = "late_response_discarded"
	EventNavigate              = "navigate"
	EventFlowClosed            = "flow_closed"
)

// FlowEvent is one flow transition. It never carries passwords, tokens or
// email addresses.
type FlowEvent = events.Event

// EventStats reports flow event delivery. Dropped and SinkPanics are keyed by
// event type.
type EventStats = events.Stats

// EventSink receives flow events. With Events.Enabled, Emit is called from a
// single dispatcher goroutine.
type EventSink = events.Sink

type (
	NoOpSink       = events.NoOpSink
	ChannelSink    = events.ChannelSink
	JSONWriterSink = events.JSONWriterSink
)

func NewChannelSink(buffer int) *ChannelSink {
	return events.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return events.NewJSONWriterSink(w)
}

// ZapSink logs flow events: successes at info, failures at warn.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("events")}
}

func (s *ZapSink) Emit(_ context.Context, event FlowEvent) {
	if s == nil || s.logger == nil {
		return
	}

	fields := make([]zap.Field, 0, 7+len(event.Metadata))
	fields = append(fields,
		zap.String("flow_id", event.FlowID),
		zap.String("flow", event.Flow),
		zap.String("status", event.Status),
		zap.Bool("success", event.Success),
		zap.Time("timestamp", event.Timestamp),
	)
	if event.Kind != "" {
		fields = append(fields, zap.String("kind", event.Kind))
	}
	if event.Message != "" {
		fields = append(fields, zap.String("message", event.Message))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String(k, v))
	}

	if event.Success {
		s.logger.Info(event.EventType, fields...)
		return
	}
	s.logger.Warn(event.EventType, fields...)
}
