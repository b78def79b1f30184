package internaldefs

import (
	goRecover "github.com/MrEthical07/goRecover"
)

// Label is one name/value pair attached to a sample.
type Label struct {
	Name  string
	Value string
}

// Family is one exported metric name. Every CounterDef names the family its
// sample belongs to.
type Family struct {
	Name string
	Help string
}

type CounterDef struct {
	ID     goRecover.MetricID
	Family string
	Labels []Label
}

type HistogramDef struct {
	ID goRecover.MetricID
	Op string
}

const (
	CallsFamily             = "goreset_calls_total"
	OutcomesFamily          = "goreset_flow_outcomes_total"
	GuardsFamily            = "goreset_flow_guards_total"
	ThrottleUnavailableName = "goreset_throttle_unavailable_total"
	LatencyFamily           = "goreset_call_latency_seconds"
	LatencyHelp             = "Reset API call latency by operation."
	EventsDeliveredName     = "goreset_events_delivered_total"
	EventsDeliveredHelp     = "Flow events handed to the sink."
	EventsDroppedName       = "goreset_events_dropped_total"
	EventsDroppedHelp       = "Flow events dropped due to dispatcher backpressure, by event type."
	EventsSinkPanicsName    = "goreset_events_sink_panics_total"
	EventsSinkPanicsHelp    = "Flow events lost because the sink panicked, by event type."
	EventTypeLabel          = "event_type"
	OpLabel                 = "op"
	FlowLabel               = "flow"
	StepLabel               = "step"
	OutcomeLabel            = "outcome"
	GuardLabel              = "guard"
)

// CounterFamilies lists families in render order.
var CounterFamilies = []Family{
	{Name: CallsFamily, Help: "Reset API calls issued, by operation."},
	{Name: OutcomesFamily, Help: "Flow step results, by flow, step and outcome."},
	{Name: GuardsFamily, Help: "Flow calls refused or results discarded by a flow guard."},
	{Name: ThrottleUnavailableName, Help: "Reset requests allowed because the throttle backend failed."},
}

func op(name string) []Label {
	return []Label{{Name: OpLabel, Value: name}}
}

func outcome(flow, step, result string) []Label {
	return []Label{
		{Name: FlowLabel, Value: flow},
		{Name: StepLabel, Value: step},
		{Name: OutcomeLabel, Value: result},
	}
}

func guard(name string) []Label {
	return []Label{{Name: GuardLabel, Value: name}}
}

var CounterDefs = []CounterDef{
	{ID: goRecover.MetricRequestSubmitted, Family: CallsFamily, Labels: op("request_reset")},
	{ID: goRecover.MetricResetSubmitted, Family: CallsFamily, Labels: op("reset_password")},

	{ID: goRecover.MetricRequestAccepted, Family: OutcomesFamily, Labels: outcome(goRecover.FlowRequest, "submit", "accepted")},
	{ID: goRecover.MetricRequestRejected, Family: OutcomesFamily, Labels: outcome(goRecover.FlowRequest, "submit", "rejected")},
	{ID: goRecover.MetricRequestTransportFault, Family: OutcomesFamily, Labels: outcome(goRecover.FlowRequest, "submit", "transport_fault")},
	{ID: goRecover.MetricRequestValidationFailed, Family: OutcomesFamily, Labels: outcome(goRecover.FlowRequest, "submit", "validation_failed")},
	{ID: goRecover.MetricRequestThrottled, Family: OutcomesFamily, Labels: outcome(goRecover.FlowRequest, "submit", "throttled")},
	{ID: goRecover.MetricVerifyValid, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "verify", "valid")},
	{ID: goRecover.MetricVerifyInvalid, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "verify", "invalid")},
	{ID: goRecover.MetricVerifyTransportFault, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "verify", "transport_fault")},
	{ID: goRecover.MetricMissingToken, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "verify", "missing_token")},
	{ID: goRecover.MetricResetSuccess, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "submit", "success")},
	{ID: goRecover.MetricResetRejected, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "submit", "rejected")},
	{ID: goRecover.MetricResetTransportFault, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "submit", "transport_fault")},
	{ID: goRecover.MetricResetValidationFailed, Family: OutcomesFamily, Labels: outcome(goRecover.FlowReset, "submit", "validation_failed")},

	{ID: goRecover.MetricDuplicateSubmitBlocked, Family: GuardsFamily, Labels: guard("duplicate_submit")},
	{ID: goRecover.MetricLateResponseDiscarded, Family: GuardsFamily, Labels: guard("late_response")},

	{ID: goRecover.MetricThrottleUnavailable, Family: ThrottleUnavailableName},
}

var HistogramDefs = []HistogramDef{
	{ID: goRecover.MetricRequestResetLatency, Op: "request_reset"},
	{ID: goRecover.MetricVerifyTokenLatency, Op: "verify_token"},
	{ID: goRecover.MetricResetPasswordLatency, Op: "reset_password"},
}

var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// FamilyDefs returns the counters of family in CounterDefs order.
func FamilyDefs(family string) []CounterDef {
	var out []CounterDef
	for _, def := range CounterDefs {
		if def.Family == family {
			out = append(out, def)
		}
	}
	return out
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
