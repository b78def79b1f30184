// Package prometheus renders client metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] reads [goRecover.Client.MetricsSnapshot] on every
// render. Flow results are one labelled family,
// goreset_flow_outcomes_total{flow,step,outcome}; API call latency is the
// goreset_call_latency_seconds histogram labelled by op; event losses are
// labelled by event_type.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate client state.
package prometheus
