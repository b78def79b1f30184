// Package flows contains the pure orchestrators and reducers behind both
// password-reset flows.
//
// Each step function (PrepareRequest, RunRequestReset, RunVerifyToken,
// PrepareReset, RunResetPassword) accepts a typed dependency struct and
// returns an [Outcome]. The Prepare functions are pure; a rejected outcome is
// reported afterwards through RecordRequestRejected or RecordResetRejected so
// callers can release their locks before metrics and events run. The reducers (ApplyRequestOutcome, ApplyVerifyOutcome,
// ApplyResetOutcome) fold outcomes into view state and never perform I/O, so
// every transition can be tested without a network.
//
// # Architecture boundaries
//
// Flow functions coordinate the API calls, the request throttle, metrics and
// flow events. They do NOT own any of these resources; ownership stays with
// the root Client. Locking, the in-flight guards and late-response discarding
// live in the root flow types.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goRecover (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
