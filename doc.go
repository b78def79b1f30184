// Package goRecover implements the client side of a password-reset workflow:
// requesting a reset link by email, verifying the token carried by that link,
// and submitting a new password.
//
// A [Client] is built once through [Builder] and creates independent flows:
//
//   - [RequestFlow]: Idle -> Submitting -> AwaitingEmail | Failed. Success is
//     terminal and reads the same whether or not the account exists.
//   - [ResetFlow]: Verifying -> Ready | Invalid, then Ready -> Submitting ->
//     Completed | Ready. Verification runs exactly once, started by
//     [Client.StartResetFlow].
//
// Every failed attempt is reflected in the flow state and returned as a
// [*FlowError] whose Kind separates local validation, server rejection,
// transport faults, a missing token, and throttling.
//
// # Architecture boundaries
//
// This package is the public surface. Flow steps and reducers live in
// internal/flows, event delivery in internal/events, and the Redis request
// throttle in internal/limiters. The HTTP binding is package api; shared
// validation rules are package validate.
//
// # What this package must NOT do
//
//   - Log or emit passwords, tokens or email addresses.
//   - Retry a call on its own; one valid submission makes exactly one call.
//   - Apply a response to a flow that was closed while the call was outstanding.
package goRecover
