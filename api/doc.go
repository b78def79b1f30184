// Package api implements the three password-reset server operations over HTTP.
//
// # Components
//
//   - [Client] is the JSON client for request-reset, verify-token and reset-password.
//   - [Response] is the `{success, message, data}` envelope shared by all three operations.
//   - [TransportError] is returned when no response could be obtained.
//
// # Architecture boundaries
//
// The client reports what the server said; it does not interpret success or failure.
// Deciding what a response means for a flow belongs to goRecover and internal/flows.
//
// # What this package must NOT do
//
//   - Retry calls or cache responses.
//   - Log passwords, tokens or email addresses.
//   - Import goRecover (no import cycles).
package api
