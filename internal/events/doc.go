// Package events implements asynchronous delivery of flow events.
//
// # Components
//
//   - [Event]: one flow transition with flow id, status, error kind and metadata.
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered relay with drop-if-full or block-if-full behavior.
//     [Stats] attributes drops and sink panics to event types.
//
// This package owns buffering and sink delivery only. Which events exist and
// when they fire is decided by the flow functions and the root client.
//
// Events never carry passwords or tokens; callers are responsible for what
// they put into Message and Metadata.
package events
