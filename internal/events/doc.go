// Package events implements async delivery of session events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: session record with timestamp, type, user, role and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. The Engine decides which events to emit.
//
// # What this package must NOT do
//
//   - Filter events based on business logic.
//   - Import goCampus or any sibling internal package.
package events
