package goCampus

import (
	"context"
	"time"

	"github.com/MrEthical07/goCampus/internal/events"
	"github.com/google/uuid"
)

// SessionEvent is one session lifecycle record delivered to an EventSink.
type SessionEvent = events.Event

// EventSink receives session events on the dispatcher goroutine.
type EventSink = events.Sink

// NoOpSink drops every event.
type NoOpSink = events.NoOpSink

// ChannelSink writes events into a buffered channel.
type ChannelSink = events.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = events.JSONWriterSink

var (
	// NewChannelSink returns a ChannelSink with the given buffer.
	NewChannelSink = events.NewChannelSink
	// NewJSONWriterSink returns a sink writing to w.
	NewJSONWriterSink = events.NewJSONWriterSink
)

// Session event types.
const (
	EventLoginSuccess     = events.TypeLoginSuccess
	EventLoginFailure     = events.TypeLoginFailure
	EventSessionConfirmed = events.TypeSessionConfirmed
	EventSessionDropped   = events.TypeSessionDropped
	EventLogout           = events.TypeLogout
	EventRedirect         = events.TypeRedirect
	EventUnknownRole      = events.TypeUnknownRole
	EventStorageFailure   = events.TypeStorageFailure
	EventPushRegistered   = events.TypePushRegistered
)

func (e *Engine) emitEvent(ctx context.Context, eventType string, success bool, id *Identity, err error, metadata func() map[string]string) {
	if e == nil || e.events == nil {
		return
	}

	ev := SessionEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Success:   success,
	}
	if id != nil {
		ev.UserID = id.ID
		ev.Role = id.Role
	}
	if err != nil {
		ev.Error = err.Error()
	}

	md := contextMetadata(ctx)
	if metadata != nil {
		extra := metadata()
		if len(extra) > 0 && md == nil {
			md = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			md[k] = v
		}
	}
	ev.Metadata = md

	e.events.Emit(ctx, ev)
}
