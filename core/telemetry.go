package core

import "time"

// RequestStartEvent is emitted before a request is sent.
type RequestStartEvent struct {
	Method   string
	Endpoint string
	Start    time.Time
}

// RequestEndEvent is emitted after a request completes or fails.
type RequestEndEvent struct {
	Method   string
	Endpoint string
	// Status is the HTTP status, or 0 when the backend was not reached.
	Status int
	Start  time.Time
	End    time.Time
	Err    error
}

// TelemetryHook observes the request lifecycle. Implementations must be
// safe for concurrent calls and must not block.
type TelemetryHook interface {
	OnRequestStart(RequestStartEvent)
	OnRequestEnd(RequestEndEvent)
}

// NoopTelemetryHook ignores all events.
type NoopTelemetryHook struct{}

// OnRequestStart implements TelemetryHook.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd implements TelemetryHook.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}
