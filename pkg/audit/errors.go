package audit

import "errors"

var (
	// ErrInvalidEvent indicates the event is missing required fields.
	ErrInvalidEvent = errors.New("audit.invalid_event")

	// ErrEmitterClosed indicates the async emitter no longer accepts events.
	ErrEmitterClosed = errors.New("audit.emitter_closed")

	// ErrBufferFull indicates the async buffer had no room for the event.
	ErrBufferFull = errors.New("audit.buffer_full")

	// ErrStoreFailed indicates a persistent emitter could not write the event.
	ErrStoreFailed = errors.New("audit.store_failed")
)
