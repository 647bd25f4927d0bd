package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncOptions configures the buffering behavior of AsyncEmitter.
type AsyncOptions struct {
	// BufferSize is the number of events that may be queued before new
	// events are dropped. Defaults to 1000.
	BufferSize int

	// EmitTimeout bounds each delivery to the wrapped emitter. Defaults to
	// 5 seconds.
	EmitTimeout time.Duration
}

// AsyncEmitter wraps another emitter and delivers events from a background
// worker, keeping slow delivery off the request path. When the buffer is
// full the event is dropped and counted rather than blocking the mutation
// that produced it: audit delivery is best-effort.
type AsyncEmitter struct {
	next    Emitter
	log     *slog.Logger
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Int64
	opts    AsyncOptions
}

// NewAsyncEmitter starts the drain worker and returns the emitter. Call
// Close to flush and stop the worker.
func NewAsyncEmitter(next Emitter, log *slog.Logger, opts AsyncOptions) *AsyncEmitter {
	if next == nil {
		panic("audit: wrapped emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.EmitTimeout <= 0 {
		opts.EmitTimeout = 5 * time.Second
	}

	a := &AsyncEmitter{
		next:   next,
		log:    log,
		events: make(chan Event, opts.BufferSize),
		done:   make(chan struct{}),
		opts:   opts,
	}

	a.wg.Add(1)
	go a.drain()

	return a
}

// Emit queues the event for background delivery. It returns ErrBufferFull
// when the queue is saturated and ErrEmitterClosed after Close; both are
// conditions the caller logs and moves on from.
func (a *AsyncEmitter) Emit(_ context.Context, event Event) error {
	if a.closed.Load() {
		return ErrEmitterClosed
	}

	stamp(&event)
	if err := event.Validate(); err != nil {
		return err
	}

	select {
	case a.events <- event:
		return nil
	default:
		a.dropped.Add(1)
		return ErrBufferFull
	}
}

// Dropped returns the number of events discarded due to a full buffer.
func (a *AsyncEmitter) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting events, flushes the queue and waits for the worker.
func (a *AsyncEmitter) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	close(a.done)
	a.wg.Wait()
	return nil
}

func (a *AsyncEmitter) drain() {
	defer a.wg.Done()

	deliver := func(event Event) {
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.EmitTimeout)
		defer cancel()
		if err := a.next.Emit(ctx, event); err != nil {
			a.log.ErrorContext(ctx, "audit event delivery failed",
				slog.String("event_id", event.ID),
				slog.String("event_type", string(event.Type)),
				slog.Any("error", err))
		}
	}

	for {
		select {
		case event := <-a.events:
			deliver(event)
		case <-a.done:
			// Flush whatever is still queued, then stop.
			for {
				select {
				case event := <-a.events:
					deliver(event)
				default:
					return
				}
			}
		}
	}
}
