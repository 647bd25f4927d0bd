package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogEmitter delivers events as structured log records. It is the default
// emitter wired by the engine when no other delivery channel is configured.
type LogEmitter struct {
	log *slog.Logger
}

// NewLogEmitter creates an emitter writing to the given logger. A nil logger
// falls back to slog.Default.
func NewLogEmitter(log *slog.Logger) *LogEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmitter{log: log}
}

// Emit validates the event, stamps missing ID/CreatedAt fields and writes a
// structured record.
func (l *LogEmitter) Emit(ctx context.Context, event Event) error {
	stamp(&event)
	if err := event.Validate(); err != nil {
		return err
	}

	attrs := []any{
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("actor_id", event.ActorID),
		slog.String("project_id", event.ProjectID),
		slog.String("target_user_id", event.TargetUserID),
		slog.Time("created_at", event.CreatedAt),
	}
	if event.BeforeRole != nil {
		attrs = append(attrs, slog.String("before_role", string(*event.BeforeRole)))
	}
	if event.AfterRole != nil {
		attrs = append(attrs, slog.String("after_role", string(*event.AfterRole)))
	}
	if event.AdminBypass {
		attrs = append(attrs, slog.Bool("admin_bypass", true))
	}

	l.log.InfoContext(ctx, "membership audit event", attrs...)
	return nil
}

// Recorder is an in-memory emitter for tests. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	stamp(&event)
	if err := event.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// stamp fills ID and CreatedAt when the producer left them zero.
func stamp(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
}
