// Package audit defines the structured change events emitted for every
// successful membership mutation and the emitter interface that delivers
// them. Storage and delivery of events are external concerns: the engine
// only guarantees that a well-formed event is handed to the configured
// emitter after a confirmed write.
//
// Emission is best-effort by design. An emitter failure is logged by the
// caller and never rolls back the membership mutation, so emitters must not
// be relied on for transactional consistency.
//
// Three emitters ship with the package:
//
//   - LogEmitter - writes events as structured slog records, the default.
//
//   - Recorder - captures events in memory, for tests and assertions.
//
//   - AsyncEmitter - decouples emission from the request path with a
//     buffered channel and a single drain worker; events are dropped (and
//     counted) rather than blocking when the buffer is full.
//
// # Usage
//
//	emitter := audit.NewLogEmitter(log)
//	err := emitter.Emit(ctx, audit.Event{
//	    Type:         audit.EventMemberAdded,
//	    ActorID:      "u1",
//	    ProjectID:    "p1",
//	    TargetUserID: "u2",
//	    AfterRole:    &role,
//	})
package audit
