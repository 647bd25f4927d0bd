// Package projectauth is a project-scoped authorization and membership
// engine: it decides who may act on a project and enforces the invariants
// that keep that decision space consistent under concurrent, bulk and
// adversarial use.
//
// The engine is transport-agnostic. Identity verification, HTTP framing and
// storage engine internals are external collaborators: callers hand in an
// already-trusted principal and a membership store implementation, and get
// back typed decisions and errors.
//
// # Architecture
//
//	                ┌──────────────┐
//	  Authorize ──► │ authz.Service │ ──► read-only role lookup
//	                └──────────────┘
//	                ┌──────────────┐   ┌───────────────┐
//	  mutations ──► │  ratelimit   │──►│ membership     │──► Store (CAS writes)
//	                │  (per actor) │   │ Manager/Guard  │──► audit.Emitter
//	                └──────────────┘   └───────────────┘
//	                ┌──────────────────┐
//	  bulk ops  ──► │ membership       │ ──► per-item outcomes, never atomic
//	                │ Coordinator      │
//	                └──────────────────┘
//
// Every mutation path runs rate limiting, authorization, invariant checks,
// exactly one atomic store write and a best-effort audit emission, in that
// order. The engine holds no locks across store calls; optimistic version
// tokens provide all write safety.
//
// # Usage
//
//	store := membership.NewMemoryStore()
//	engine, err := projectauth.New(store)
//	if err != nil { ... }
//	defer engine.Close()
//
//	m, err := engine.AddMember(ctx, actor, projectID, userID, roles.RoleMember)
//	switch {
//	case errors.Is(err, membership.ErrAuthorizationDenied):
//	case errors.Is(err, membership.ErrRateLimited):
//	case err != nil:
//	}
//
// For production use wire membership.NewPostgresStore (or
// membership.NewMongoStore) and a Redis-backed rate limit store so several
// engine instances share budgets.
package projectauth
