// Package membership implements the invariant-enforcing core of the
// project authorization engine: membership records, the persistence
// contract, optimistic concurrency control and the business rules for
// changing who belongs to a project.
//
// Three invariants hold at all times for any project with at least one
// membership:
//
//   - Uniqueness - at most one membership per (project, user) pair.
//
//   - Non-empty manager - a project with members always retains at least
//     one project manager. Any mutation that would violate this is rejected
//     before a write happens.
//
//   - Self-immutability - an actor can never change its own role or remove
//     itself through the management path, regardless of rank or system
//     admin status. Leaving a project is the one sanctioned self-removal
//     and remains subject to last-manager protection.
//
// The package holds no locks across store round trips. Every mutation is a
// single compare-and-swap (or guarded delete) against the store's version
// column; a lost race surfaces as ErrVersionConflict and retrying is the
// caller's decision.
//
// Manager performs single-item operations; Coordinator drives Manager over
// a batch, isolating per-item failures into a Result report instead of
// aborting or rolling back the batch. The partial-failure contract is
// deliberate: already-succeeded items stay committed.
package membership
