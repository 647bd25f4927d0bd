package membership

import (
	"context"
	"errors"
	"fmt"
)

// Guard wraps read-modify-write cycles against the store with version-based
// conflict detection. It isolates all optimistic-locking mechanics from the
// business rules in Manager: callers supply a mutate (or check) function
// that sees the stable read the write is conditioned on.
//
// The guard never retries. A version mismatch, whether detected on the
// initial read or by the compare-and-swap itself, surfaces as
// ErrVersionConflict and retry policy belongs to the caller.
type Guard struct {
	store Store
}

// NewGuard creates a guard over the given store.
func NewGuard(store Store) *Guard {
	if store == nil {
		panic("membership: guard store cannot be nil")
	}
	return &Guard{store: store}
}

// Update reads the membership, verifies expectedVersion, applies mutate to
// the read copy exactly once and writes the result with a compare-and-swap
// on expectedVersion. The returned membership carries the incremented
// version.
func (g *Guard) Update(ctx context.Context, id string, expectedVersion int64, mutate func(current Membership) (Membership, error)) (Membership, error) {
	current, err := g.store.Get(ctx, id)
	if err != nil {
		return Membership{}, err
	}
	if current.Version != expectedVersion {
		return Membership{}, fmt.Errorf("%w: have %d, expected %d", ErrVersionConflict, current.Version, expectedVersion)
	}

	next, err := mutate(current)
	if err != nil {
		return Membership{}, err
	}
	next.ID = current.ID
	next.ProjectID = current.ProjectID
	next.UserID = current.UserID
	next.Version = current.Version + 1

	ok, err := g.store.UpdateIfVersion(ctx, id, next, expectedVersion)
	if err != nil {
		return Membership{}, err
	}
	if !ok {
		return Membership{}, ErrVersionConflict
	}
	return next, nil
}

// Remove reads the membership, runs check against that same read and
// deletes the record when the check passes. Invariant checks (self-change,
// last manager) therefore evaluate against the state the delete acts on,
// not a separate unguarded pre-read.
func (g *Guard) Remove(ctx context.Context, id string, check func(current Membership) error) (Membership, error) {
	current, err := g.store.Get(ctx, id)
	if err != nil {
		return Membership{}, err
	}

	if err := check(current); err != nil {
		return Membership{}, err
	}

	if err := g.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deleted concurrently between our read and the delete.
			return Membership{}, ErrVersionConflict
		}
		return Membership{}, err
	}
	return current, nil
}
