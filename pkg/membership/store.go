package membership

import (
	"context"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// Store is the persistence contract for membership records. Implementations
// must enforce the (project, user) unique constraint and expose
// compare-and-swap semantics on the version column; everything else about
// the schema is theirs to decide.
//
// Read methods return ErrNotFound (possibly wrapped) for missing records.
// Infrastructure failures must wrap ErrStoreUnavailable so callers can
// distinguish "no" from "don't know".
type Store interface {
	// Get returns the membership by ID.
	Get(ctx context.Context, id string) (Membership, error)

	// GetByProjectAndUser returns the membership for the (project, user) pair.
	GetByProjectAndUser(ctx context.Context, projectID, userID string) (Membership, error)

	// ListByProject returns all memberships of a project in join order.
	ListByProject(ctx context.Context, projectID string) ([]Membership, error)

	// CountByProjectAndRole returns how many memberships of the project hold
	// the given role.
	CountByProjectAndRole(ctx context.Context, projectID string, role roles.ProjectRole) (int64, error)

	// Create persists a new membership. Returns ErrDuplicateMembership when
	// the (project, user) pair already exists.
	Create(ctx context.Context, m Membership) error

	// UpdateIfVersion writes next only if the stored version still equals
	// expectedVersion. Returns false (and no error) when the version moved;
	// the caller converts that into ErrVersionConflict.
	UpdateIfVersion(ctx context.Context, id string, next Membership, expectedVersion int64) (bool, error)

	// Delete removes the membership by ID. Deleting a missing record returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error
}
