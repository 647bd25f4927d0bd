package authz

import (
	"context"
	"errors"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// RoleSource supplies the project role of a user, if any. The membership
// store satisfies this through a thin adapter; authz deliberately depends on
// this narrow read interface rather than the full store.
type RoleSource interface {
	// ProjectRole returns the user's role in the project and whether a
	// membership exists. An error means the source could not be read.
	ProjectRole(ctx context.Context, projectID, userID string) (roles.ProjectRole, bool, error)
}

// Service makes project-scoped authorization decisions. It is stateless and
// safe for concurrent use.
type Service struct {
	source RoleSource
}

// NewService creates an authorization service backed by the given role source.
func NewService(source RoleSource) *Service {
	if source == nil {
		panic("authz: role source cannot be nil")
	}
	return &Service{source: source}
}

// Authorize decides whether the principal may perform action on the project.
// System admins are always allowed. Non-members are denied. Otherwise the
// member's role rank is compared against the action's minimum role.
//
// A non-nil error means the decision could not be made (storage failure) and
// wraps ErrUnavailable; the accompanying Decision is zero-valued and must
// not be interpreted.
func (s *Service) Authorize(ctx context.Context, p Principal, projectID string, action roles.Action) (Decision, error) {
	if p.ID == "" {
		return Decision{}, ErrNilPrincipal
	}
	if !action.Valid() {
		return Deny(ReasonInvalidAction), nil
	}

	if p.IsSystemAdmin() {
		return Allow(), nil
	}

	role, ok, err := s.source.ProjectRole(ctx, projectID, p.ID)
	if err != nil {
		return Decision{}, errors.Join(ErrUnavailable, err)
	}
	if !ok {
		return Deny(ReasonNotAMember), nil
	}

	min, ok := roles.MinRoleFor(action)
	if !ok {
		return Deny(ReasonInvalidAction), nil
	}
	if roles.Rank(role) < roles.Rank(min) {
		return Deny(ReasonInsufficientRole), nil
	}

	return Allow(), nil
}
