package membership

import (
	"context"
	"errors"

	"github.com/dmitrymomot/projectauth/pkg/authz"
	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// roleSource adapts a Store to the narrow read interface authz consumes.
type roleSource struct {
	store Store
}

// NewRoleSource exposes the store's project roles to the authorization
// service without leaking the full persistence contract.
func NewRoleSource(store Store) authz.RoleSource {
	if store == nil {
		panic("membership: role source store cannot be nil")
	}
	return roleSource{store: store}
}

func (r roleSource) ProjectRole(ctx context.Context, projectID, userID string) (roles.ProjectRole, bool, error) {
	m, err := r.store.GetByProjectAndUser(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.Role, true, nil
}
