package authz

import (
	"slices"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// Principal is an authenticated actor making a request. Identity
// verification happens upstream; the engine treats the principal as trusted
// input and never validates it against an identity provider.
type Principal struct {
	ID          string
	SystemRoles []roles.SystemRole
}

// IsSystemAdmin reports whether the principal carries the deployment-wide
// admin role, which bypasses project-level checks entirely.
func (p Principal) IsSystemAdmin() bool {
	return slices.Contains(p.SystemRoles, roles.SystemAdmin)
}

// DenyReason is a machine-readable explanation for a denied decision.
type DenyReason string

const (
	ReasonNotAMember       DenyReason = "not_a_member"
	ReasonInsufficientRole DenyReason = "insufficient_role"
	ReasonInvalidAction    DenyReason = "invalid_action"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason // empty when allowed
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a negative decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
