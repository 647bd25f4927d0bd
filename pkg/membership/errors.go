package membership

import "errors"

// Error taxonomy for membership operations. All of these are returned as
// wrapped sentinels so callers discriminate with errors.Is. VersionConflict
// and RateLimited are recoverable-by-retry conditions; the rest are
// terminal for the request that produced them.
var (
	// ErrNotFound is returned when the referenced membership does not exist.
	ErrNotFound = errors.New("membership.not_found")

	// ErrDuplicateMembership is returned when the (project, user) uniqueness
	// invariant would be violated.
	ErrDuplicateMembership = errors.New("membership.duplicate")

	// ErrAuthorizationDenied is returned when the requester lacks the role
	// required for the operation or attempts to assign a role above its own.
	ErrAuthorizationDenied = errors.New("membership.authorization_denied")

	// ErrSelfChangeForbidden is returned when a requester targets itself for
	// a role change or a non-self-initiated removal.
	ErrSelfChangeForbidden = errors.New("membership.self_change_forbidden")

	// ErrLastManagerProtected is returned when a mutation would leave the
	// project with zero managers.
	ErrLastManagerProtected = errors.New("membership.last_manager_protected")

	// ErrVersionConflict is returned when an optimistic write lost a race.
	// The caller must re-read and retry; the engine never retries itself.
	ErrVersionConflict = errors.New("membership.version_conflict")

	// ErrRateLimited is returned when the actor's budget for the operation
	// class is exhausted.
	ErrRateLimited = errors.New("membership.rate_limited")

	// ErrBatchTooLarge is returned when a bulk input exceeds the configured
	// cap; no item is attempted.
	ErrBatchTooLarge = errors.New("membership.batch_too_large")

	// ErrInvalidRole is returned when the requested role is not in the
	// catalog.
	ErrInvalidRole = errors.New("membership.invalid_role")

	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached. It is distinct from every decision error above: the
	// operation's outcome is unknown, not denied.
	ErrStoreUnavailable = errors.New("membership.store_unavailable")
)

// FailureReason returns the machine-readable reason string for an error,
// used in bulk reports.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateMembership):
		return "duplicate_membership"
	case errors.Is(err, ErrAuthorizationDenied):
		return "authorization_denied"
	case errors.Is(err, ErrSelfChangeForbidden):
		return "self_change_forbidden"
	case errors.Is(err, ErrLastManagerProtected):
		return "last_manager_protected"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
