package authz

import "errors"

var (
	// ErrUnavailable is returned when membership data cannot be read, so no
	// decision can be made. It is never a denial.
	ErrUnavailable = errors.New("authz.unavailable")

	// ErrNilPrincipal is returned when the principal has no identifier.
	ErrNilPrincipal = errors.New("authz.nil_principal")
)
