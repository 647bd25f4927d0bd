package ratelimit

import "errors"

var (
	// ErrStoreRequired indicates the limiter was constructed without a store.
	ErrStoreRequired = errors.New("ratelimit.store_required")

	// ErrUnknownClass indicates no policy is configured for the class.
	ErrUnknownClass = errors.New("ratelimit.unknown_class")

	// ErrInvalidPolicy indicates a policy with a non-positive limit or window.
	ErrInvalidPolicy = errors.New("ratelimit.invalid_policy")

	// ErrKeyRequired indicates an empty actor ID.
	ErrKeyRequired = errors.New("ratelimit.key_required")
)
