package ratelimit

import (
	"context"
	"time"
)

// Class identifies an operation budget. Each class has its own window and
// limit so expensive operations can be throttled harder than cheap ones.
type Class string

const (
	ClassMemberAdd    Class = "member_add"
	ClassBulkAdd      Class = "bulk_add"
	ClassRoleUpdate   Class = "role_update"
	ClassMemberRemove Class = "member_remove"
)

// Policy is the budget for one operation class.
type Policy struct {
	Limit  int           // maximum requests per window
	Window time.Duration // sliding window length
}

// Config carries the per-class budgets, loadable from the environment.
type Config struct {
	MemberAddLimit     int           `env:"RATELIMIT_MEMBER_ADD_LIMIT" envDefault:"20"`
	MemberAddWindow    time.Duration `env:"RATELIMIT_MEMBER_ADD_WINDOW" envDefault:"1m"`
	BulkAddLimit       int           `env:"RATELIMIT_BULK_ADD_LIMIT" envDefault:"5"`
	BulkAddWindow      time.Duration `env:"RATELIMIT_BULK_ADD_WINDOW" envDefault:"1m"`
	RoleUpdateLimit    int           `env:"RATELIMIT_ROLE_UPDATE_LIMIT" envDefault:"30"`
	RoleUpdateWindow   time.Duration `env:"RATELIMIT_ROLE_UPDATE_WINDOW" envDefault:"1m"`
	MemberRemoveLimit  int           `env:"RATELIMIT_MEMBER_REMOVE_LIMIT" envDefault:"20"`
	MemberRemoveWindow time.Duration `env:"RATELIMIT_MEMBER_REMOVE_WINDOW" envDefault:"1m"`
}

// Policies converts the config into the per-class policy map the limiter
// consumes.
func (c Config) Policies() map[Class]Policy {
	return map[Class]Policy{
		ClassMemberAdd:    {Limit: c.MemberAddLimit, Window: c.MemberAddWindow},
		ClassBulkAdd:      {Limit: c.BulkAddLimit, Window: c.BulkAddWindow},
		ClassRoleUpdate:   {Limit: c.RoleUpdateLimit, Window: c.RoleUpdateWindow},
		ClassMemberRemove: {Limit: c.MemberRemoveLimit, Window: c.MemberRemoveWindow},
	}
}

// DefaultPolicies returns the built-in budgets: 20 single adds, 5 bulk adds,
// 30 role updates and 20 removals per actor per minute.
func DefaultPolicies() map[Class]Policy {
	return Config{
		MemberAddLimit: 20, MemberAddWindow: time.Minute,
		BulkAddLimit: 5, BulkAddWindow: time.Minute,
		RoleUpdateLimit: 30, RoleUpdateWindow: time.Minute,
		MemberRemoveLimit: 20, MemberRemoveWindow: time.Minute,
	}.Policies()
}

// Result reports the outcome of an admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next attempt may succeed.
// Returns 0 when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is the admission-control interface the membership engine consumes.
type Limiter interface {
	// Allow records one request for (actorID, class) if the class budget
	// permits it and reports the outcome. An error means the backing store
	// could not be consulted, not that the request was denied.
	Allow(ctx context.Context, actorID string, class Class) (*Result, error)
}

// Store is the storage backend for sliding windows.
type Store interface {
	// RecordIfAllowed atomically counts live timestamps for key within
	// window and, when the count is below limit, records now. It returns
	// whether the request was admitted and the count after the call.
	RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (allowed bool, count int64, err error)

	// Reset clears the window for key.
	Reset(ctx context.Context, key string) error
}
