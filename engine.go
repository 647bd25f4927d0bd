package projectauth

import (
	"context"
	"io"
	"log/slog"

	"github.com/dmitrymomot/projectauth/pkg/audit"
	"github.com/dmitrymomot/projectauth/pkg/authz"
	"github.com/dmitrymomot/projectauth/pkg/membership"
	"github.com/dmitrymomot/projectauth/pkg/ratelimit"
	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// Engine composes the authorization service, membership manager and bulk
// coordinator behind the engine's public surface. One instance is shared by
// all in-flight requests; every method is safe for concurrent use.
type Engine struct {
	authz   *authz.Service
	manager *membership.Manager
	bulk    *membership.Coordinator
	closers []io.Closer
}

type engineOptions struct {
	limiter     ratelimit.Limiter
	policies    map[ratelimit.Class]ratelimit.Policy
	emitter     audit.Emitter
	log         *slog.Logger
	maxBatch    int
	managerOpts []membership.ManagerOption
}

// Option configures the engine.
type Option func(*engineOptions)

// WithLimiter injects a rate limiter, replacing the default in-memory
// sliding window. Use this to share budgets across instances via Redis.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(o *engineOptions) { o.limiter = l }
}

// WithRateLimitPolicies overrides the per-class budgets of the default
// limiter. Ignored when WithLimiter is set.
func WithRateLimitPolicies(policies map[ratelimit.Class]ratelimit.Policy) Option {
	return func(o *engineOptions) {
		if len(policies) > 0 {
			o.policies = policies
		}
	}
}

// WithEmitter sets the audit emitter, default is slog-backed.
func WithEmitter(e audit.Emitter) Option {
	return func(o *engineOptions) { o.emitter = e }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *engineOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMaxBatchSize caps bulk inputs, default membership.DefaultMaxBatchSize.
func WithMaxBatchSize(n int) Option {
	return func(o *engineOptions) { o.maxBatch = n }
}

// WithManagerOptions passes extra options through to the membership
// manager, e.g. membership.WithClock for deterministic tests.
func WithManagerOptions(opts ...membership.ManagerOption) Option {
	return func(o *engineOptions) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

// New builds an engine over the given membership store.
func New(store membership.Store, opts ...Option) (*Engine, error) {
	o := engineOptions{
		log:      slog.Default(),
		policies: ratelimit.DefaultPolicies(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{}

	if o.limiter == nil {
		rlStore := ratelimit.NewMemoryStore()
		limiter, err := ratelimit.NewLimiter(rlStore, o.policies)
		if err != nil {
			_ = rlStore.Close()
			return nil, err
		}
		o.limiter = limiter
		e.closers = append(e.closers, rlStore)
	}

	svc := authz.NewService(membership.NewRoleSource(store))

	managerOpts := []membership.ManagerOption{
		membership.WithLimiter(o.limiter),
		membership.WithLogger(o.log),
	}
	if o.emitter != nil {
		managerOpts = append(managerOpts, membership.WithEmitter(o.emitter))
	}
	managerOpts = append(managerOpts, o.managerOpts...)

	manager := membership.NewManager(store, svc, managerOpts...)

	var bulkOpts []membership.CoordinatorOption
	if o.maxBatch > 0 {
		bulkOpts = append(bulkOpts, membership.WithMaxBatchSize(o.maxBatch))
	}

	e.authz = svc
	e.manager = manager
	e.bulk = membership.NewCoordinator(manager, bulkOpts...)
	return e, nil
}

// NewFromConfig builds an engine from environment-driven configuration.
func NewFromConfig(store membership.Store, cfg Config, opts ...Option) (*Engine, error) {
	base := []Option{
		WithMaxBatchSize(cfg.MaxBatchSize),
		WithRateLimitPolicies(cfg.RateLimits.Policies()),
	}
	return New(store, append(base, opts...)...)
}

// Authorize decides whether the principal may perform action on the
// project. Purely a read; see authz.Service.
func (e *Engine) Authorize(ctx context.Context, p authz.Principal, projectID string, action roles.Action) (authz.Decision, error) {
	return e.authz.Authorize(ctx, p, projectID, action)
}

// AddMember creates a membership for userID in projectID with the role.
func (e *Engine) AddMember(ctx context.Context, actor authz.Principal, projectID, userID string, role roles.ProjectRole) (membership.Membership, error) {
	return e.manager.AddMember(ctx, actor, projectID, userID, role)
}

// AddMembersBulk adds all items, reporting per-item outcomes.
func (e *Engine) AddMembersBulk(ctx context.Context, actor authz.Principal, projectID string, items []membership.AddItem) (membership.Result[membership.AddItem, membership.Membership], error) {
	return e.bulk.AddMembers(ctx, actor, projectID, items)
}

// UpdateMemberRole changes a membership's role, conditioned on expectedVersion.
func (e *Engine) UpdateMemberRole(ctx context.Context, actor authz.Principal, membershipID string, newRole roles.ProjectRole, expectedVersion int64) (membership.Membership, error) {
	return e.manager.UpdateRole(ctx, actor, membershipID, newRole, expectedVersion)
}

// UpdateMemberRolesBulk applies all role updates, reporting per-item outcomes.
func (e *Engine) UpdateMemberRolesBulk(ctx context.Context, actor authz.Principal, items []membership.UpdateItem) (membership.Result[membership.UpdateItem, membership.Membership], error) {
	return e.bulk.UpdateRoles(ctx, actor, items)
}

// RemoveMember deletes a membership on the actor's authority.
func (e *Engine) RemoveMember(ctx context.Context, actor authz.Principal, membershipID string) error {
	return e.manager.RemoveMember(ctx, actor, membershipID)
}

// LeaveProject removes the principal's own membership.
func (e *Engine) LeaveProject(ctx context.Context, projectID, principalID string) error {
	return e.manager.LeaveProject(ctx, projectID, principalID)
}

// ListMembers returns the project's memberships in join order.
func (e *Engine) ListMembers(ctx context.Context, actor authz.Principal, projectID string) ([]membership.Membership, error) {
	return e.manager.ListMembers(ctx, actor, projectID)
}

// Close releases resources the engine created itself (the default rate
// limit store). Injected dependencies are the caller's to close.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
