package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/projectauth/pkg/audit"
	"github.com/dmitrymomot/projectauth/pkg/authz"
	"github.com/dmitrymomot/projectauth/pkg/ratelimit"
	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// Authorizer gates management actions. Satisfied by authz.Service.
type Authorizer interface {
	Authorize(ctx context.Context, p authz.Principal, projectID string, action roles.Action) (authz.Decision, error)
}

// Manager enforces the membership invariants for single-item operations.
// It is safe for concurrent use: all shared state lives in the store and
// every mutation is one guarded atomic write.
type Manager struct {
	store   Store
	authz   Authorizer
	guard   *Guard
	limiter ratelimit.Limiter
	emitter audit.Emitter
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLimiter sets the admission controller for sensitive operations.
// Without one, operations are not rate limited.
func WithLimiter(l ratelimit.Limiter) ManagerOption {
	return func(m *Manager) { m.limiter = l }
}

// WithEmitter sets the audit emitter. Defaults to a slog-backed emitter.
func WithEmitter(e audit.Emitter) ManagerOption {
	return func(m *Manager) {
		if e != nil {
			m.emitter = e
		}
	}
}

// WithLogger sets the logger used for operational messages and audit
// delivery failures.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides membership ID generation, default uuid v4.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a membership manager over the given store and
// authorizer.
func NewManager(store Store, authorizer Authorizer, opts ...ManagerOption) *Manager {
	if store == nil {
		panic("membership: store cannot be nil")
	}
	if authorizer == nil {
		panic("membership: authorizer cannot be nil")
	}

	m := &Manager{
		store: store,
		authz: authorizer,
		guard: NewGuard(store),
		log:   slog.Default(),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.emitter == nil {
		m.emitter = audit.NewLogEmitter(m.log)
	}
	return m
}

// AddMember creates a membership for userID in projectID with the given
// role. The actor must hold manage_members on the project and must be able
// to assign the role (a moderator cannot grant manager).
func (m *Manager) AddMember(ctx context.Context, actor authz.Principal, projectID, userID string, role roles.ProjectRole) (Membership, error) {
	if err := m.admit(ctx, actor.ID, ratelimit.ClassMemberAdd); err != nil {
		return Membership{}, err
	}
	return m.addMember(ctx, actor, projectID, userID, role)
}

// addMember is the rate-limit-free path shared with the bulk coordinator,
// which admits the whole batch under its own class.
func (m *Manager) addMember(ctx context.Context, actor authz.Principal, projectID, userID string, role roles.ProjectRole) (Membership, error) {
	if !role.Valid() {
		return Membership{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if userID == "" {
		return Membership{}, fmt.Errorf("%w: empty user id", ErrNotFound)
	}

	if err := m.requireManageMembers(ctx, actor, projectID); err != nil {
		return Membership{}, err
	}
	if err := m.requireAssignable(ctx, actor, projectID, role); err != nil {
		return Membership{}, err
	}

	created := Membership{
		ID:        m.newID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		Version:   1,
		AddedBy:   actor.ID,
		JoinedAt:  m.now().UTC(),
	}
	if err := m.store.Create(ctx, created); err != nil {
		return Membership{}, err
	}

	m.emit(ctx, actor, audit.Event{
		Type:         audit.EventMemberAdded,
		ProjectID:    projectID,
		TargetUserID: userID,
		AfterRole:    &created.Role,
	})
	return created, nil
}

// UpdateRole changes the role of an existing membership. The write is
// conditioned on expectedVersion; a mismatch returns ErrVersionConflict and
// the caller decides whether to re-read and retry.
func (m *Manager) UpdateRole(ctx context.Context, actor authz.Principal, membershipID string, newRole roles.ProjectRole, expectedVersion int64) (Membership, error) {
	if err := m.admit(ctx, actor.ID, ratelimit.ClassRoleUpdate); err != nil {
		return Membership{}, err
	}
	return m.updateRole(ctx, actor, membershipID, newRole, expectedVersion)
}

func (m *Manager) updateRole(ctx context.Context, actor authz.Principal, membershipID string, newRole roles.ProjectRole, expectedVersion int64) (Membership, error) {
	if !newRole.Valid() {
		return Membership{}, fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}

	target, err := m.store.Get(ctx, membershipID)
	if err != nil {
		return Membership{}, err
	}
	if target.UserID == actor.ID {
		return Membership{}, ErrSelfChangeForbidden
	}

	if err := m.requireManageMembers(ctx, actor, target.ProjectID); err != nil {
		return Membership{}, err
	}
	if err := m.requireAssignable(ctx, actor, target.ProjectID, newRole); err != nil {
		return Membership{}, err
	}

	var beforeRole roles.ProjectRole
	updated, err := m.guard.Update(ctx, membershipID, expectedVersion, func(current Membership) (Membership, error) {
		// Invariant checks run against the same read the CAS is conditioned
		// on, so a concurrent demotion of another manager cannot slip past.
		if current.UserID == actor.ID {
			return Membership{}, ErrSelfChangeForbidden
		}
		if current.Role == roles.RoleManager && newRole != roles.RoleManager {
			if err := m.requireAnotherManager(ctx, current); err != nil {
				return Membership{}, err
			}
		}
		beforeRole = current.Role
		next := current
		next.Role = newRole
		return next, nil
	})
	if err != nil {
		return Membership{}, err
	}

	m.emit(ctx, actor, audit.Event{
		Type:         audit.EventRoleChanged,
		ProjectID:    updated.ProjectID,
		TargetUserID: updated.UserID,
		BeforeRole:   &beforeRole,
		AfterRole:    &updated.Role,
	})
	return updated, nil
}

// RemoveMember deletes a membership on behalf of a project manager or
// moderator. Actors cannot remove themselves here; that path is
// LeaveProject.
func (m *Manager) RemoveMember(ctx context.Context, actor authz.Principal, membershipID string) error {
	if err := m.admit(ctx, actor.ID, ratelimit.ClassMemberRemove); err != nil {
		return err
	}
	return m.removeMember(ctx, actor, membershipID, false)
}

// LeaveProject removes the principal's own membership. No management
// authorization applies, but last-manager protection still does: the sole
// manager cannot abandon the project.
func (m *Manager) LeaveProject(ctx context.Context, projectID, principalID string) error {
	if err := m.admit(ctx, principalID, ratelimit.ClassMemberRemove); err != nil {
		return err
	}

	own, err := m.store.GetByProjectAndUser(ctx, projectID, principalID)
	if err != nil {
		return err
	}
	return m.removeMember(ctx, authz.Principal{ID: principalID}, own.ID, true)
}

func (m *Manager) removeMember(ctx context.Context, actor authz.Principal, membershipID string, selfInitiated bool) error {
	target, err := m.store.Get(ctx, membershipID)
	if err != nil {
		return err
	}

	if !selfInitiated {
		if target.UserID == actor.ID {
			return ErrSelfChangeForbidden
		}
		if err := m.requireManageMembers(ctx, actor, target.ProjectID); err != nil {
			return err
		}
		// Removal authority mirrors assignment authority: a moderator may
		// not remove a manager.
		if err := m.requireAssignable(ctx, actor, target.ProjectID, target.Role); err != nil {
			return err
		}
	}

	removed, err := m.guard.Remove(ctx, membershipID, func(current Membership) error {
		if !selfInitiated && current.UserID == actor.ID {
			return ErrSelfChangeForbidden
		}
		if current.Role == roles.RoleManager {
			return m.requireAnotherManager(ctx, current)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, actor, audit.Event{
		Type:         audit.EventMemberRemoved,
		ProjectID:    removed.ProjectID,
		TargetUserID: removed.UserID,
		BeforeRole:   &removed.Role,
	})
	return nil
}

// ListMembers returns the project's memberships in join order. The actor
// needs view access; no audit event is emitted for reads.
func (m *Manager) ListMembers(ctx context.Context, actor authz.Principal, projectID string) ([]Membership, error) {
	decision, err := m.authz.Authorize(ctx, actor, projectID, roles.ActionView)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, decision.Reason)
	}
	return m.store.ListByProject(ctx, projectID)
}

// admit consumes one slot of the actor's budget for the operation class.
func (m *Manager) admit(ctx context.Context, actorID string, class ratelimit.Class) error {
	if m.limiter == nil {
		return nil
	}
	res, err := m.limiter.Allow(ctx, actorID, class)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if !res.Allowed {
		return fmt.Errorf("%w: class %s, retry in %s", ErrRateLimited, class, res.RetryAfter().Round(time.Millisecond))
	}
	return nil
}

// requireManageMembers checks the actor holds manage_members on the project.
func (m *Manager) requireManageMembers(ctx context.Context, actor authz.Principal, projectID string) error {
	decision, err := m.authz.Authorize(ctx, actor, projectID, roles.ActionManageMembers)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrAuthorizationDenied, decision.Reason)
	}
	return nil
}

// requireAssignable checks the actor's own project role may grant (or
// revoke) the target role. System admins rank above manager and bypass the
// table.
func (m *Manager) requireAssignable(ctx context.Context, actor authz.Principal, projectID string, target roles.ProjectRole) error {
	if actor.IsSystemAdmin() {
		return nil
	}

	own, err := m.store.GetByProjectAndUser(ctx, projectID, actor.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: requester is not a member", ErrAuthorizationDenied)
		}
		return err
	}
	if !roles.CanAssign(own.Role, target) {
		return fmt.Errorf("%w: %s cannot assign %s", ErrAuthorizationDenied, own.Role, target)
	}
	return nil
}

// requireAnotherManager rejects the mutation when current is the project's
// last manager.
func (m *Manager) requireAnotherManager(ctx context.Context, current Membership) error {
	count, err := m.store.CountByProjectAndRole(ctx, current.ProjectID, roles.RoleManager)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastManagerProtected
	}
	return nil
}

// emit hands the event to the configured emitter. Delivery is best-effort:
// a failure is logged and never unwinds the mutation that produced it.
func (m *Manager) emit(ctx context.Context, actor authz.Principal, event audit.Event) {
	event.ActorID = actor.ID
	event.AdminBypass = actor.IsSystemAdmin()
	event.CreatedAt = m.now().UTC()

	if err := m.emitter.Emit(ctx, event); err != nil {
		m.log.ErrorContext(ctx, "audit emission failed",
			slog.String("event_type", string(event.Type)),
			slog.String("project_id", event.ProjectID),
			slog.Any("error", err))
	}
}
