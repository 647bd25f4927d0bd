package membership_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/projectauth/pkg/audit"
	"github.com/dmitrymomot/projectauth/pkg/authz"
	"github.com/dmitrymomot/projectauth/pkg/membership"
	"github.com/dmitrymomot/projectauth/pkg/ratelimit"
	"github.com/dmitrymomot/projectauth/pkg/roles"
)

func user(id string) authz.Principal {
	return authz.Principal{ID: id, SystemRoles: []roles.SystemRole{roles.SystemUser}}
}

func admin(id string) authz.Principal {
	return authz.Principal{ID: id, SystemRoles: []roles.SystemRole{roles.SystemAdmin}}
}

type managerFixture struct {
	store   *membership.MemoryStore
	manager *membership.Manager
	events  *audit.Recorder
}

func newManagerFixture(t *testing.T, opts ...membership.ManagerOption) *managerFixture {
	t.Helper()

	store := membership.NewMemoryStore()
	recorder := audit.NewRecorder()
	svc := authz.NewService(membership.NewRoleSource(store))

	base := []membership.ManagerOption{membership.WithEmitter(recorder)}
	manager := membership.NewManager(store, svc, append(base, opts...)...)

	return &managerFixture{store: store, manager: manager, events: recorder}
}

func TestManager_AddMember(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)

	created, err := f.manager.AddMember(ctx, user("u1"), "p1", "u2", roles.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ProjectID)
	assert.Equal(t, "u2", created.UserID)
	assert.Equal(t, roles.RoleMember, created.Role)
	assert.EqualValues(t, 1, created.Version)
	assert.Equal(t, "u1", created.AddedBy)
	assert.NotEmpty(t, created.ID)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventMemberAdded, events[0].Type)
	assert.Equal(t, "u1", events[0].ActorID)
	assert.Equal(t, "u2", events[0].TargetUserID)
	assert.Nil(t, events[0].BeforeRole)
	require.NotNil(t, events[0].AfterRole)
	assert.Equal(t, roles.RoleMember, *events[0].AfterRole)
	assert.False(t, events[0].AdminBypass)
}

func TestManager_AddMember_Failures(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleModerator)
	seedMembership(t, f.store, "m-u3", "p1", "u3", roles.RoleMember)

	tests := []struct {
		name    string
		actor   authz.Principal
		userID  string
		role    roles.ProjectRole
		wantErr error
	}{
		{"duplicate membership", user("u1"), "u2", roles.RoleMember, membership.ErrDuplicateMembership},
		{"moderator cannot grant manager", user("u2"), "u9", roles.RoleManager, membership.ErrAuthorizationDenied},
		{"member lacks manage_members", user("u3"), "u9", roles.RoleViewer, membership.ErrAuthorizationDenied},
		{"non-member denied", user("stranger"), "u9", roles.RoleViewer, membership.ErrAuthorizationDenied},
		{"invalid role rejected", user("u1"), "u9", roles.ProjectRole("czar"), membership.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.AddMember(ctx, tt.actor, "p1", tt.userID, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No audit events for failed mutations.
	assert.Empty(t, f.events.Events())
}

func TestManager_AddMember_ModeratorWithinRank(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleModerator)

	created, err := f.manager.AddMember(context.Background(), user("u1"), "p1", "u2", roles.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, roles.RoleModerator, created.Role)
}

func TestManager_AddMember_AdminBypass(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	// The admin holds no membership anywhere; system role alone authorizes
	// the add, and the audit event is flagged.
	created, err := f.manager.AddMember(context.Background(), admin("root"), "p1", "u1", roles.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, roles.RoleManager, created.Role)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].AdminBypass)
}

func TestManager_AddMember_RateLimited(t *testing.T) {
	t.Parallel()

	rlStore := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	t.Cleanup(func() { _ = rlStore.Close() })
	limiter, err := ratelimit.NewLimiter(rlStore, map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassMemberAdd: {Limit: 2, Window: time.Minute},
	})
	require.NoError(t, err)

	f := newManagerFixture(t, membership.WithLimiter(limiter))
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)

	_, err = f.manager.AddMember(ctx, user("u1"), "p1", "u2", roles.RoleMember)
	require.NoError(t, err)
	_, err = f.manager.AddMember(ctx, user("u1"), "p1", "u3", roles.RoleMember)
	require.NoError(t, err)

	_, err = f.manager.AddMember(ctx, user("u1"), "p1", "u4", roles.RoleMember)
	assert.ErrorIs(t, err, membership.ErrRateLimited)

	// The rejected add never reached the store.
	_, err = f.store.GetByProjectAndUser(ctx, "p1", "u4")
	assert.ErrorIs(t, err, membership.ErrNotFound)
}

func TestManager_UpdateRole(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleMember)

	updated, err := f.manager.UpdateRole(ctx, user("u1"), "m-u2", roles.RoleModerator, 1)
	require.NoError(t, err)
	assert.Equal(t, roles.RoleModerator, updated.Role)
	assert.EqualValues(t, 2, updated.Version)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventRoleChanged, events[0].Type)
	require.NotNil(t, events[0].BeforeRole)
	require.NotNil(t, events[0].AfterRole)
	assert.Equal(t, roles.RoleMember, *events[0].BeforeRole)
	assert.Equal(t, roles.RoleModerator, *events[0].AfterRole)
}

func TestManager_UpdateRole_SelfChangeForbidden(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)

	_, err := f.manager.UpdateRole(ctx, user("u1"), "m-u1", roles.RoleViewer, 1)
	assert.ErrorIs(t, err, membership.ErrSelfChangeForbidden)

	// System admin rank does not lift self-immutability.
	_, err = f.manager.UpdateRole(ctx, admin("u1"), "m-u1", roles.RoleViewer, 1)
	assert.ErrorIs(t, err, membership.ErrSelfChangeForbidden)
}

func TestManager_UpdateRole_LastManagerProtected(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)

	// Even a system admin cannot demote the sole manager.
	_, err := f.manager.UpdateRole(ctx, admin("root"), "m-u1", roles.RoleMember, 1)
	assert.ErrorIs(t, err, membership.ErrLastManagerProtected)

	// A second manager lifts the protection.
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleManager)
	updated, err := f.manager.UpdateRole(ctx, user("u2"), "m-u1", roles.RoleMember, 1)
	require.NoError(t, err)
	assert.Equal(t, roles.RoleMember, updated.Role)

	// Manager-to-manager "demotion" that keeps the role is no demotion.
	seedMembership(t, f.store, "m-u3", "p2", "u3", roles.RoleManager)
	seedMembership(t, f.store, "m-u4", "p2", "u4", roles.RoleManager)
	_, err = f.manager.UpdateRole(ctx, user("u3"), "m-u4", roles.RoleManager, 1)
	assert.NoError(t, err)
}

func TestManager_UpdateRole_VersionConflict(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleMember)

	_, err := f.manager.UpdateRole(ctx, user("u1"), "m-u2", roles.RoleModerator, 99)
	assert.ErrorIs(t, err, membership.ErrVersionConflict)

	// State untouched, no audit event.
	got, err := f.store.Get(ctx, "m-u2")
	require.NoError(t, err)
	assert.Equal(t, roles.RoleMember, got.Role)
	assert.Empty(t, f.events.Events())
}

func TestManager_UpdateRole_NotFound(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	_, err := f.manager.UpdateRole(context.Background(), user("u1"), "ghost", roles.RoleViewer, 1)
	assert.ErrorIs(t, err, membership.ErrNotFound)
}

func TestManager_RemoveMember(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleMember)

	require.NoError(t, f.manager.RemoveMember(ctx, user("u1"), "m-u2"))

	_, err := f.store.Get(ctx, "m-u2")
	assert.ErrorIs(t, err, membership.ErrNotFound)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventMemberRemoved, events[0].Type)
	require.NotNil(t, events[0].BeforeRole)
	assert.Equal(t, roles.RoleMember, *events[0].BeforeRole)
	assert.Nil(t, events[0].AfterRole)
}

func TestManager_RemoveMember_Failures(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleModerator)

	// Self-removal through the management path is forbidden.
	err := f.manager.RemoveMember(ctx, user("u1"), "m-u1")
	assert.ErrorIs(t, err, membership.ErrSelfChangeForbidden)

	// Sole manager is protected even from a system admin.
	err = f.manager.RemoveMember(ctx, admin("root"), "m-u1")
	assert.ErrorIs(t, err, membership.ErrLastManagerProtected)

	// A moderator cannot remove a manager: removal mirrors assignability.
	err = f.manager.RemoveMember(ctx, user("u2"), "m-u1")
	assert.ErrorIs(t, err, membership.ErrAuthorizationDenied)

	err = f.manager.RemoveMember(ctx, user("u1"), "ghost")
	assert.ErrorIs(t, err, membership.ErrNotFound)
}

func TestManager_LeaveProject(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleMember)

	// Any member may remove themself without management rights.
	require.NoError(t, f.manager.LeaveProject(ctx, "p1", "u2"))
	_, err := f.store.GetByProjectAndUser(ctx, "p1", "u2")
	assert.ErrorIs(t, err, membership.ErrNotFound)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventMemberRemoved, events[0].Type)
	assert.Equal(t, "u2", events[0].ActorID)
	assert.Equal(t, "u2", events[0].TargetUserID)
}

func TestManager_LeaveProject_LastManagerProtected(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)

	err := f.manager.LeaveProject(ctx, "p1", "u1")
	assert.ErrorIs(t, err, membership.ErrLastManagerProtected)

	// With a second manager in place the first may leave.
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleManager)
	assert.NoError(t, f.manager.LeaveProject(ctx, "p1", "u1"))
}

func TestManager_LeaveProject_NotAMember(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	err := f.manager.LeaveProject(context.Background(), "p1", "ghost")
	assert.ErrorIs(t, err, membership.ErrNotFound)
}

func TestManager_ListMembers(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	ctx := context.Background()
	seedMembership(t, f.store, "m-u1", "p1", "u1", roles.RoleManager)
	seedMembership(t, f.store, "m-u2", "p1", "u2", roles.RoleViewer)

	list, err := f.manager.ListMembers(ctx, user("u2"), "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.manager.ListMembers(ctx, user("stranger"), "p1")
	assert.ErrorIs(t, err, membership.ErrAuthorizationDenied)

	// Reads emit no audit events.
	assert.Empty(t, f.events.Events())
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, audit.Event) error {
	return errors.New("sink unreachable")
}

func TestManager_AuditFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()

	store := membership.NewMemoryStore()
	svc := authz.NewService(membership.NewRoleSource(store))
	manager := membership.NewManager(store, svc, membership.WithEmitter(failingEmitter{}))
	ctx := context.Background()
	seedMembership(t, store, "m-u1", "p1", "u1", roles.RoleManager)

	created, err := manager.AddMember(ctx, user("u1"), "p1", "u2", roles.RoleMember)
	require.NoError(t, err, "emitter failure must not surface")

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UserID)
}
