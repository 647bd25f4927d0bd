package roles

// SystemRole is a deployment-wide role carried by a principal, independent
// of any project membership.
type SystemRole string

const (
	SystemAdmin SystemRole = "system_admin"
	SystemUser  SystemRole = "user"
)

// ProjectRole is a role scoped to a single project membership.
type ProjectRole string

const (
	RoleManager   ProjectRole = "project_manager"
	RoleModerator ProjectRole = "project_moderator"
	RoleMember    ProjectRole = "member"
	RoleViewer    ProjectRole = "viewer"
)

// Action is a project-scoped operation subject to authorization.
type Action string

const (
	ActionView           Action = "view"
	ActionEdit           Action = "edit"
	ActionManageMembers  Action = "manage_members"
	ActionManageSettings Action = "manage_settings"
	ActionDeleteProject  Action = "delete_project"
)

// rank values are spaced to leave room for future roles without renumbering.
var rank = map[ProjectRole]int{
	RoleViewer:    10,
	RoleMember:    20,
	RoleModerator: 30,
	RoleManager:   40,
}

// minRole maps each action to the minimum project role required to perform it.
var minRole = map[Action]ProjectRole{
	ActionView:           RoleViewer,
	ActionEdit:           RoleMember,
	ActionManageMembers:  RoleModerator,
	ActionManageSettings: RoleManager,
	ActionDeleteProject:  RoleManager,
}

// Valid reports whether r is one of the defined project roles.
func (r ProjectRole) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	_, ok := minRole[a]
	return ok
}

// Rank returns the capability rank of a role; higher means more capable.
// Unknown roles rank below every defined role.
func Rank(r ProjectRole) int {
	return rank[r]
}

// CanAssign reports whether a holder of requester may grant target to
// someone else. A role may grant any role at or below its own rank, so a
// manager may grant manager while a moderator may not.
func CanAssign(requester, target ProjectRole) bool {
	if !requester.Valid() || !target.Valid() {
		return false
	}
	return rank[target] <= rank[requester]
}

// MinRoleFor returns the minimum project role required for an action.
// The second return value is false for unknown actions.
func MinRoleFor(a Action) (ProjectRole, bool) {
	r, ok := minRole[a]
	return r, ok
}

// IsManagementAction reports whether an action mutates project membership or
// configuration, i.e. requires moderator rank or above.
func IsManagementAction(a Action) bool {
	r, ok := minRole[a]
	return ok && rank[r] >= rank[RoleModerator]
}

// All returns the defined project roles ordered by descending capability.
func All() []ProjectRole {
	return []ProjectRole{RoleManager, RoleModerator, RoleMember, RoleViewer}
}
