// Package roles defines the static role and action catalog for
// project-scoped authorization. It is a pure lookup table with no state and
// no error paths: roles are totally ordered by capability, actions map to
// the minimum role required to perform them, and assignment rules are
// derived from the ordering.
//
// # Role ordering
//
// Project roles are ordered by descending capability:
//
//	RoleManager > RoleModerator > RoleMember > RoleViewer
//
// The ordering drives both authorization checks (does the actor's role meet
// the action's minimum role?) and assignment checks (an actor may only grant
// roles at or below its own rank).
//
// # Usage
//
//	if !roles.CanAssign(actorRole, roles.RoleModerator) {
//	    // actor may not grant moderator
//	}
//
//	min, ok := roles.MinRoleFor(roles.ActionManageMembers)
//	allowed := ok && roles.Rank(actorRole) >= roles.Rank(min)
package roles
