// Package authz provides the stateless authorization decision service for
// project-scoped actions. Given a principal, a project and an action it
// returns an allow/deny decision derived from the principal's system roles
// and its project membership role.
//
// The service performs reads only: it never mutates state and never emits
// audit events, because an authorization check is not a membership change.
//
// A denied decision and an undeterminable decision are distinct outcomes. A
// storage failure surfaces as an error wrapping ErrUnavailable so callers
// cannot mistake "cannot determine permission" for "no permission".
//
// # Usage
//
//	svc := authz.NewService(source)
//	decision, err := svc.Authorize(ctx, principal, projectID, roles.ActionEdit)
//	if err != nil {
//	    // storage unavailable, retry or fail the request
//	}
//	if !decision.Allowed {
//	    // decision.Reason explains the denial
//	}
package authz
