package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// EventType identifies the kind of membership change an event records.
type EventType string

const (
	EventMemberAdded   EventType = "member_added"
	EventRoleChanged   EventType = "role_changed"
	EventMemberRemoved EventType = "member_removed"
)

// Event is a single membership change record. BeforeRole and AfterRole are
// nil at the boundaries of a membership's lifetime: an add has no before, a
// removal has no after.
type Event struct {
	ID           string             `json:"id"`
	Type         EventType          `json:"type"`
	ActorID      string             `json:"actor_id"`
	ProjectID    string             `json:"project_id"`
	TargetUserID string             `json:"target_user_id"`
	BeforeRole   *roles.ProjectRole `json:"before_role,omitempty"`
	AfterRole    *roles.ProjectRole `json:"after_role,omitempty"`
	AdminBypass  bool               `json:"admin_bypass,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Validate checks that the event carries the fields every consumer relies on.
func (e *Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}
	if e.ActorID == "" {
		return fmt.Errorf("%w: actor_id is required", ErrInvalidEvent)
	}
	if e.ProjectID == "" {
		return fmt.Errorf("%w: project_id is required", ErrInvalidEvent)
	}
	return nil
}

// Emitter receives membership change events. Implementations own delivery
// and failure handling; the engine treats Emit as fire-and-forget and only
// logs returned errors.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
