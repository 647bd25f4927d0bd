package membership

import (
	"time"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// Membership binds a user to a project with a role. Version is the
// optimistic-concurrency token: it starts at 1 and increments on every
// successful mutation, and all writes are conditioned on it.
type Membership struct {
	ID        string            `json:"id" db:"id"`
	ProjectID string            `json:"project_id" db:"project_id"`
	UserID    string            `json:"user_id" db:"user_id"`
	Role      roles.ProjectRole `json:"role" db:"role"`
	Version   int64             `json:"version" db:"version"`
	AddedBy   string            `json:"added_by" db:"added_by"`
	JoinedAt  time.Time         `json:"joined_at" db:"joined_at"`
}
