package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/projectauth/pkg/authz"
	"github.com/dmitrymomot/projectauth/pkg/ratelimit"
	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// DefaultMaxBatchSize caps bulk inputs unless overridden.
const DefaultMaxBatchSize = 100

// AddItem is one entry of a bulk add request.
type AddItem struct {
	UserID string            `json:"user_id"`
	Role   roles.ProjectRole `json:"role"`
}

// UpdateItem is one entry of a bulk role update request. Items may span
// projects; each carries its own expected version.
type UpdateItem struct {
	MembershipID    string            `json:"membership_id"`
	NewRole         roles.ProjectRole `json:"new_role"`
	ExpectedVersion int64             `json:"expected_version"`
}

// Failure pairs a failed input with its machine-readable reason.
type Failure[I any] struct {
	Input  I      `json:"input"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result is the itemized report of a bulk operation. Succeeded and Failed
// partition the input in processing order; it is only ever returned after
// every item has been attempted.
type Result[I, O any] struct {
	Succeeded      []O          `json:"succeeded"`
	Failed         []Failure[I] `json:"failed"`
	TotalRequested int          `json:"total_requested"`
	TotalSucceeded int          `json:"total_succeeded"`
	TotalFailed    int          `json:"total_failed"`
}

// Coordinator drives Manager over a batch of items. Each item is attempted
// independently: a failure is recorded and processing continues, and
// nothing already committed is rolled back. Only an oversized batch, an
// exhausted rate budget or an unavailable store fails the call as a whole.
type Coordinator struct {
	manager  *Manager
	maxBatch int
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxBatchSize overrides the batch cap, default DefaultMaxBatchSize.
func WithMaxBatchSize(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxBatch = n
		}
	}
}

// NewCoordinator creates a bulk coordinator over the given manager.
func NewCoordinator(manager *Manager, opts ...CoordinatorOption) *Coordinator {
	if manager == nil {
		panic("membership: coordinator manager cannot be nil")
	}

	c := &Coordinator{
		manager:  manager,
		maxBatch: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddMembers adds the items to the project in input order. The bulk-add
// budget is consumed once, before any item is attempted.
func (c *Coordinator) AddMembers(ctx context.Context, actor authz.Principal, projectID string, items []AddItem) (Result[AddItem, Membership], error) {
	if err := c.checkBatch(len(items)); err != nil {
		return Result[AddItem, Membership]{}, err
	}
	if err := c.manager.admit(ctx, actor.ID, ratelimit.ClassBulkAdd); err != nil {
		return Result[AddItem, Membership]{}, err
	}

	result := Result[AddItem, Membership]{TotalRequested: len(items)}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return Result[AddItem, Membership]{}, err
		}

		created, err := c.manager.addMember(ctx, actor, projectID, item.UserID, item.Role)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return Result[AddItem, Membership]{}, err
			}
			result.Failed = append(result.Failed, Failure[AddItem]{Input: item, Reason: FailureReason(err), Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, created)
	}

	result.TotalSucceeded = len(result.Succeeded)
	result.TotalFailed = len(result.Failed)
	return result, nil
}

// UpdateRoles applies the role updates in input order under a single
// role-update budget slot.
func (c *Coordinator) UpdateRoles(ctx context.Context, actor authz.Principal, items []UpdateItem) (Result[UpdateItem, Membership], error) {
	if err := c.checkBatch(len(items)); err != nil {
		return Result[UpdateItem, Membership]{}, err
	}
	if err := c.manager.admit(ctx, actor.ID, ratelimit.ClassRoleUpdate); err != nil {
		return Result[UpdateItem, Membership]{}, err
	}

	result := Result[UpdateItem, Membership]{TotalRequested: len(items)}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return Result[UpdateItem, Membership]{}, err
		}

		updated, err := c.manager.updateRole(ctx, actor, item.MembershipID, item.NewRole, item.ExpectedVersion)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return Result[UpdateItem, Membership]{}, err
			}
			result.Failed = append(result.Failed, Failure[UpdateItem]{Input: item, Reason: FailureReason(err), Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, updated)
	}

	result.TotalSucceeded = len(result.Succeeded)
	result.TotalFailed = len(result.Failed)
	return result, nil
}

func (c *Coordinator) checkBatch(n int) error {
	if n > c.maxBatch {
		return fmt.Errorf("%w: %d items, max %d", ErrBatchTooLarge, n, c.maxBatch)
	}
	return nil
}
