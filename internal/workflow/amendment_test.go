package workflow

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAmendment(t *testing.T) {
	order := validOrder(model.StateRejected)

	req, err := RequestAmendment(order, buyer, "supplier changed pricing", false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, req.OrderID)
	assert.Equal(t, buyer.Email, req.RequestedByEmail)
	assert.Equal(t, model.EditRequestPending, req.State)
}

func TestRequestAmendmentGuards(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		reason     string
		hasPending bool
		wantCode   GuardCode
	}{
		{"order not rejected", model.StatePendingOperations, "reason", false, GuardNotRejected},
		{"paid order", model.StatePaid, "reason", false, GuardNotRejected},
		{"empty reason", model.StateRejected, "  ", false, GuardMissingReason},
		{"duplicate pending request", model.StateRejected, "reason", true, GuardDuplicateRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequestAmendment(validOrder(tt.state), buyer, tt.reason, tt.hasPending)
			g, ok := AsGuard(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, g.Code)
		})
	}
}

func TestResolveAmendmentApprove(t *testing.T) {
	order := validOrder(model.StateRejected)
	req := &model.EditRequest{OrderID: order.ID, State: model.EditRequestPending}

	decision, err := ResolveAmendment(order, req, operations, true, "ok to edit")
	require.NoError(t, err)
	assert.Equal(t, model.EditRequestApproved, decision.RequestState)
	assert.True(t, decision.AmendmentAllowed)
	assert.Equal(t, model.ActionApproveAmendment, decision.AuditAction)
	assert.Equal(t, RoleBuyer, decision.NotifyRole)
}

func TestResolveAmendmentReject(t *testing.T) {
	order := validOrder(model.StateRejected)
	req := &model.EditRequest{OrderID: order.ID, State: model.EditRequestPending}

	decision, err := ResolveAmendment(order, req, management, false, "not justified")
	require.NoError(t, err)
	assert.Equal(t, model.EditRequestRejected, decision.RequestState)
	assert.False(t, decision.AmendmentAllowed)
	assert.Equal(t, model.ActionRejectAmendment, decision.AuditAction)
}

func TestResolveAmendmentGuards(t *testing.T) {
	order := validOrder(model.StateRejected)

	// Buyer cannot unlock their own order
	req := &model.EditRequest{OrderID: order.ID, State: model.EditRequestPending}
	_, err := ResolveAmendment(order, req, buyer, true, "")
	g, ok := AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardWrongRole, g.Code)

	// Already resolved requests stay resolved
	resolved := &model.EditRequest{OrderID: order.ID, State: model.EditRequestApproved}
	_, err = ResolveAmendment(order, resolved, operations, true, "")
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardAlreadyResolved, g.Code)

	// Parent order left the rejected state in the meantime
	moved := validOrder(model.StatePendingOperations)
	req = &model.EditRequest{OrderID: moved.ID, State: model.EditRequestPending}
	_, err = ResolveAmendment(moved, req, operations, true, "")
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardNotRejected, g.Code)
}

func TestCanResolveAmendment(t *testing.T) {
	assert.False(t, CanResolveAmendment(RoleBuyer))
	assert.True(t, CanResolveAmendment(RoleOperations))
	assert.True(t, CanResolveAmendment(RoleManagement))
	assert.True(t, CanResolveAmendment(RoleFinance))
	assert.True(t, CanResolveAmendment(RoleAdmin))
}
