package workflow

import (
	"strings"

	"backend/internal/model"
)

// RequestAmendment validates a new edit request against the parent order.
// Only rejected orders can be amended, the reason is mandatory, and at most
// one Pending request may gate an order at a time.
func RequestAmendment(order *model.PurchaseOrder, actor Actor, reason string, hasPending bool) (*model.EditRequest, error) {
	if order.State != model.StateRejected {
		return nil, guard(GuardNotRejected, "order %s is %s; amendments apply to rejected orders only", order.OrderCode, order.State)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, guard(GuardMissingReason, "an amendment reason is required")
	}
	if hasPending {
		return nil, guard(GuardDuplicateRequest, "order %s already has a pending edit request", order.OrderCode)
	}

	return &model.EditRequest{
		OrderID:          order.ID,
		Reason:           reason,
		RequestedByEmail: actor.Email,
		State:            model.EditRequestPending,
	}, nil
}

// AmendmentDecision carries the resolution of an edit request
type AmendmentDecision struct {
	RequestState     string
	AmendmentAllowed bool // set the parent flag when approved
	AuditAction      string
	AuditNote        string
	NotifyRole       Role
}

// ResolveAmendment approves or rejects a pending edit request. Approval may
// only come from an approval-stage role other than buyer and flips the
// parent order's amendment_allowed flag. Rejection closes the request
// without touching the parent.
func ResolveAmendment(order *model.PurchaseOrder, req *model.EditRequest, actor Actor, approve bool, note string) (*AmendmentDecision, error) {
	if req.State != model.EditRequestPending {
		return nil, guard(GuardAlreadyResolved, "edit request is already %s", req.State)
	}
	if order.State != model.StateRejected {
		return nil, guard(GuardNotRejected, "order %s is no longer rejected", order.OrderCode)
	}
	if !CanResolveAmendment(actor.Role) {
		return nil, guard(GuardWrongRole, "role %s cannot resolve edit requests", actor.Role)
	}

	if approve {
		return &AmendmentDecision{
			RequestState:     model.EditRequestApproved,
			AmendmentAllowed: true,
			AuditAction:      model.ActionApproveAmendment,
			AuditNote:        note,
			NotifyRole:       RoleBuyer,
		}, nil
	}
	return &AmendmentDecision{
		RequestState: model.EditRequestRejected,
		AuditAction:  model.ActionRejectAmendment,
		AuditNote:    note,
		NotifyRole:   RoleBuyer,
	}, nil
}
