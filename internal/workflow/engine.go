package workflow

import (
	"strings"

	"backend/internal/model"
)

// Decision is the engine's verdict on a legal transition. It carries every
// mutation the orchestrator must persist atomically, plus the role to notify
// afterwards. The engine itself performs no I/O.
type Decision struct {
	NextState            string
	SignStage            Stage    // non-empty when a stage signature must be recorded
	SignatureRef         string   // reference into the signature store, set with SignStage
	ClearStages          []Stage  // stage signatures to remove (resubmission)
	RejectionReason      string   // set on Reject
	ClearRejectionReason bool     // set when leaving Rejected
	ConsumeAmendment     bool     // reset amendment_allowed to false
	InvoiceRef           string   // set on RegisterPayment
	AuditAction          string
	AuditNote            string
	NotifyRole           Role
	Notify               bool
}

// Sign records approval for the stage currently pending on the order.
// signatureRef is the actor's stored signature image reference, resolved by
// the orchestrator; an empty ref means the actor never registered one.
func Sign(order *model.PurchaseOrder, actor Actor, signatureRef string) (*Decision, error) {
	stage, ok := PendingStage(order.State)
	if !ok {
		return nil, guard(GuardOrderLocked, "order %s is %s and cannot be signed", order.OrderCode, order.State)
	}
	if stage == StageFinance {
		return nil, guard(GuardWrongStage, "order %s awaits payment registration, not a signature", order.OrderCode)
	}
	if !CanActOnStage(actor.Role, stage) {
		return nil, guard(GuardWrongRole, "role %s cannot sign the %s stage", actor.Role, stage)
	}
	if order.HasSignature(string(stage)) {
		return nil, guard(GuardAlreadySigned, "stage %s of order %s is already signed", stage, order.OrderCode)
	}
	if signatureRef == "" {
		return nil, guard(GuardMissingSignature, "%s has no registered signature", actor.Email)
	}

	next := stateAfterSign[stage]
	d := &Decision{
		NextState:    next,
		SignStage:    stage,
		SignatureRef: signatureRef,
		AuditAction:  model.ActionSignStage,
		AuditNote:    "signed " + string(stage) + " stage",
	}
	if target, ok := NotifyTarget(next); ok {
		d.NotifyRole = target
		d.Notify = true
	}
	return d, nil
}

// Reject moves the order to Rejected from any state with a pending stage.
// The actor must match the pending stage and supply a non-empty reason.
func Reject(order *model.PurchaseOrder, actor Actor, reason string) (*Decision, error) {
	stage, ok := PendingStage(order.State)
	if !ok {
		if order.State == model.StateRejected {
			return nil, guard(GuardOrderLocked, "order %s is already rejected", order.OrderCode)
		}
		return nil, guard(GuardOrderLocked, "order %s is %s and cannot be rejected", order.OrderCode, order.State)
	}
	if !CanActOnStage(actor.Role, stage) {
		return nil, guard(GuardWrongRole, "role %s cannot reject at the %s stage", actor.Role, stage)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, guard(GuardMissingReason, "a rejection reason is required")
	}

	d := &Decision{
		NextState:       model.StateRejected,
		RejectionReason: reason,
		AuditAction:     model.ActionRejectOrder,
		AuditNote:       reason,
	}
	if target, ok := NotifyTarget(model.StateRejected); ok {
		d.NotifyRole = target
		d.Notify = true
	}
	return d, nil
}

// RegisterPayment completes the chain: finance records the invoice/receipt
// reference and the order becomes Paid.
func RegisterPayment(order *model.PurchaseOrder, actor Actor, invoiceRef string) (*Decision, error) {
	if order.State != model.StateManagementApproved {
		return nil, guard(GuardWrongStage, "order %s is %s; payment requires management approval first", order.OrderCode, order.State)
	}
	if !CanActOnStage(actor.Role, StageFinance) {
		return nil, guard(GuardWrongRole, "role %s cannot register payments", actor.Role)
	}
	if strings.TrimSpace(invoiceRef) == "" {
		return nil, guard(GuardMissingInvoiceRef, "an invoice or receipt reference is required")
	}

	d := &Decision{
		NextState:   model.StatePaid,
		InvoiceRef:  invoiceRef,
		AuditAction: model.ActionRegisterPayment,
		AuditNote:   "payment registered against " + invoiceRef,
	}
	if target, ok := NotifyTarget(model.StatePaid); ok {
		d.NotifyRole = target
		d.Notify = true
	}
	return d, nil
}

// Resubmit returns a rejected order to the approval chain. It requires an
// unconsumed approved amendment, re-validates the full submission contract,
// consumes the amendment flag, and clears every stage signature downstream
// of the buyer's. The buyer's original sign-off stays valid because the
// order re-enters at PendingOperations.
func Resubmit(order *model.PurchaseOrder, actor Actor) (*Decision, error) {
	if order.State != model.StateRejected {
		return nil, guard(GuardNotRejected, "order %s is %s; only rejected orders can be resubmitted", order.OrderCode, order.State)
	}
	if !CanResubmit(actor.Role) {
		return nil, guard(GuardWrongRole, "role %s cannot resubmit orders", actor.Role)
	}
	if !order.AmendmentAllowed {
		return nil, guard(GuardAmendmentRequired, "order %s has no approved amendment outstanding", order.OrderCode)
	}
	if err := ValidateSubmission(order); err != nil {
		return nil, err
	}

	d := &Decision{
		NextState:            model.StatePendingOperations,
		ClearStages:          []Stage{StageOperations, StageManagement},
		ClearRejectionReason: true,
		ConsumeAmendment:     true,
		AuditAction:          model.ActionResubmitOrder,
		AuditNote:            "order resubmitted after amendment",
	}
	if target, ok := NotifyTarget(model.StatePendingOperations); ok {
		d.NotifyRole = target
		d.Notify = true
	}
	return d, nil
}
