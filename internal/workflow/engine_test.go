package workflow

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder(state string) *model.PurchaseOrder {
	supplierID := uuid.New()
	order := &model.PurchaseOrder{
		ID:           uuid.New(),
		OrderCode:    "PO-20260901-00001",
		State:        state,
		Currency:     model.CurrencyLocal,
		SupplierID:   &supplierID,
		CostCenter:   "CC-PROCUREMENT",
		PaymentTerms: "NET30",
		RequestedBy:  "buyer@example.com",
		Items: []model.LineItem{
			{Name: "Laptops", Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		},
	}
	order.RecalculateTotals()
	return order
}

func signed(order *model.PurchaseOrder, stages ...Stage) *model.PurchaseOrder {
	for _, stage := range stages {
		order.Signatures = append(order.Signatures, model.StageSignature{
			OrderID:       order.ID,
			Stage:         string(stage),
			SignatureRef:  "sig-" + string(stage),
			SignedByEmail: string(stage) + "@example.com",
		})
	}
	return order
}

var (
	buyer      = Actor{Email: "buyer@example.com", Role: RoleBuyer}
	operations = Actor{Email: "ops@example.com", Role: RoleOperations}
	management = Actor{Email: "mgmt@example.com", Role: RoleManagement}
	finance    = Actor{Email: "fin@example.com", Role: RoleFinance}
	admin      = Actor{Email: "admin@example.com", Role: RoleAdmin}
)

func TestSignAdvancesChainInOrder(t *testing.T) {
	tests := []struct {
		name      string
		state     string
		actor     Actor
		wantState string
		wantStage Stage
	}{
		{"buyer signs draft", model.StatePendingBuyerSignature, buyer, model.StatePendingOperations, StageBuyer},
		{"operations signs", model.StatePendingOperations, operations, model.StateOperationsApproved, StageOperations},
		{"management signs", model.StateOperationsApproved, management, model.StateManagementApproved, StageManagement},
		{"admin can sign any stage", model.StatePendingOperations, admin, model.StateOperationsApproved, StageOperations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder(tt.state)
			decision, err := Sign(order, tt.actor, "sig-ref")
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, decision.NextState)
			assert.Equal(t, tt.wantStage, decision.SignStage)
			assert.Equal(t, "sig-ref", decision.SignatureRef)
			assert.Equal(t, model.ActionSignStage, decision.AuditAction)
			assert.True(t, decision.Notify)
		})
	}
}

func TestSignNotifiesNextRole(t *testing.T) {
	order := validOrder(model.StatePendingBuyerSignature)
	decision, err := Sign(order, buyer, "sig-ref")
	require.NoError(t, err)
	assert.Equal(t, RoleOperations, decision.NotifyRole)

	order = validOrder(model.StateOperationsApproved)
	decision, err = Sign(order, management, "sig-ref")
	require.NoError(t, err)
	assert.Equal(t, RoleFinance, decision.NotifyRole)
}

func TestSignGuards(t *testing.T) {
	tests := []struct {
		name     string
		order    *model.PurchaseOrder
		actor    Actor
		sigRef   string
		wantCode GuardCode
	}{
		{"wrong role at buyer stage", validOrder(model.StatePendingBuyerSignature), operations, "sig", GuardWrongRole},
		{"wrong role at operations stage", validOrder(model.StatePendingOperations), buyer, "sig", GuardWrongRole},
		{"management cannot sign ahead of operations", validOrder(model.StatePendingOperations), management, "sig", GuardWrongRole},
		{"paid order is locked", validOrder(model.StatePaid), finance, "sig", GuardOrderLocked},
		{"rejected order cannot be signed", validOrder(model.StateRejected), operations, "sig", GuardOrderLocked},
		{"finance stage needs payment not signature", validOrder(model.StateManagementApproved), finance, "sig", GuardWrongStage},
		{"missing registered signature", validOrder(model.StatePendingOperations), operations, "", GuardMissingSignature},
		{"double sign is idempotent", signed(validOrder(model.StatePendingOperations), StageOperations), operations, "sig", GuardAlreadySigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(tt.order, tt.actor, tt.sigRef)
			require.Error(t, err)
			g, ok := AsGuard(err)
			require.True(t, ok, "expected a guard violation, got %v", err)
			assert.Equal(t, tt.wantCode, g.Code)
		})
	}
}

func TestRejectRequiresPendingStageRoleAndReason(t *testing.T) {
	order := validOrder(model.StatePendingOperations)

	_, err := Reject(order, buyer, "not my call")
	g, ok := AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardWrongRole, g.Code)

	_, err = Reject(order, operations, "   ")
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardMissingReason, g.Code)

	decision, err := Reject(order, operations, "wrong vendor selected")
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, decision.NextState)
	assert.Equal(t, "wrong vendor selected", decision.RejectionReason)
	assert.Equal(t, RoleBuyer, decision.NotifyRole)
}

func TestRejectTerminalAndRejectedStates(t *testing.T) {
	_, err := Reject(validOrder(model.StatePaid), finance, "too late")
	g, ok := AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardOrderLocked, g.Code)

	_, err = Reject(validOrder(model.StateRejected), operations, "again")
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardOrderLocked, g.Code)
}

func TestRegisterPayment(t *testing.T) {
	order := validOrder(model.StateManagementApproved)

	decision, err := RegisterPayment(order, finance, "INV-2026-042")
	require.NoError(t, err)
	assert.Equal(t, model.StatePaid, decision.NextState)
	assert.Equal(t, "INV-2026-042", decision.InvoiceRef)
	assert.Equal(t, RoleBuyer, decision.NotifyRole)
	assert.True(t, decision.Notify)
}

func TestRegisterPaymentGuards(t *testing.T) {
	_, err := RegisterPayment(validOrder(model.StateOperationsApproved), finance, "INV-1")
	g, ok := AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardWrongStage, g.Code)

	_, err = RegisterPayment(validOrder(model.StateManagementApproved), management, "INV-1")
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardWrongRole, g.Code)

	_, err = RegisterPayment(validOrder(model.StateManagementApproved), finance, "  ")
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardMissingInvoiceRef, g.Code)
}

func TestResubmitRequiresApprovedAmendment(t *testing.T) {
	order := validOrder(model.StateRejected)

	_, err := Resubmit(order, buyer)
	g, ok := AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardAmendmentRequired, g.Code)

	order.AmendmentAllowed = true
	decision, err := Resubmit(order, buyer)
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingOperations, decision.NextState)
	assert.True(t, decision.ConsumeAmendment)
	assert.True(t, decision.ClearRejectionReason)
	assert.Equal(t, RoleOperations, decision.NotifyRole)
}

func TestResubmitClearsDownstreamSignaturesOnly(t *testing.T) {
	order := signed(validOrder(model.StateRejected), StageBuyer, StageOperations)
	order.AmendmentAllowed = true

	decision, err := Resubmit(order, buyer)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Stage{StageOperations, StageManagement}, decision.ClearStages)
	assert.NotContains(t, decision.ClearStages, StageBuyer)
}

func TestResubmitGuards(t *testing.T) {
	_, err := Resubmit(validOrder(model.StatePendingOperations), buyer)
	g, ok := AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardNotRejected, g.Code)

	rejected := validOrder(model.StateRejected)
	rejected.AmendmentAllowed = true
	_, err = Resubmit(rejected, operations)
	g, ok = AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, GuardWrongRole, g.Code)

	invalid := validOrder(model.StateRejected)
	invalid.AmendmentAllowed = true
	invalid.Items = nil
	_, err = Resubmit(invalid, buyer)
	var v *ValidationError
	require.ErrorAs(t, err, &v)
}

// Full round trip: approval, rejection at operations, amendment, resubmission.
func TestRejectionAmendmentResubmissionCycle(t *testing.T) {
	order := validOrder(model.StatePendingBuyerSignature)

	decision, err := Sign(order, buyer, "sig-buyer")
	require.NoError(t, err)
	order.State = decision.NextState
	order.Signatures = append(order.Signatures, model.StageSignature{Stage: string(decision.SignStage), SignatureRef: decision.SignatureRef})

	decision, err = Reject(order, operations, "wrong vendor")
	require.NoError(t, err)
	order.State = decision.NextState
	order.RejectionReason = decision.RejectionReason
	assert.Equal(t, model.StateRejected, order.State)

	req, err := RequestAmendment(order, buyer, "need to switch supplier", false)
	require.NoError(t, err)
	assert.Equal(t, model.EditRequestPending, req.State)

	resolution, err := ResolveAmendment(order, req, operations, true, "go ahead")
	require.NoError(t, err)
	require.True(t, resolution.AmendmentAllowed)
	order.AmendmentAllowed = true
	req.State = resolution.RequestState

	assert.True(t, order.Editable())

	decision, err = Resubmit(order, buyer)
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingOperations, decision.NextState)
	assert.True(t, decision.ConsumeAmendment)

	// Apply the decision: the buyer's signature survives, the flag is spent
	order.State = decision.NextState
	order.AmendmentAllowed = false
	order.RejectionReason = ""
	assert.True(t, order.HasSignature(string(StageBuyer)))
	assert.False(t, order.Editable())
}

func TestPendingStage(t *testing.T) {
	stage, ok := PendingStage(model.StatePendingBuyerSignature)
	require.True(t, ok)
	assert.Equal(t, StageBuyer, stage)

	stage, ok = PendingStage(model.StateManagementApproved)
	require.True(t, ok)
	assert.Equal(t, StageFinance, stage)

	_, ok = PendingStage(model.StatePaid)
	assert.False(t, ok)
	_, ok = PendingStage(model.StateRejected)
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.StatePaid))
	assert.False(t, IsTerminal(model.StateRejected))
	assert.False(t, IsTerminal(model.StatePendingOperations))
}
