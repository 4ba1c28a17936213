package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderStore keeps a single order in memory and enforces the same
// compare-and-swap contract as the real repository.
type fakeOrderStore struct {
	mu       sync.Mutex
	order    *model.PurchaseOrder
	commits  int
	attempts int

	// failNextCommits forces ErrConflict on the next n commit attempts
	failNextCommits int
}

func (s *fakeOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.ID != id {
		return nil, workflow.ErrNotFound
	}
	return copyOrder(s.order), nil
}

func (s *fakeOrderStore) CommitTransition(ctx context.Context, id uuid.UUID, expectedState string, upd repository.TransitionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++

	if s.failNextCommits > 0 {
		s.failNextCommits--
		return workflow.ErrConflict
	}
	if s.order == nil || s.order.ID != id {
		return workflow.ErrNotFound
	}
	if s.order.State != expectedState {
		return workflow.ErrConflict
	}

	s.order.State = upd.NewState
	if upd.Signature != nil {
		sig := *upd.Signature
		sig.OrderID = id
		s.order.Signatures = append(s.order.Signatures, sig)
	}
	for _, stage := range upd.ClearStages {
		kept := s.order.Signatures[:0]
		for _, sig := range s.order.Signatures {
			if sig.Stage != stage {
				kept = append(kept, sig)
			}
		}
		s.order.Signatures = kept
	}
	if upd.RejectionReason != "" {
		s.order.RejectionReason = upd.RejectionReason
	}
	if upd.ClearRejectionReason {
		s.order.RejectionReason = ""
	}
	if upd.ConsumeAmendment {
		s.order.AmendmentAllowed = false
	}
	if upd.InvoiceRef != "" {
		s.order.InvoiceRef = upd.InvoiceRef
	}
	audit := upd.Audit
	audit.OrderID = id
	s.order.AuditTrail = append(s.order.AuditTrail, audit)
	s.commits++
	return nil
}

func copyOrder(o *model.PurchaseOrder) *model.PurchaseOrder {
	dup := *o
	dup.Items = append([]model.LineItem(nil), o.Items...)
	dup.Signatures = append([]model.StageSignature(nil), o.Signatures...)
	dup.AuditTrail = append([]model.OrderAuditEntry(nil), o.AuditTrail...)
	return &dup
}

type fakeSignatureStore struct {
	refs map[string]string
	err  error
}

func (s *fakeSignatureStore) GetByEmail(ctx context.Context, email string) (*model.Signature, error) {
	if s.err != nil {
		return nil, s.err
	}
	ref, ok := s.refs[email]
	if !ok {
		return nil, nil
	}
	return &model.Signature{Email: email, ImageRef: ref}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []workflow.Role
}

func (n *fakeNotifier) Notify(ctx context.Context, role workflow.Role, orderID uuid.UUID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, role)
}

type fakeMirror struct {
	mu      sync.Mutex
	entries []*model.AuditLog
	err     error
}

func (m *fakeMirror) Log(ctx context.Context, entry *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func testOrder(state string) *model.PurchaseOrder {
	supplierID := uuid.New()
	order := &model.PurchaseOrder{
		ID:           uuid.New(),
		OrderCode:    "PO-20260901-00001",
		State:        state,
		Currency:     model.CurrencyLocal,
		SupplierID:   &supplierID,
		CostCenter:   "CC-IT",
		PaymentTerms: "NET30",
		RequestedBy:  "buyer@example.com",
		Items: []model.LineItem{
			{ID: uuid.New(), Name: "Monitors", Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		},
	}
	order.RecalculateTotals()
	return order
}

func newTestWorkflowService(order *model.PurchaseOrder) (WorkflowService, *fakeOrderStore, *fakeSignatureStore, *fakeNotifier, *fakeMirror) {
	store := &fakeOrderStore{order: order}
	sigs := &fakeSignatureStore{refs: map[string]string{
		"buyer@example.com": "sig-buyer",
		"ops@example.com":   "sig-ops",
		"mgmt@example.com":  "sig-mgmt",
	}}
	notifier := &fakeNotifier{}
	mirror := &fakeMirror{}
	return NewWorkflowService(store, sigs, notifier, mirror), store, sigs, notifier, mirror
}

func TestSignStageAdvancesOrder(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, _, notifier, mirror := newTestWorkflowService(order)

	resp, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	require.NoError(t, err)

	assert.Equal(t, model.StatePendingOperations, resp.State)
	assert.Equal(t, 1, store.commits)
	require.Contains(t, resp.Signatures, "buyer")
	assert.Equal(t, "sig-buyer", resp.Signatures["buyer"].SignatureRef)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, workflow.RoleOperations, notifier.calls[0])
	require.Len(t, mirror.entries, 1)
	assert.Equal(t, model.ActionSignStage, mirror.entries[0].Action)
}

func TestSignStageGuardWritesNothing(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, _, notifier, _ := newTestWorkflowService(order)

	_, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "ops@example.com", Role: workflow.RoleOperations})
	g, ok := workflow.AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, workflow.GuardWrongRole, g.Code)
	assert.Zero(t, store.commits)
	assert.Empty(t, notifier.calls)
}

func TestSignStageWithoutRegisteredSignature(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, sigs, _, _ := newTestWorkflowService(order)
	delete(sigs.refs, "buyer@example.com")

	_, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	g, ok := workflow.AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, workflow.GuardMissingSignature, g.Code)
	assert.Zero(t, store.commits)
}

func TestSignStageSignatureStoreFailureBecomesGuard(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, sigs, _, _ := newTestWorkflowService(order)
	sigs.err = errors.New("connection refused")

	_, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	g, ok := workflow.AsGuard(err)
	require.True(t, ok)
	assert.Equal(t, workflow.GuardMissingSignature, g.Code)
	assert.Zero(t, store.commits)
}

func TestTransitionRetriesOnceAfterLostSwap(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, _, _, _ := newTestWorkflowService(order)
	store.failNextCommits = 1

	resp, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingOperations, resp.State)
	assert.Equal(t, 2, store.attempts)
	assert.Equal(t, 1, store.commits)
}

func TestTransitionGivesUpAfterSecondConflict(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, _, _, _ := newTestWorkflowService(order)
	store.failNextCommits = 2

	_, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	require.ErrorIs(t, err, workflow.ErrConflict)
	assert.Zero(t, store.commits)
}

func TestConcurrentSignsProduceOneWinner(t *testing.T) {
	order := testOrder(model.StatePendingOperations)
	svc, store, _, _, _ := newTestWorkflowService(order)
	actor := workflow.Actor{Email: "ops@example.com", Role: workflow.RoleOperations}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.SignStage(context.Background(), order.ID.String(), actor)
		}(i)
	}
	wg.Wait()

	var wins, guards int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		if _, ok := workflow.AsGuard(err); ok {
			guards++
		}
	}
	assert.Equal(t, 1, wins, "exactly one signer must win")
	assert.Equal(t, 1, guards, "the loser must get a typed denial, got %v", results)
	assert.Equal(t, 1, store.commits)
	assert.Equal(t, model.StateOperationsApproved, store.order.State)
}

func TestMirrorFailureDoesNotFailOperation(t *testing.T) {
	order := testOrder(model.StatePendingBuyerSignature)
	svc, store, _, notifier, mirror := newTestWorkflowService(order)
	mirror.err = errors.New("audit db down")

	resp, err := svc.SignStage(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingOperations, resp.State)
	assert.Equal(t, 1, store.commits)
	assert.Len(t, notifier.calls, 1)
}

func TestRejectPersistsReason(t *testing.T) {
	order := testOrder(model.StatePendingOperations)
	svc, store, _, notifier, _ := newTestWorkflowService(order)

	resp, err := svc.Reject(context.Background(), order.ID.String(), workflow.Actor{Email: "ops@example.com", Role: workflow.RoleOperations}, "wrong vendor")
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, resp.State)
	assert.Equal(t, "wrong vendor", resp.RejectionReason)
	assert.Equal(t, "wrong vendor", store.order.RejectionReason)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, workflow.RoleBuyer, notifier.calls[0])
}

func TestRegisterPaymentClosesOrder(t *testing.T) {
	order := testOrder(model.StateManagementApproved)
	svc, store, _, _, mirror := newTestWorkflowService(order)

	resp, err := svc.RegisterPayment(context.Background(), order.ID.String(), workflow.Actor{Email: "fin@example.com", Role: workflow.RoleFinance}, "INV-77")
	require.NoError(t, err)
	assert.Equal(t, model.StatePaid, resp.State)
	assert.Equal(t, "INV-77", store.order.InvoiceRef)
	require.Len(t, mirror.entries, 1)
	assert.Equal(t, model.ActionRegisterPayment, mirror.entries[0].Action)
}

func TestResubmitClearsDownstreamState(t *testing.T) {
	order := testOrder(model.StateRejected)
	order.AmendmentAllowed = true
	order.RejectionReason = "wrong vendor"
	order.Signatures = []model.StageSignature{
		{OrderID: order.ID, Stage: "buyer", SignatureRef: "sig-buyer", SignedByEmail: "buyer@example.com"},
		{OrderID: order.ID, Stage: "operations", SignatureRef: "sig-ops", SignedByEmail: "ops@example.com"},
	}
	svc, store, _, notifier, _ := newTestWorkflowService(order)

	resp, err := svc.Resubmit(context.Background(), order.ID.String(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	require.NoError(t, err)

	assert.Equal(t, model.StatePendingOperations, resp.State)
	assert.Empty(t, resp.RejectionReason)
	assert.False(t, store.order.AmendmentAllowed)
	assert.Contains(t, resp.Signatures, "buyer", "buyer signature must survive resubmission")
	assert.NotContains(t, resp.Signatures, "operations")
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, workflow.RoleOperations, notifier.calls[0])
}

func TestTransitionRejectsMalformedID(t *testing.T) {
	svc, _, _, _, _ := newTestWorkflowService(testOrder(model.StatePendingBuyerSignature))

	_, err := svc.SignStage(context.Background(), "not-a-uuid", workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	var v *workflow.ValidationError
	require.ErrorAs(t, err, &v)
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _, _, _, _ := newTestWorkflowService(testOrder(model.StatePendingBuyerSignature))

	_, err := svc.SignStage(context.Background(), uuid.NewString(), workflow.Actor{Email: "buyer@example.com", Role: workflow.RoleBuyer})
	require.ErrorIs(t, err, workflow.ErrNotFound)
}
