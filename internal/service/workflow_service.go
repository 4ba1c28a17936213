package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
)

// OrderStore is the slice of the order repository the orchestrator needs
type OrderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	CommitTransition(ctx context.Context, id uuid.UUID, expectedState string, upd repository.TransitionUpdate) error
}

// SignatureStore resolves an identity to its stored signature image, or
// (nil, nil) when none is registered
type SignatureStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Signature, error)
}

// Notifier delivers a best-effort, fire-and-forget notification to a role.
// Implementations must swallow their own failures.
type Notifier interface {
	Notify(ctx context.Context, role workflow.Role, orderID uuid.UUID, title, body string)
}

// AuditMirror receives the global copy of workflow events
type AuditMirror interface {
	Log(ctx context.Context, entry *model.AuditLog) error
}

// WorkflowService is the orchestrator: the only workflow component with side
// effects. Every operation loads the order fresh, asks the pure engine for a
// decision, persists it under a compare-and-swap on the previous state, and
// only then mirrors the audit entry and notifies the next role.
type WorkflowService interface {
	SignStage(ctx context.Context, orderID string, actor workflow.Actor) (*OrderResponse, error)
	Reject(ctx context.Context, orderID string, actor workflow.Actor, reason string) (*OrderResponse, error)
	RegisterPayment(ctx context.Context, orderID string, actor workflow.Actor, invoiceRef string) (*OrderResponse, error)
	Resubmit(ctx context.Context, orderID string, actor workflow.Actor) (*OrderResponse, error)
}

type workflowService struct {
	orders     OrderStore
	signatures SignatureStore
	notifier   Notifier
	mirror     AuditMirror
}

func NewWorkflowService(orders OrderStore, signatures SignatureStore, notifier Notifier, mirror AuditMirror) WorkflowService {
	return &workflowService{orders: orders, signatures: signatures, notifier: notifier, mirror: mirror}
}

func (s *workflowService) SignStage(ctx context.Context, orderID string, actor workflow.Actor) (*OrderResponse, error) {
	sigRef := ""
	sig, err := s.signatures.GetByEmail(ctx, actor.Email)
	if err != nil {
		// Collaborator failure: log and let the engine's guard report the
		// missing signature instead of leaking an infrastructure error.
		log.Printf("signature store unavailable for %s: %v", actor.Email, err)
	} else if sig != nil {
		sigRef = sig.ImageRef
	}

	return s.transition(ctx, orderID, actor, func(order *model.PurchaseOrder) (*workflow.Decision, error) {
		return workflow.Sign(order, actor, sigRef)
	})
}

func (s *workflowService) Reject(ctx context.Context, orderID string, actor workflow.Actor, reason string) (*OrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(order *model.PurchaseOrder) (*workflow.Decision, error) {
		return workflow.Reject(order, actor, reason)
	})
}

func (s *workflowService) RegisterPayment(ctx context.Context, orderID string, actor workflow.Actor, invoiceRef string) (*OrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(order *model.PurchaseOrder) (*workflow.Decision, error) {
		return workflow.RegisterPayment(order, actor, invoiceRef)
	})
}

func (s *workflowService) Resubmit(ctx context.Context, orderID string, actor workflow.Actor) (*OrderResponse, error) {
	return s.transition(ctx, orderID, actor, func(order *model.PurchaseOrder) (*workflow.Decision, error) {
		return workflow.Resubmit(order, actor)
	})
}

// transition runs the read-decide-write cycle. On a lost compare-and-swap it
// retries once with freshly loaded state; if the engine then denies the
// action the typed denial is surfaced, not the conflict.
func (s *workflowService) transition(ctx context.Context, orderID string, actor workflow.Actor, decide func(*model.PurchaseOrder) (*workflow.Decision, error)) (*OrderResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		order, loadErr := s.orders.FindByID(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}

		decision, decideErr := decide(order)
		if decideErr != nil {
			return nil, decideErr
		}

		commitErr := s.orders.CommitTransition(ctx, id, order.State, buildTransitionUpdate(decision, actor))
		if errors.Is(commitErr, workflow.ErrConflict) {
			lastErr = commitErr
			continue
		}
		if commitErr != nil {
			return nil, fmt.Errorf("failed to persist transition: %w", commitErr)
		}

		s.afterCommit(ctx, order, decision, actor)

		updated, reloadErr := s.orders.FindByID(ctx, id)
		if reloadErr != nil {
			return nil, reloadErr
		}
		resp := toOrderResponse(updated, false)
		return &resp, nil
	}
	return nil, lastErr
}

// afterCommit performs the best-effort side effects: the global audit mirror
// and the next-role notification. Neither can fail the operation — the
// primary write already succeeded.
func (s *workflowService) afterCommit(ctx context.Context, order *model.PurchaseOrder, decision *workflow.Decision, actor workflow.Actor) {
	details, _ := json.Marshal(map[string]interface{}{
		"order_code": order.OrderCode,
		"from":       order.State,
		"to":         decision.NextState,
		"note":       decision.AuditNote,
	})
	if err := s.mirror.Log(ctx, &model.AuditLog{
		ActorEmail: actor.Email,
		Action:     decision.AuditAction,
		EntityID:   order.ID.String(),
		EntityName: order.OrderCode,
		Details:    string(details),
	}); err != nil {
		log.Printf("audit mirror write failed for %s: %v", order.OrderCode, err)
	}

	if decision.Notify {
		title, body := notificationMessage(order, decision)
		s.notifier.Notify(ctx, decision.NotifyRole, order.ID, title, body)
	}
}

func buildTransitionUpdate(decision *workflow.Decision, actor workflow.Actor) repository.TransitionUpdate {
	upd := repository.TransitionUpdate{
		NewState:             decision.NextState,
		RejectionReason:      decision.RejectionReason,
		ClearRejectionReason: decision.ClearRejectionReason,
		ConsumeAmendment:     decision.ConsumeAmendment,
		InvoiceRef:           decision.InvoiceRef,
		Audit: model.OrderAuditEntry{
			Action:     decision.AuditAction,
			ActorEmail: actor.Email,
			Note:       decision.AuditNote,
		},
	}
	if decision.SignStage != "" {
		upd.Signature = &model.StageSignature{
			Stage:         string(decision.SignStage),
			SignatureRef:  decision.SignatureRef,
			SignedByEmail: actor.Email,
			SignedAt:      time.Now(),
		}
	}
	for _, stage := range decision.ClearStages {
		upd.ClearStages = append(upd.ClearStages, string(stage))
	}
	return upd
}

func notificationMessage(order *model.PurchaseOrder, decision *workflow.Decision) (string, string) {
	switch decision.NextState {
	case model.StatePendingOperations:
		return "Order awaiting operations approval",
			fmt.Sprintf("Purchase order %s is ready for operations review.", order.OrderCode)
	case model.StateOperationsApproved:
		return "Order awaiting management approval",
			fmt.Sprintf("Purchase order %s passed operations and awaits management sign-off.", order.OrderCode)
	case model.StateManagementApproved:
		return "Order awaiting payment registration",
			fmt.Sprintf("Purchase order %s is fully approved; finance can register the payment.", order.OrderCode)
	case model.StatePaid:
		return "Order paid",
			fmt.Sprintf("Payment for purchase order %s has been registered.", order.OrderCode)
	case model.StateRejected:
		return "Order rejected",
			fmt.Sprintf("Purchase order %s was rejected: %s", order.OrderCode, decision.RejectionReason)
	}
	return "Order updated", fmt.Sprintf("Purchase order %s changed state.", order.OrderCode)
}
