package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateEditRequestDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type ResolveEditRequestDTO struct {
	Note string `json:"note"`
}

type EditRequestResponse struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Reason           string `json:"reason"`
	RequestedByEmail string `json:"requested_by_email"`
	State            string `json:"state"`
	ResolvedByEmail  string `json:"resolved_by_email,omitempty"`
	ResolutionNote   string `json:"resolution_note,omitempty"`
	ResolvedAt       string `json:"resolved_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// --- Interface ---

type AmendmentService interface {
	RequestAmendment(ctx context.Context, orderID string, actor workflow.Actor, req CreateEditRequestDTO) (*EditRequestResponse, error)
	ResolveAmendment(ctx context.Context, requestID string, actor workflow.Actor, approve bool, note string) (*EditRequestResponse, error)
	ListByOrder(ctx context.Context, orderID string) ([]EditRequestResponse, error)
}

type amendmentService struct {
	orders   repository.OrderRepository
	requests repository.EditRequestRepository
	notifier Notifier
	mirror   AuditMirror
}

func NewAmendmentService(orders repository.OrderRepository, requests repository.EditRequestRepository, notifier Notifier, mirror AuditMirror) AmendmentService {
	return &amendmentService{orders: orders, requests: requests, notifier: notifier, mirror: mirror}
}

// --- Implementation ---

func (s *amendmentService) RequestAmendment(ctx context.Context, orderID string, actor workflow.Actor, req CreateEditRequestDTO) (*EditRequestResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hasPending, err := s.requests.HasPending(ctx, id)
	if err != nil {
		return nil, err
	}

	editReq, err := workflow.RequestAmendment(order, actor, req.Reason, hasPending)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, editReq); err != nil {
		return nil, err
	}

	if err := s.orders.AppendAudit(ctx, &model.OrderAuditEntry{
		OrderID:    order.ID,
		Action:     model.ActionRequestAmendment,
		ActorEmail: actor.Email,
		Note:       req.Reason,
	}); err != nil {
		log.Printf("audit append failed for %s: %v", order.OrderCode, err)
	}
	s.mirrorAmendment(ctx, order, actor, model.ActionRequestAmendment, req.Reason)

	// The approver set for rejections is the stage that rejected; operations
	// triages amendment requests.
	s.notifier.Notify(ctx, workflow.RoleOperations, order.ID,
		"Amendment requested",
		"An edit request was opened for purchase order "+order.OrderCode+".")

	resp := toEditRequestResponse(editReq)
	return &resp, nil
}

func (s *amendmentService) ResolveAmendment(ctx context.Context, requestID string, actor workflow.Actor, approve bool, note string) (*EditRequestResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid edit request id"}
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	decision, err := workflow.ResolveAmendment(order, req, actor, approve, note)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Resolve(ctx, id, decision.RequestState, actor.Email, note, decision.AmendmentAllowed); err != nil {
		return nil, err
	}

	if err := s.orders.AppendAudit(ctx, &model.OrderAuditEntry{
		OrderID:    order.ID,
		Action:     decision.AuditAction,
		ActorEmail: actor.Email,
		Note:       note,
	}); err != nil {
		log.Printf("audit append failed for %s: %v", order.OrderCode, err)
	}
	s.mirrorAmendment(ctx, order, actor, decision.AuditAction, note)

	if decision.AmendmentAllowed {
		s.notifier.Notify(ctx, decision.NotifyRole, order.ID,
			"Amendment approved",
			"Purchase order "+order.OrderCode+" may now be edited and resubmitted.")
	} else {
		s.notifier.Notify(ctx, decision.NotifyRole, order.ID,
			"Amendment rejected",
			"The edit request for purchase order "+order.OrderCode+" was rejected.")
	}

	resolved, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEditRequestResponse(resolved)
	return &resp, nil
}

func (s *amendmentService) ListByOrder(ctx context.Context, orderID string) ([]EditRequestResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}

	reqs, err := s.requests.ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	result := make([]EditRequestResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, toEditRequestResponse(&reqs[i]))
	}
	return result, nil
}

func (s *amendmentService) mirrorAmendment(ctx context.Context, order *model.PurchaseOrder, actor workflow.Actor, action, note string) {
	details, _ := json.Marshal(map[string]interface{}{
		"order_code": order.OrderCode,
		"note":       note,
	})
	if err := s.mirror.Log(ctx, &model.AuditLog{
		ActorEmail: actor.Email,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.OrderCode,
		Details:    string(details),
	}); err != nil {
		log.Printf("audit mirror write failed for %s: %v", order.OrderCode, err)
	}
}

// --- Helpers ---

func toEditRequestResponse(req *model.EditRequest) EditRequestResponse {
	resp := EditRequestResponse{
		ID:               req.ID.String(),
		OrderID:          req.OrderID.String(),
		Reason:           req.Reason,
		RequestedByEmail: req.RequestedByEmail,
		State:            req.State,
		ResolvedByEmail:  req.ResolvedByEmail,
		ResolutionNote:   req.ResolutionNote,
		CreatedAt:        req.CreatedAt.Format(time.RFC3339),
	}
	if req.ResolvedAt != nil {
		resp.ResolvedAt = req.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}
