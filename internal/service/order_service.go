package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type LineItemDTO struct {
	Name      string          `json:"name" binding:"required"`
	Quantity  int             `json:"quantity" binding:"min=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

type CreateOrderDTO struct {
	Currency     string          `json:"currency" binding:"required,oneof=LOCAL FOREIGN"`
	SupplierID   string          `json:"supplier_id" binding:"required"`
	CostCenter   string          `json:"cost_center" binding:"required"`
	PaymentTerms string          `json:"payment_terms" binding:"required"`
	OtherCharges decimal.Decimal `json:"other_charges"`
	Items        []LineItemDTO   `json:"items" binding:"required"`
}

type UpdateItemsDTO struct {
	Items        []LineItemDTO    `json:"items" binding:"required"`
	OtherCharges *decimal.Decimal `json:"other_charges"`
}

type OrderFilter struct {
	State       string
	RequestedBy string
	Page        int
	Limit       int
}

type SignatureInfo struct {
	SignatureRef  string `json:"signature_ref"`
	SignedByEmail string `json:"signed_by_email"`
	SignedAt      string `json:"signed_at"`
}

type LineItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type AuditEntryResponse struct {
	Action     string `json:"action"`
	ActorEmail string `json:"actor_email"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// OrderResponse exposes the aggregate with signatures normalized into a
// stage-keyed map; a stage key is present iff that stage has been completed.
type OrderResponse struct {
	ID               string                   `json:"id"`
	OrderCode        string                   `json:"order_code"`
	State            string                   `json:"state"`
	PendingStage     string                   `json:"pending_stage,omitempty"`
	Currency         string                   `json:"currency"`
	SupplierID       string                   `json:"supplier_id,omitempty"`
	SupplierName     string                   `json:"supplier_name,omitempty"`
	CostCenter       string                   `json:"cost_center"`
	PaymentTerms     string                   `json:"payment_terms"`
	RequestedBy      string                   `json:"requested_by"`
	Items            []LineItemResponse       `json:"items"`
	Subtotal         decimal.Decimal          `json:"subtotal"`
	Tax              decimal.Decimal          `json:"tax"`
	OtherCharges     decimal.Decimal          `json:"other_charges"`
	GrandTotal       decimal.Decimal          `json:"grand_total"`
	Signatures       map[string]SignatureInfo `json:"signatures"`
	AmendmentAllowed bool                     `json:"amendment_allowed"`
	RejectionReason  string                   `json:"rejection_reason,omitempty"`
	InvoiceRef       string                   `json:"invoice_ref,omitempty"`
	AuditTrail       []AuditEntryResponse     `json:"audit_trail,omitempty"`
	CreatedAt        string                   `json:"created_at"`
	UpdatedAt        string                   `json:"updated_at"`
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, actor workflow.Actor, req CreateOrderDTO) (*OrderResponse, error)
	GetOrder(ctx context.Context, id string) (*OrderResponse, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]OrderResponse, int64, error)
	UpdateItems(ctx context.Context, id string, actor workflow.Actor, req UpdateItemsDTO) (*OrderResponse, error)
	RemoveItem(ctx context.Context, id, itemID string, actor workflow.Actor) (*OrderResponse, error)
	GetAuditTrail(ctx context.Context, id string) ([]AuditEntryResponse, error)
}

type orderService struct {
	orders    repository.OrderRepository
	suppliers repository.SupplierRepository
	txManager repository.TransactionManager
	mirror    repository.AuditRepository
}

func NewOrderService(orders repository.OrderRepository, suppliers repository.SupplierRepository, txManager repository.TransactionManager, mirror repository.AuditRepository) OrderService {
	return &orderService{orders: orders, suppliers: suppliers, txManager: txManager, mirror: mirror}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, actor workflow.Actor, req CreateOrderDTO) (*OrderResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "supplier_id", Reason: "invalid supplier id"}
	}

	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsActive {
		return nil, &workflow.ValidationError{Field: "supplier_id", Reason: "supplier is inactive"}
	}

	order := &model.PurchaseOrder{
		State:        model.StatePendingBuyerSignature,
		Currency:     req.Currency,
		SupplierID:   &supplierID,
		CostCenter:   req.CostCenter,
		PaymentTerms: req.PaymentTerms,
		OtherCharges: req.OtherCharges,
		RequestedBy:  actor.Email,
		Items:        toLineItems(req.Items),
	}
	order.RecalculateTotals()

	if err := workflow.ValidateSubmission(order); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		code, codeErr := s.orders.GenerateOrderCode(txCtx)
		if codeErr != nil {
			return fmt.Errorf("failed to generate order code: %w", codeErr)
		}
		order.OrderCode = code

		if createErr := s.orders.Create(txCtx, order); createErr != nil {
			return fmt.Errorf("failed to create purchase order: %w", createErr)
		}

		audit := &model.OrderAuditEntry{
			OrderID:    order.ID,
			Action:     model.ActionCreateOrder,
			ActorEmail: actor.Email,
			Note:       "order created with " + fmt.Sprintf("%d line item(s)", len(order.Items)),
		}
		return s.orders.AppendAudit(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	s.mirrorEvent(ctx, order, actor, model.ActionCreateOrder)

	return s.GetOrder(ctx, order.ID.String())
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, true)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	orders, total, err := s.orders.List(ctx, filter.State, filter.RequestedBy, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i], false))
	}
	return result, total, nil
}

// UpdateItems replaces the line items of an editable order and recomputes
// totals. Orders locked in the approval chain cannot be edited.
func (s *orderService) UpdateItems(ctx context.Context, id string, actor workflow.Actor, req UpdateItemsDTO) (*OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Editable() {
		return nil, &workflow.GuardViolation{Code: workflow.GuardOrderLocked,
			Reason: "order " + order.OrderCode + " is locked in the approval chain"}
	}

	order.Items = toLineItems(req.Items)
	if req.OtherCharges != nil {
		order.OtherCharges = *req.OtherCharges
	}
	order.RecalculateTotals()

	if err := workflow.ValidateSubmission(order); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.orders.SaveItems(txCtx, order); saveErr != nil {
			return saveErr
		}
		return s.orders.AppendAudit(txCtx, &model.OrderAuditEntry{
			OrderID:    order.ID,
			Action:     model.ActionUpdateOrder,
			ActorEmail: actor.Email,
			Note:       "line items updated",
		})
	})
	if err != nil {
		return nil, err
	}

	s.mirrorEvent(ctx, order, actor, model.ActionUpdateOrder)

	return s.GetOrder(ctx, id)
}

func (s *orderService) RemoveItem(ctx context.Context, id, itemID string, actor workflow.Actor) (*OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}
	lineID, err := uuid.Parse(itemID)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "item_id", Reason: "invalid line item id"}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Editable() {
		return nil, &workflow.GuardViolation{Code: workflow.GuardOrderLocked,
			Reason: "order " + order.OrderCode + " is locked in the approval chain"}
	}

	remaining := make([]model.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ID != lineID {
			remaining = append(remaining, item)
		}
	}
	if len(remaining) == len(order.Items) {
		return nil, workflow.ErrNotFound
	}
	order.Items = remaining
	order.RecalculateTotals()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if rmErr := s.orders.RemoveItem(txCtx, orderID, lineID); rmErr != nil {
			return rmErr
		}
		if saveErr := s.orders.SaveItems(txCtx, order); saveErr != nil {
			return saveErr
		}
		return s.orders.AppendAudit(txCtx, &model.OrderAuditEntry{
			OrderID:    order.ID,
			Action:     model.ActionUpdateOrder,
			ActorEmail: actor.Email,
			Note:       "line item removed",
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, id)
}

func (s *orderService) GetAuditTrail(ctx context.Context, id string) ([]AuditEntryResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid order id"}
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toAuditTrail(order.AuditTrail), nil
}

// mirrorEvent writes the global audit mirror; failures are logged by the
// repository caller and never surfaced.
func (s *orderService) mirrorEvent(ctx context.Context, order *model.PurchaseOrder, actor workflow.Actor, action string) {
	details, _ := json.Marshal(map[string]interface{}{
		"order_code":  order.OrderCode,
		"state":       order.State,
		"grand_total": order.GrandTotal.StringFixed(4),
	})
	_ = s.mirror.Log(ctx, &model.AuditLog{
		ActorEmail: actor.Email,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.OrderCode,
		Details:    string(details),
	})
}

// --- Helpers ---

func toLineItems(items []LineItemDTO) []model.LineItem {
	result := make([]model.LineItem, 0, len(items))
	for _, it := range items {
		result = append(result, model.LineItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
		})
	}
	return result
}

func toAuditTrail(entries []model.OrderAuditEntry) []AuditEntryResponse {
	result := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, AuditEntryResponse{
			Action:     e.Action,
			ActorEmail: e.ActorEmail,
			Note:       e.Note,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return result
}

func toOrderResponse(order *model.PurchaseOrder, withAudit bool) OrderResponse {
	resp := OrderResponse{
		ID:               order.ID.String(),
		OrderCode:        order.OrderCode,
		State:            order.State,
		Currency:         order.Currency,
		CostCenter:       order.CostCenter,
		PaymentTerms:     order.PaymentTerms,
		RequestedBy:      order.RequestedBy,
		Subtotal:         order.Subtotal,
		Tax:              order.Tax,
		OtherCharges:     order.OtherCharges,
		GrandTotal:       order.GrandTotal,
		AmendmentAllowed: order.AmendmentAllowed,
		RejectionReason:  order.RejectionReason,
		InvoiceRef:       order.InvoiceRef,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        order.UpdatedAt.Format(time.RFC3339),
	}

	if stage, ok := workflow.PendingStage(order.State); ok {
		resp.PendingStage = string(stage)
	}
	if order.SupplierID != nil {
		resp.SupplierID = order.SupplierID.String()
	}
	if order.Supplier != nil {
		resp.SupplierName = order.Supplier.Name
	}

	resp.Items = make([]LineItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		resp.Items = append(resp.Items, LineItemResponse{
			ID:        item.ID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			LineTotal: item.LineTotal(),
		})
	}

	resp.Signatures = make(map[string]SignatureInfo, len(order.Signatures))
	for _, sig := range order.Signatures {
		resp.Signatures[sig.Stage] = SignatureInfo{
			SignatureRef:  sig.SignatureRef,
			SignedByEmail: sig.SignedByEmail,
			SignedAt:      sig.SignedAt.Format(time.RFC3339),
		}
	}

	if withAudit {
		resp.AuditTrail = toAuditTrail(order.AuditTrail)
	}
	return resp
}
