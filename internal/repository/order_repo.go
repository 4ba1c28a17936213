package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionUpdate describes everything a single workflow transition writes:
// the new state, an optional stage signature, stages to clear, flag changes
// and the per-order audit entry. All of it is applied in one transaction,
// guarded by a compare-and-swap on the previous state.
type TransitionUpdate struct {
	NewState             string
	Signature            *model.StageSignature
	ClearStages          []string
	RejectionReason      string
	ClearRejectionReason bool
	ConsumeAmendment     bool
	InvoiceRef           string
	Audit                model.OrderAuditEntry
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, state, requestedBy string, page, limit int) ([]model.PurchaseOrder, int64, error)
	SaveItems(ctx context.Context, order *model.PurchaseOrder) error
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error
	CommitTransition(ctx context.Context, id uuid.UUID, expectedState string, upd TransitionUpdate) error
	AppendAudit(ctx context.Context, entry *model.OrderAuditEntry) error
	SetAmendmentAllowed(ctx context.Context, id uuid.UUID, allowed bool) error
	GenerateOrderCode(ctx context.Context) (string, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Signatures").
		Preload("Supplier").
		Preload("AuditTrail", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, state, requestedBy string, page, limit int) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseOrder{})
	if state != "" {
		query = query.Where("state = ?", state)
	}
	if requestedBy != "" {
		query = query.Where("requested_by = ?", requestedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Preload("Signatures").
		Preload("Supplier").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// SaveItems replaces the order's line items and persists the recomputed
// totals. Callers must have recalculated totals before calling.
func (r *orderRepository) SaveItems(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if len(order.Items) > 0 {
			if err := tx.Create(&order.Items).Error; err != nil {
				return fmt.Errorf("failed to save line items: %w", err)
			}
		}
		return tx.Model(&model.PurchaseOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"subtotal":      order.Subtotal,
			"tax":           order.Tax,
			"other_charges": order.OtherCharges,
			"grand_total":   order.GrandTotal,
		}).Error
	})
}

func (r *orderRepository) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ? AND order_id = ?", itemID, orderID).Delete(&model.LineItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ErrNotFound
	}
	return nil
}

// CommitTransition persists one workflow transition atomically. The state
// write is a compare-and-swap: it only applies if the stored state still
// matches expectedState, otherwise workflow.ErrConflict is returned and
// nothing is written.
func (r *orderRepository) CommitTransition(ctx context.Context, id uuid.UUID, expectedState string, upd TransitionUpdate) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{"state": upd.NewState}
		if upd.RejectionReason != "" {
			fields["rejection_reason"] = upd.RejectionReason
		}
		if upd.ClearRejectionReason {
			fields["rejection_reason"] = ""
		}
		if upd.ConsumeAmendment {
			fields["amendment_allowed"] = false
		}
		if upd.InvoiceRef != "" {
			fields["invoice_ref"] = upd.InvoiceRef
		}

		res := tx.Model(&model.PurchaseOrder{}).
			Where("id = ? AND state = ?", id, expectedState).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.ErrConflict
		}

		if upd.Signature != nil {
			upd.Signature.OrderID = id
			if err := tx.Create(upd.Signature).Error; err != nil {
				return fmt.Errorf("failed to record stage signature: %w", err)
			}
		}
		if len(upd.ClearStages) > 0 {
			if err := tx.Where("order_id = ? AND stage IN ?", id, upd.ClearStages).
				Delete(&model.StageSignature{}).Error; err != nil {
				return fmt.Errorf("failed to clear stage signatures: %w", err)
			}
		}

		audit := upd.Audit
		audit.OrderID = id
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
		return nil
	})
}

func (r *orderRepository) AppendAudit(ctx context.Context, entry *model.OrderAuditEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *orderRepository) SetAmendmentAllowed(ctx context.Context, id uuid.UUID, allowed bool) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).
		Where("id = ?", id).
		Update("amendment_allowed", allowed).Error
}

// GenerateOrderCode issues the next sequential PO-YYYYMMDD-NNNNN code,
// serialized with an advisory lock so concurrent creations never collide.
func (r *orderRepository) GenerateOrderCode(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "PO-" + today + "-"

	var code string
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

		var count int64
		if err := tx.Model(&model.PurchaseOrder{}).
			Where("order_code LIKE ?", prefix+"%").
			Count(&count).Error; err != nil {
			return err
		}
		code = fmt.Sprintf("%s%05d", prefix, count+1)
		return nil
	})
	return code, err
}
