package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EditRequestRepository interface {
	Create(ctx context.Context, req *model.EditRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.EditRequest, error)
	HasPending(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.EditRequest, error)
	Resolve(ctx context.Context, id uuid.UUID, newState, resolvedBy, note string, unlockOrder bool) error
}

type editRequestRepository struct {
	db *gorm.DB
}

func NewEditRequestRepository(db *gorm.DB) EditRequestRepository {
	return &editRequestRepository{db: db}
}

func (r *editRequestRepository) Create(ctx context.Context, req *model.EditRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *editRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EditRequest, error) {
	var req model.EditRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *editRequestRepository) HasPending(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.EditRequest{}).
		Where("order_id = ? AND state = ?", orderID, model.EditRequestPending).
		Count(&count).Error
	return count > 0, err
}

func (r *editRequestRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.EditRequest, error) {
	var reqs []model.EditRequest
	err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// Resolve closes a pending edit request and, on approval, unlocks the parent
// order for amendment. The request update is guarded on state = Pending so
// two concurrent resolutions cannot both win.
func (r *editRequestRepository) Resolve(ctx context.Context, id uuid.UUID, newState, resolvedBy, note string, unlockOrder bool) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.EditRequest{}).
			Where("id = ? AND state = ?", id, model.EditRequestPending).
			Updates(map[string]interface{}{
				"state":             newState,
				"resolved_by_email": resolvedBy,
				"resolution_note":   note,
				"resolved_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.ErrConflict
		}

		if unlockOrder {
			var req model.EditRequest
			if err := tx.First(&req, "id = ?", id).Error; err != nil {
				return err
			}
			return tx.Model(&model.PurchaseOrder{}).
				Where("id = ?", req.OrderID).
				Update("amendment_allowed", true).Error
		}
		return nil
	})
}
