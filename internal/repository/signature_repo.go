package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SignatureRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.Signature, error)
	Upsert(ctx context.Context, sig *model.Signature) error
}

type signatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepository(db *gorm.DB) SignatureRepository {
	return &signatureRepository{db: db}
}

// GetByEmail returns the stored signature for an identity, or (nil, nil)
// when none has been registered.
func (r *signatureRepository) GetByEmail(ctx context.Context, email string) (*model.Signature, error) {
	var sig model.Signature
	if err := GetDB(ctx, r.db).First(&sig, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sig, nil
}

// Upsert keeps at most one live signature per identity, overwriting on
// re-registration.
func (r *signatureRepository) Upsert(ctx context.Context, sig *model.Signature) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"image_ref", "updated_at"}),
	}).Create(sig).Error
}
