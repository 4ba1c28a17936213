package service

import (
	"context"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"
)

// --- DTOs ---

type RegisterSignatureDTO struct {
	ImageRef string `json:"image_ref" binding:"required"`
}

type SignatureResponse struct {
	Email     string `json:"email"`
	ImageRef  string `json:"image_ref"`
	UpdatedAt string `json:"updated_at"`
}

// --- Interface ---

type SignatureService interface {
	Register(ctx context.Context, actor workflow.Actor, req RegisterSignatureDTO) (*SignatureResponse, error)
	GetByEmail(ctx context.Context, email string) (*SignatureResponse, error)
}

type signatureService struct {
	signatures repository.SignatureRepository
	mirror     repository.AuditRepository
}

func NewSignatureService(signatures repository.SignatureRepository, mirror repository.AuditRepository) SignatureService {
	return &signatureService{signatures: signatures, mirror: mirror}
}

// --- Implementation ---

func (s *signatureService) Register(ctx context.Context, actor workflow.Actor, req RegisterSignatureDTO) (*SignatureResponse, error) {
	if strings.TrimSpace(req.ImageRef) == "" {
		return nil, &workflow.ValidationError{Field: "image_ref", Reason: "a signature image reference is required"}
	}

	sig := &model.Signature{
		Email:    actor.Email,
		ImageRef: req.ImageRef,
	}
	if err := s.signatures.Upsert(ctx, sig); err != nil {
		return nil, err
	}

	_ = s.mirror.Log(ctx, &model.AuditLog{
		ActorEmail: actor.Email,
		Action:     model.ActionRegisterSignature,
		EntityID:   actor.Email,
	})

	return s.GetByEmail(ctx, actor.Email)
}

func (s *signatureService) GetByEmail(ctx context.Context, email string) (*SignatureResponse, error) {
	sig, err := s.signatures.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, workflow.ErrNotFound
	}
	return &SignatureResponse{
		Email:     sig.Email,
		ImageRef:  sig.ImageRef,
		UpdatedAt: sig.UpdatedAt.Format(time.RFC3339),
	}, nil
}
