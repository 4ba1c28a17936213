package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/workflow"

	"github.com/google/uuid"
)

// --- DTOs ---

type SupplierDTO struct {
	Name          string `json:"name" binding:"required"`
	TaxCode       string `json:"tax_code"`
	CompanyName   string `json:"company_name"`
	BankAccount   string `json:"bank_account"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	IsActive      *bool  `json:"is_active"`
}

type SupplierResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TaxCode       string `json:"tax_code,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	BankAccount   string `json:"bank_account,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

type SupplierService interface {
	Create(ctx context.Context, req SupplierDTO) (*SupplierResponse, error)
	Update(ctx context.Context, id string, req SupplierDTO) (*SupplierResponse, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*SupplierResponse, error)
	List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]SupplierResponse, int64, error)
}

type supplierService struct {
	suppliers repository.SupplierRepository
}

func NewSupplierService(suppliers repository.SupplierRepository) SupplierService {
	return &supplierService{suppliers: suppliers}
}

// --- Implementation ---

func (s *supplierService) Create(ctx context.Context, req SupplierDTO) (*SupplierResponse, error) {
	supplier := &model.Supplier{
		Name:          req.Name,
		TaxCode:       req.TaxCode,
		CompanyName:   req.CompanyName,
		BankAccount:   req.BankAccount,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	resp := toSupplierResponse(supplier)
	return &resp, nil
}

func (s *supplierService) Update(ctx context.Context, id string, req SupplierDTO) (*SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid supplier id"}
	}

	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	supplier.Name = req.Name
	supplier.TaxCode = req.TaxCode
	supplier.CompanyName = req.CompanyName
	supplier.BankAccount = req.BankAccount
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, err
	}
	resp := toSupplierResponse(supplier)
	return &resp, nil
}

func (s *supplierService) Delete(ctx context.Context, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return &workflow.ValidationError{Field: "id", Reason: "invalid supplier id"}
	}
	if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
		return err
	}
	return s.suppliers.Delete(ctx, supplierID)
}

func (s *supplierService) Get(ctx context.Context, id string) (*SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, &workflow.ValidationError{Field: "id", Reason: "invalid supplier id"}
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	resp := toSupplierResponse(supplier)
	return &resp, nil
}

func (s *supplierService) List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]SupplierResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	suppliers, total, err := s.suppliers.List(ctx, search, activeOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		result = append(result, toSupplierResponse(&suppliers[i]))
	}
	return result, total, nil
}

// --- Helpers ---

func toSupplierResponse(supplier *model.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            supplier.ID.String(),
		Name:          supplier.Name,
		TaxCode:       supplier.TaxCode,
		CompanyName:   supplier.CompanyName,
		BankAccount:   supplier.BankAccount,
		ContactPerson: supplier.ContactPerson,
		Phone:         supplier.Phone,
		Email:         supplier.Email,
		IsActive:      supplier.IsActive,
		CreatedAt:     supplier.CreatedAt.Format(time.RFC3339),
	}
}
