package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency enum constants
const (
	CurrencyLocal   = "LOCAL"
	CurrencyForeign = "FOREIGN"
)

// Workflow state constants — persisted verbatim, must round-trip exactly
const (
	StatePendingBuyerSignature = "PendingBuyerSignature"
	StatePendingOperations     = "PendingOperations"
	StateOperationsApproved    = "OperationsApproved"
	StateManagementApproved    = "ManagementApproved"
	StatePaid                  = "Paid"
	StateRejected              = "Rejected"
)

// TaxRate is the fixed tax applied to every order subtotal (18%)
var TaxRate = decimal.NewFromFloat(0.18)

// PurchaseOrder is the entity under state-machine control. State only changes
// through the approval engine; totals only change through RecalculateTotals.
type PurchaseOrder struct {
	ID               uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderCode        string            `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_code"`
	State            string            `gorm:"type:varchar(30);not null;default:'PendingBuyerSignature';index" json:"state"`
	Currency         string            `gorm:"type:varchar(10);not null" json:"currency"` // LOCAL, FOREIGN
	SupplierID       *uuid.UUID        `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier         *Supplier         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CostCenter       string            `gorm:"type:varchar(100);not null" json:"cost_center"`
	PaymentTerms     string            `gorm:"type:varchar(100);not null" json:"payment_terms"`
	RequestedBy      string            `gorm:"type:varchar(255);not null;index" json:"requested_by"` // requester email
	Items            []LineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal         decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	Tax              decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"tax"`
	OtherCharges     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"other_charges"`
	GrandTotal       decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"grand_total"`
	Signatures       []StageSignature  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"signatures"`
	AmendmentAllowed bool              `gorm:"not null;default:false" json:"amendment_allowed"`
	RejectionReason  string            `gorm:"type:text" json:"rejection_reason"`
	InvoiceRef       string            `gorm:"type:varchar(100)" json:"invoice_ref"` // invoice/receipt reference set at payment
	AuditTrail       []OrderAuditEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"audit_trail"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// LineItem represents a single line within a PurchaseOrder
type LineItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Discount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
}

// LineTotal returns quantity * unit price - discount
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.Discount)
}

// StageSignature records a completed approval stage. The (order_id, stage)
// unique index makes double-signing impossible at the storage layer too.
type StageSignature struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_stage" json:"order_id"`
	Stage         string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_order_stage" json:"stage"`
	SignatureRef  string    `gorm:"type:text;not null" json:"signature_ref"` // reference into the signature store
	SignedByEmail string    `gorm:"type:varchar(255);not null" json:"signed_by_email"`
	SignedAt      time.Time `gorm:"not null" json:"signed_at"`
}

// OrderAuditEntry is the append-only per-order audit trail. Entries are
// written in the same transaction as the state change they describe.
type OrderAuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Action     string    `gorm:"type:varchar(50);not null" json:"action"`
	ActorEmail string    `gorm:"type:varchar(255);not null" json:"actor_email"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// RecalculateTotals rederives subtotal, tax and grand total from the line
// items. Must be called after every line-item mutation; safe to call twice.
func (o *PurchaseOrder) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(TaxRate)
	o.GrandTotal = subtotal.Add(o.Tax).Add(o.OtherCharges)
}

// HasSignature reports whether the given stage has already been signed
func (o *PurchaseOrder) HasSignature(stage string) bool {
	return o.SignatureFor(stage) != nil
}

// SignatureFor returns the recorded signature for a stage, or nil
func (o *PurchaseOrder) SignatureFor(stage string) *StageSignature {
	for i := range o.Signatures {
		if o.Signatures[i].Stage == stage {
			return &o.Signatures[i]
		}
	}
	return nil
}

// Editable reports whether line items may currently be changed: either the
// order has not entered the approval chain yet, or an approved amendment is
// outstanding on a rejected order.
func (o *PurchaseOrder) Editable() bool {
	if o.State == StatePendingBuyerSignature {
		return true
	}
	return o.State == StateRejected && o.AmendmentAllowed
}
