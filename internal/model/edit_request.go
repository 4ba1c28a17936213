package model

import (
	"time"

	"github.com/google/uuid"
)

// EditRequest state constants — persisted verbatim
const (
	EditRequestPending  = "Pending"
	EditRequestApproved = "Approved"
	EditRequestRejected = "Rejected"
)

// EditRequest asks permission to amend and resubmit a rejected order.
// Approval flips the parent order's amendment_allowed flag; the flag is
// consumed when the order leaves Rejected via resubmission.
type EditRequest struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	Order            *PurchaseOrder `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Reason           string         `gorm:"type:text;not null" json:"reason"`
	RequestedByEmail string         `gorm:"type:varchar(255);not null" json:"requested_by_email"`
	State            string         `gorm:"type:varchar(20);not null;default:'Pending';index" json:"state"`
	ResolvedByEmail  string         `gorm:"type:varchar(255)" json:"resolved_by_email"`
	ResolutionNote   string         `gorm:"type:text" json:"resolution_note"`
	ResolvedAt       *time.Time     `json:"resolved_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
