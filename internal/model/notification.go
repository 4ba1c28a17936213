package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a best-effort, role-targeted workflow message. Delivery
// failures are swallowed; rows here are a convenience inbox, not a ledger.
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TargetRole string    `gorm:"type:varchar(20);not null;index" json:"target_role"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Body       string    `gorm:"type:text" json:"body"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
