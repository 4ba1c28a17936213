package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder     = "CREATE_ORDER"
	ActionUpdateOrder     = "UPDATE_ORDER"
	ActionSignStage       = "SIGN_STAGE"
	ActionRejectOrder     = "REJECT_ORDER"
	ActionRegisterPayment = "REGISTER_PAYMENT"
	ActionResubmitOrder   = "RESUBMIT_ORDER"

	// Amendment sub-workflow actions
	ActionRequestAmendment = "REQUEST_AMENDMENT"
	ActionApproveAmendment = "APPROVE_AMENDMENT"
	ActionRejectAmendment  = "REJECT_AMENDMENT"

	ActionRegisterSignature = "REGISTER_SIGNATURE"
)

// AuditLog is the global mirror of workflow events. The per-order trail
// (OrderAuditEntry) is the authoritative record; this mirror is written
// best-effort after the primary transition commits.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	ActorEmail string     `gorm:"type:varchar(255);index" json:"actor_email"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // order/request uuid or code
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
