package model

import (
	"time"

	"github.com/google/uuid"
)

// Signature holds one reusable signature image per user identity.
// Re-registration overwrites the previous record.
type Signature struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	ImageRef  string    `gorm:"type:text;not null" json:"image_ref"` // URL or storage path of the signature image
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
