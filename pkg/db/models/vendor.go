package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is the account that owns one or more stores.
type Vendor struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	IsLifetimeFree bool      `gorm:"column:is_lifetime_free;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
