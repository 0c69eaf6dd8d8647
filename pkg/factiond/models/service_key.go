package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceKey is a long-lived API key for a gateway process that talks to
// factiond on behalf of platform users. Only the hash is stored; the
// prefix is kept for identification in listings.
type ServiceKey struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	KeyHash     string         `gorm:"not null" json:"-"`
	KeyPrefix   string         `gorm:"not null" json:"key_prefix"`
	Description string         `json:"description"`
	// Admin keys act as the privileged external actor: they may approve
	// and deny creation requests and use the force paths.
	Admin      bool       `gorm:"default:false" json:"admin"`
	LastUsedAt *time.Time `json:"last_used_at"`
}
