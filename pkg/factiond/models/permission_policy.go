package models

import "time"

// PermissionPolicy holds a faction's minimum-rank thresholds, one row per
// faction. When a faction has no row the engine falls back to the defaults
// in the policy package rather than failing.
type PermissionPolicy struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	FactionID    uint      `gorm:"uniqueIndex;not null" json:"faction_id"`
	RenameLevel  int       `gorm:"not null;default:4" json:"rename"`
	KickLevel    int       `gorm:"not null;default:3" json:"kick"`
	PromoteLevel int       `gorm:"not null;default:2" json:"promote"`
	DemoteLevel  int       `gorm:"not null;default:2" json:"demote"`
	InviteLevel  int       `gorm:"not null;default:2" json:"invite"`
	StrikeLevel  int       `gorm:"not null;default:1" json:"strike"`
	LeaveLevel   int       `gorm:"not null;default:0" json:"leave"`

	Faction Faction `gorm:"foreignKey:FactionID" json:"faction,omitempty"`
}
