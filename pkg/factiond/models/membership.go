package models

import "time"

// Membership ties a platform user to a faction with a rank.
// The unique index only guards (faction, user); the stronger rule that a
// user belongs to at most one faction across the whole directory is checked
// by the lifecycle engine before every insert.
type Membership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"-"`
	FactionID uint      `gorm:"not null;uniqueIndex:idx_faction_user" json:"faction_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_faction_user" json:"user_id"`
	// Rank is one of member, midcomm, hicomm, director, owner. Stored as
	// the lowercase name; unknown values read back as level 0 (member).
	Rank string `gorm:"type:varchar(20);not null;default:'member'" json:"rank"`

	Faction Faction `gorm:"foreignKey:FactionID" json:"faction,omitempty"`
}
