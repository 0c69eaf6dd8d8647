package models

import "time"

// Strike is a disciplinary record against a faction member. The log is
// append-only and unbounded; clients truncate for display but storage
// keeps everything. Rows are removed one at a time by a Director+, in bulk
// when the member is kicked or leaves, or with the faction on disband.
type Strike struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FactionID uint      `gorm:"not null;index" json:"faction_id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Reason    string    `gorm:"not null" json:"reason"`
	IssuerID  string    `gorm:"not null" json:"issuer_id"`

	Faction Faction `gorm:"foreignKey:FactionID" json:"faction,omitempty"`
}
