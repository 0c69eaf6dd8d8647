package models

import "time"

// ChannelBinding associates a faction with one platform channel it owns.
// Kind is a stable key ("announcements", "chat", "voice", ...) while Name
// is the display name shown on the platform.
type ChannelBinding struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FactionID uint      `gorm:"not null;index" json:"faction_id"`
	Kind      string    `gorm:"not null" json:"kind"`
	ChannelID string    `gorm:"not null;index" json:"channel_id"`
	Name      string    `gorm:"not null" json:"name"`

	Faction Faction `gorm:"foreignKey:FactionID" json:"faction,omitempty"`
}
