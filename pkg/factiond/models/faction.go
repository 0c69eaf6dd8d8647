package models

import "time"

// Faction represents an active faction: a sub-community with its own
// platform role, channel category, and membership roster.
// Rows are created only by the approval step of faction creation and are
// hard-deleted (with their children) on disband, so any row present here
// is an active faction.
type Faction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null" json:"name"`
	// UniqueCode is the 3-4 uppercase-letter tag shown in role names and
	// nicknames, e.g. "ABC". Unique across all active factions.
	UniqueCode string `gorm:"uniqueIndex;not null" json:"unique_code"`
	Type       string `gorm:"not null" json:"type"`
	GroupURL   string `json:"group_url"` // external community group link
	Color      string `gorm:"not null" json:"color"`
	ImageURL   string `json:"image_url,omitempty"`
	// OwnerUserID is the platform user id of the owner. A user owns at
	// most one faction at a time; the engine enforces this before insert.
	OwnerUserID string `gorm:"not null;index" json:"owner_user_id"`

	// Platform resource bindings created at approval time.
	RoleID         string `json:"role_id"`
	HicommRoleID   string `json:"hicomm_role_id"`
	DirectorRoleID string `json:"director_role_id"`
	MidcommRoleID  string `json:"midcomm_role_id"`
	CategoryID     string `json:"category_id"`

	// Relationships
	Members  []Membership     `gorm:"foreignKey:FactionID" json:"members,omitempty"`
	Channels []ChannelBinding `gorm:"foreignKey:FactionID" json:"channels,omitempty"`
}
