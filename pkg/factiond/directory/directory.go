package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xyn4x/factiond/pkg/factiond/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Directory is the read side of the faction data model. All lookups go
// through it so handlers and the engine share one set of query semantics.
type Directory struct {
	db *gorm.DB
}

// New creates a directory over db.
func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// FactionByID loads a faction by primary key.
func (d *Directory) FactionByID(id uint) (*models.Faction, error) {
	var f models.Faction
	err := d.db.First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("faction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FactionByCode loads a faction by its unique code, case-insensitively.
func (d *Directory) FactionByCode(code string) (*models.Faction, error) {
	var f models.Faction
	err := d.db.Where("unique_code = ?", strings.ToUpper(code)).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("faction %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FactionByOwner loads the faction the user owns, if any.
func (d *Directory) FactionByOwner(userID string) (*models.Faction, error) {
	var f models.Faction
	err := d.db.Where("owner_user_id = ?", userID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("faction owned by %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FactionOfMember loads the faction the user belongs to along with their
// membership row. A user belongs to at most one faction.
func (d *Directory) FactionOfMember(userID string) (*models.Faction, *models.Membership, error) {
	var m models.Membership
	err := d.db.Preload("Faction").Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("membership of %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return &m.Faction, &m, nil
}

// Member loads one membership row in the given faction.
func (d *Directory) Member(factionID uint, userID string) (*models.Membership, error) {
	var m models.Membership
	err := d.db.Where("faction_id = ? AND user_id = ?", factionID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("member %s in faction %d: %w", userID, factionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Members lists a faction's memberships, newest last.
func (d *Directory) Members(factionID uint) ([]models.Membership, error) {
	var members []models.Membership
	err := d.db.Where("faction_id = ?", factionID).Order("created_at asc").Find(&members).Error
	return members, err
}

// Channels lists a faction's channel bindings.
func (d *Directory) Channels(factionID uint) ([]models.ChannelBinding, error) {
	var channels []models.ChannelBinding
	err := d.db.Where("faction_id = ?", factionID).Find(&channels).Error
	return channels, err
}

// Channel loads one channel binding by faction and platform channel id.
func (d *Directory) Channel(factionID uint, channelID string) (*models.ChannelBinding, error) {
	var c models.ChannelBinding
	err := d.db.Where("faction_id = ? AND channel_id = ?", factionID, channelID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("channel %s in faction %d: %w", channelID, factionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Strikes lists a member's strikes in the faction, oldest first.
func (d *Directory) Strikes(factionID uint, userID string) ([]models.Strike, error) {
	var strikes []models.Strike
	err := d.db.Where("faction_id = ? AND user_id = ?", factionID, userID).
		Order("created_at asc").Find(&strikes).Error
	return strikes, err
}

// StrikeCount returns the member's current strike count.
func (d *Directory) StrikeCount(factionID uint, userID string) (int64, error) {
	var count int64
	err := d.db.Model(&models.Strike{}).
		Where("faction_id = ? AND user_id = ?", factionID, userID).Count(&count).Error
	return count, err
}

// Factions lists every faction, ordered by code.
func (d *Directory) Factions() ([]models.Faction, error) {
	var factions []models.Faction
	err := d.db.Order("unique_code asc").Find(&factions).Error
	return factions, err
}

// CodeTaken reports whether an active faction already uses the code.
func (d *Directory) CodeTaken(code string) (bool, error) {
	var count int64
	err := d.db.Model(&models.Faction{}).
		Where("unique_code = ?", strings.ToUpper(code)).Count(&count).Error
	return count > 0, err
}
