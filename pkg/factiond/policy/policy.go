package policy

import (
	"errors"
	"fmt"

	"github.com/xyn4x/factiond/pkg/factiond/models"
	"gorm.io/gorm"
)

// Action kinds gated by a faction's permission policy.
const (
	ActionRename  = "rename"
	ActionKick    = "kick"
	ActionPromote = "promote"
	ActionDemote  = "demote"
	ActionInvite  = "invite"
	ActionStrike  = "strike"
	ActionLeave   = "leave"
)

// Actions lists every configurable action kind.
var Actions = []string{
	ActionRename, ActionKick, ActionPromote, ActionDemote,
	ActionInvite, ActionStrike, ActionLeave,
}

// ErrUnknownAction is returned by Set for action kinds outside Actions.
var ErrUnknownAction = errors.New("unknown action kind")

// Policy maps an action kind to the minimum rank level required for it.
type Policy map[string]int

// Defaults returns the system default thresholds, applied to every faction
// that has no stored policy row.
func Defaults() Policy {
	return Policy{
		ActionRename:  4,
		ActionKick:    3,
		ActionPromote: 2,
		ActionDemote:  2,
		ActionInvite:  2,
		ActionStrike:  1,
		ActionLeave:   0,
	}
}

// Store reads and writes per-faction permission policies.
type Store struct {
	db *gorm.DB
}

// NewStore creates a policy store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the faction's policy, or the defaults when no row exists.
func (s *Store) Get(factionID uint) (Policy, error) {
	var row models.PermissionPolicy
	err := s.db.Where("faction_id = ?", factionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading policy for faction %d: %w", factionID, err)
	}
	return Policy{
		ActionRename:  row.RenameLevel,
		ActionKick:    row.KickLevel,
		ActionPromote: row.PromoteLevel,
		ActionDemote:  row.DemoteLevel,
		ActionInvite:  row.InviteLevel,
		ActionStrike:  row.StrikeLevel,
		ActionLeave:   row.LeaveLevel,
	}, nil
}

// Set updates a single action threshold, creating the row from the current
// effective policy when none exists.
func (s *Store) Set(factionID uint, action string, level int) error {
	current, err := s.Get(factionID)
	if err != nil {
		return err
	}
	if _, ok := current[action]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	current[action] = level
	return s.Replace(factionID, current)
}

// Replace upserts the faction's full policy.
func (s *Store) Replace(factionID uint, p Policy) error {
	row := models.PermissionPolicy{
		FactionID:    factionID,
		RenameLevel:  p[ActionRename],
		KickLevel:    p[ActionKick],
		PromoteLevel: p[ActionPromote],
		DemoteLevel:  p[ActionDemote],
		InviteLevel:  p[ActionInvite],
		StrikeLevel:  p[ActionStrike],
		LeaveLevel:   p[ActionLeave],
	}
	var existing models.PermissionPolicy
	err := s.db.Where("faction_id = ?", factionID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	return s.db.Save(&row).Error
}

// Reset restores the faction's policy to the system defaults.
func (s *Store) Reset(factionID uint) error {
	return s.Replace(factionID, Defaults())
}

// Delete removes the faction's policy row, used by the disband cascade.
func (s *Store) Delete(tx *gorm.DB, factionID uint) error {
	return tx.Where("faction_id = ?", factionID).Delete(&models.PermissionPolicy{}).Error
}

// Authorize reports whether actorLevel satisfies the faction's threshold
// for action. Unrecognized action kinds require level 5, which no rank can
// satisfy: unknown actions are denied rather than allowed.
func (s *Store) Authorize(factionID uint, actorLevel int, action string) (bool, error) {
	p, err := s.Get(factionID)
	if err != nil {
		return false, err
	}
	required, ok := p[action]
	if !ok {
		required = 5
	}
	return actorLevel >= required, nil
}
