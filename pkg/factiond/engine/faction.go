package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xyn4x/factiond/pkg/factiond/directory"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"gorm.io/gorm"
)

// RenameParams carries the mutable identity fields. Empty fields keep
// their current value.
type RenameParams struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Rename updates a faction's name and optionally its unique code. Actors
// are gated by the rename policy threshold; the force path is for the
// privileged external surface and skips membership and throttle checks.
func (e *Engine) Rename(ctx context.Context, actorID string, factionID uint, params RenameParams, force bool) (err error) {
	defer func() { e.observe("rename", err) }()

	var faction *models.Faction
	if force {
		faction, err = e.dir.FactionByID(factionID)
		if errors.Is(err, directory.ErrNotFound) {
			return fmt.Errorf("%w: faction %d", ErrNotFound, factionID)
		}
		if err != nil {
			return err
		}
	} else {
		if err = e.throttle(actorID, "rename"); err != nil {
			return err
		}
		var level int
		faction, _, level, err = e.actorIn(actorID)
		if err != nil {
			return err
		}
		if faction.ID != factionID {
			return fmt.Errorf("%w: not your faction", ErrUnauthorized)
		}
		if err = e.authorize(faction.ID, level, policy.ActionRename); err != nil {
			return err
		}
	}

	params.Name = strings.TrimSpace(params.Name)
	params.Code = strings.ToUpper(strings.TrimSpace(params.Code))
	if params.Name == "" && params.Code == "" {
		return fmt.Errorf("%w: nothing to rename", ErrValidation)
	}

	oldCode := faction.UniqueCode
	if params.Code != "" && params.Code != oldCode {
		if !codePattern.MatchString(params.Code) {
			return fmt.Errorf("%w: code must be 3 or 4 letters", ErrValidation)
		}
		taken, takenErr := e.dir.CodeTaken(params.Code)
		if takenErr != nil {
			return takenErr
		}
		if taken {
			return fmt.Errorf("%w: code %s already belongs to a faction", ErrConflict, params.Code)
		}
		faction.UniqueCode = params.Code
	}
	if params.Name != "" {
		faction.Name = params.Name
	}

	if err = e.db.Save(faction).Error; err != nil {
		return err
	}

	if faction.UniqueCode != oldCode {
		if roleErr := e.client.RenameRole(ctx, faction.RoleID, fmt.Sprintf("[%s]", faction.UniqueCode)); roleErr != nil {
			e.log.Warn().Err(roleErr).Msg("faction role rename failed")
		}
		if catErr := e.client.RenameChannel(ctx, faction.CategoryID, "〡"+faction.UniqueCode); catErr != nil {
			e.log.Warn().Err(catErr).Msg("category rename failed")
		}
		e.refreshNicknames(ctx, faction)
	}

	e.record(ctx, "rename", actorID, "", faction.UniqueCode,
		fmt.Sprintf("name=%s code=%s->%s", faction.Name, oldCode, faction.UniqueCode))
	return nil
}

// refreshNicknames reapplies the nickname convention to every member
// after a code change. Best effort per member.
func (e *Engine) refreshNicknames(ctx context.Context, faction *models.Faction) {
	members, err := e.dir.Members(faction.ID)
	if err != nil {
		e.log.Warn().Err(err).Msg("listing members for nickname refresh failed")
		return
	}
	for _, m := range members {
		user, resolveErr := e.client.ResolveUser(ctx, m.UserID)
		if resolveErr != nil {
			continue
		}
		e.advisory.SetNickname(ctx, m.UserID, memberNickname(faction.UniqueCode, user.Username))
	}
}

// Disband removes the faction and everything under it. Directory rows are
// deleted in one transaction, children first; platform teardown and member
// cleanup are best effort afterward, so a platform outage cannot leave
// durable rows behind.
func (e *Engine) Disband(ctx context.Context, actorID string, factionID uint, force bool) (err error) {
	defer func() { e.observe("disband", err) }()

	var faction *models.Faction
	if force {
		faction, err = e.dir.FactionByID(factionID)
		if errors.Is(err, directory.ErrNotFound) {
			return fmt.Errorf("%w: faction %d", ErrNotFound, factionID)
		}
		if err != nil {
			return err
		}
	} else {
		if err = e.throttle(actorID, "disband"); err != nil {
			return err
		}
		faction, _, _, err = e.actorIn(actorID)
		if err != nil {
			return err
		}
		if faction.ID != factionID {
			return fmt.Errorf("%w: not your faction", ErrUnauthorized)
		}
		if faction.OwnerUserID != actorID {
			return fmt.Errorf("%w: only the owner can disband", ErrUnauthorized)
		}
	}

	members, err := e.dir.Members(faction.ID)
	if err != nil {
		return err
	}
	channels, err := e.dir.Channels(faction.ID)
	if err != nil {
		return err
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Where("faction_id = ?", faction.ID).Delete(&models.Strike{}).Error; txErr != nil {
			return txErr
		}
		if txErr := tx.Where("faction_id = ?", faction.ID).Delete(&models.Membership{}).Error; txErr != nil {
			return txErr
		}
		if txErr := tx.Where("faction_id = ?", faction.ID).Delete(&models.ChannelBinding{}).Error; txErr != nil {
			return txErr
		}
		if txErr := e.policies.Delete(tx, faction.ID); txErr != nil {
			return txErr
		}
		return tx.Delete(&models.Faction{}, faction.ID).Error
	})
	if err != nil {
		return fmt.Errorf("disbanding faction %s: %w", faction.UniqueCode, err)
	}

	for _, c := range channels {
		if delErr := e.client.DeleteChannel(ctx, c.ChannelID); delErr != nil {
			e.log.Warn().Err(delErr).Str("channel_id", c.ChannelID).Msg("channel teardown failed")
		}
	}
	if faction.CategoryID != "" {
		if delErr := e.client.DeleteChannel(ctx, faction.CategoryID); delErr != nil {
			e.log.Warn().Err(delErr).Msg("category teardown failed")
		}
	}
	for _, roleID := range []string{faction.RoleID, faction.MidcommRoleID, faction.HicommRoleID, faction.DirectorRoleID} {
		if roleID == "" {
			continue
		}
		if delErr := e.client.DeleteRole(ctx, roleID); delErr != nil {
			e.log.Warn().Err(delErr).Str("role_id", roleID).Msg("role teardown failed")
		}
	}
	for _, m := range members {
		e.stripAllRoles(ctx, faction, m.UserID)
		e.advisory.SetNickname(ctx, m.UserID, "")
	}

	e.record(ctx, "disband", actorID, "", faction.UniqueCode,
		fmt.Sprintf("%d members", len(members)))
	if e.metrics != nil {
		e.metrics.FactionCount.Dec()
	}
	return nil
}
