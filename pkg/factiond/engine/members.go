package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xyn4x/factiond/pkg/factiond/directory"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
	"gorm.io/gorm"
)

// targetIn resolves the target's membership in the actor's faction.
func (e *Engine) targetIn(factionID uint, targetID string) (*models.Membership, int, error) {
	m, err := e.dir.Member(factionID, targetID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, 0, fmt.Errorf("%w: %s is not in this faction", ErrNotFound, targetID)
	}
	if err != nil {
		return nil, 0, err
	}
	return m, rank.LevelOf(m.Rank), nil
}

// Promote raises the target to destRank. The target must outrank nobody
// the actor doesn't, the destination must be strictly above the target's
// current rank, and owner is never reachable this way.
func (e *Engine) Promote(ctx context.Context, actorID, targetID, destRank string) (err error) {
	defer func() { e.observe("promote", err) }()

	if err = e.throttle(actorID, "promote"); err != nil {
		return err
	}
	if actorID == targetID {
		return fmt.Errorf("%w: you cannot promote yourself", ErrValidation)
	}
	faction, _, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return err
	}
	if err = e.authorize(faction.ID, actorLevel, policy.ActionPromote); err != nil {
		return err
	}
	target, targetLevel, err := e.targetIn(faction.ID, targetID)
	if err != nil {
		return err
	}
	if targetLevel >= actorLevel {
		return fmt.Errorf("%w: target outranks or equals you", ErrUnauthorized)
	}

	destRank = strings.ToLower(strings.TrimSpace(destRank))
	if !rank.IsPromotable(destRank) {
		return fmt.Errorf("%w: %s is not a promotable rank", ErrValidation, destRank)
	}
	destLevel := rank.LevelOf(destRank)
	if destLevel <= targetLevel {
		return fmt.Errorf("%w: %s is not above the target's current rank", ErrValidation, destRank)
	}

	if err = e.setRank(ctx, faction, target, destLevel); err != nil {
		return err
	}
	e.record(ctx, "promote", actorID, targetID, faction.UniqueCode, destRank)
	return nil
}

// Demote lowers the target to destRank, which must be strictly below the
// target's current rank. Owner cannot be a destination or a target.
func (e *Engine) Demote(ctx context.Context, actorID, targetID, destRank string) (err error) {
	defer func() { e.observe("demote", err) }()

	if err = e.throttle(actorID, "demote"); err != nil {
		return err
	}
	if actorID == targetID {
		return fmt.Errorf("%w: you cannot demote yourself", ErrValidation)
	}
	faction, _, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return err
	}
	if err = e.authorize(faction.ID, actorLevel, policy.ActionDemote); err != nil {
		return err
	}
	target, targetLevel, err := e.targetIn(faction.ID, targetID)
	if err != nil {
		return err
	}
	if targetLevel >= actorLevel {
		return fmt.Errorf("%w: target outranks or equals you", ErrUnauthorized)
	}

	destRank = strings.ToLower(strings.TrimSpace(destRank))
	if !rank.Valid(destRank) || destRank == rank.Order[rank.Owner] {
		return fmt.Errorf("%w: %s is not a valid demotion rank", ErrValidation, destRank)
	}
	destLevel := rank.LevelOf(destRank)
	if destLevel >= targetLevel {
		return fmt.Errorf("%w: %s is not below the target's current rank", ErrValidation, destRank)
	}

	if err = e.setRank(ctx, faction, target, destLevel); err != nil {
		return err
	}
	e.record(ctx, "demote", actorID, targetID, faction.UniqueCode, destRank)
	return nil
}

// setRank persists the rank change and reassigns platform roles.
func (e *Engine) setRank(ctx context.Context, faction *models.Faction, target *models.Membership, destLevel int) error {
	target.Rank = rank.Order[destLevel]
	if err := e.db.Save(target).Error; err != nil {
		return err
	}
	e.assignRankRoles(ctx, faction, target.UserID, destLevel)
	return nil
}

// Kick removes a lower-ranked member, clearing their strikes and platform
// state with them.
func (e *Engine) Kick(ctx context.Context, actorID, targetID, reason string) (err error) {
	defer func() { e.observe("kick", err) }()

	if err = e.throttle(actorID, "kick"); err != nil {
		return err
	}
	if actorID == targetID {
		return fmt.Errorf("%w: you cannot kick yourself", ErrValidation)
	}
	faction, _, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return err
	}
	if err = e.authorize(faction.ID, actorLevel, policy.ActionKick); err != nil {
		return err
	}
	target, targetLevel, err := e.targetIn(faction.ID, targetID)
	if err != nil {
		return err
	}
	if targetLevel >= actorLevel {
		return fmt.Errorf("%w: target outranks or equals you", ErrUnauthorized)
	}

	if err = e.removeMember(ctx, faction, target); err != nil {
		return err
	}
	e.advisory.SendDM(ctx, targetID,
		fmt.Sprintf("You were removed from [%s] %s", faction.UniqueCode, faction.Name))
	e.record(ctx, "kick", actorID, targetID, faction.UniqueCode, reason)
	return nil
}

// Leave removes the actor from their faction. The owner must transfer or
// disband instead.
func (e *Engine) Leave(ctx context.Context, actorID string) (err error) {
	defer func() { e.observe("leave", err) }()

	if err = e.throttle(actorID, "leave"); err != nil {
		return err
	}
	faction, membership, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return err
	}
	if faction.OwnerUserID == actorID {
		return fmt.Errorf("%w: transfer ownership or disband before leaving", ErrConflict)
	}
	if err = e.authorize(faction.ID, actorLevel, policy.ActionLeave); err != nil {
		return err
	}

	if err = e.removeMember(ctx, faction, membership); err != nil {
		return err
	}
	e.record(ctx, "leave", actorID, "", faction.UniqueCode, "")
	return nil
}

// removeMember deletes the membership and the member's strikes in one
// transaction, then cleans up platform state best effort.
func (e *Engine) removeMember(ctx context.Context, faction *models.Faction, m *models.Membership) error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Where("faction_id = ? AND user_id = ?", faction.ID, m.UserID).
			Delete(&models.Strike{}).Error; txErr != nil {
			return txErr
		}
		return tx.Delete(&models.Membership{}, m.ID).Error
	})
	if err != nil {
		return err
	}
	e.stripAllRoles(ctx, faction, m.UserID)
	e.advisory.SetNickname(ctx, m.UserID, "")
	return nil
}

// Transfer moves ownership to an existing member. The three writes land
// in one transaction so no queryable state ever shows zero or two owners.
func (e *Engine) Transfer(ctx context.Context, actorID, targetID string) (err error) {
	defer func() { e.observe("transfer", err) }()

	if err = e.throttle(actorID, "transfer"); err != nil {
		return err
	}
	if actorID == targetID {
		return fmt.Errorf("%w: you already own this faction", ErrValidation)
	}
	faction, actorMembership, _, err := e.actorIn(actorID)
	if err != nil {
		return err
	}
	if faction.OwnerUserID != actorID {
		return fmt.Errorf("%w: only the owner can transfer ownership", ErrUnauthorized)
	}
	target, _, err := e.targetIn(faction.ID, targetID)
	if err != nil {
		return err
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Model(&models.Membership{}).Where("id = ?", actorMembership.ID).
			Update("rank", rank.Order[rank.Hicomm]).Error; txErr != nil {
			return txErr
		}
		if txErr := tx.Model(&models.Membership{}).Where("id = ?", target.ID).
			Update("rank", rank.Order[rank.Owner]).Error; txErr != nil {
			return txErr
		}
		return tx.Model(&models.Faction{}).Where("id = ?", faction.ID).
			Update("owner_user_id", targetID).Error
	})
	if err != nil {
		return fmt.Errorf("transferring faction %s: %w", faction.UniqueCode, err)
	}

	e.assignRankRoles(ctx, faction, actorID, rank.Hicomm)
	e.assignRankRoles(ctx, faction, targetID, rank.Owner)
	e.advisory.SendDM(ctx, targetID,
		fmt.Sprintf("You are now the owner of [%s] %s", faction.UniqueCode, faction.Name))
	e.record(ctx, "transfer", actorID, targetID, faction.UniqueCode, "")
	return nil
}

var numericID = regexp.MustCompile(`^\d+$`)

// InviteResult buckets per-identifier outcomes of a bulk invite.
type InviteResult struct {
	Success          []string `json:"success"`
	Failed           []string `json:"failed"`
	AlreadyInFaction []string `json:"already_in_faction"`
	Invalid          []string `json:"invalid"`
}

// InviteBulk admits up to ten users by platform id. Each identifier is
// processed independently; one bad id never aborts the rest.
func (e *Engine) InviteBulk(ctx context.Context, actorID string, userIDs []string) (result *InviteResult, err error) {
	defer func() { e.observe("invite", err) }()

	if err = e.throttle(actorID, "invite"); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: no user ids given", ErrValidation)
	}
	if len(userIDs) > 10 {
		return nil, fmt.Errorf("%w: at most 10 users per invite", ErrValidation)
	}
	faction, _, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return nil, err
	}
	if err = e.authorize(faction.ID, actorLevel, policy.ActionInvite); err != nil {
		return nil, err
	}

	result = &InviteResult{}
	for _, raw := range userIDs {
		id := strings.TrimSpace(raw)
		if !numericID.MatchString(id) {
			result.Invalid = append(result.Invalid, raw)
			continue
		}
		if _, _, memberErr := e.dir.FactionOfMember(id); memberErr == nil {
			result.AlreadyInFaction = append(result.AlreadyInFaction, id)
			continue
		}
		user, resolveErr := e.client.ResolveUser(ctx, id)
		if resolveErr != nil {
			result.Failed = append(result.Failed, id)
			continue
		}
		membership := models.Membership{FactionID: faction.ID, UserID: id, Rank: rank.Order[rank.Member]}
		if createErr := e.db.Create(&membership).Error; createErr != nil {
			e.log.Warn().Err(createErr).Str("user_id", id).Msg("invite insert failed")
			result.Failed = append(result.Failed, id)
			continue
		}
		if roleErr := e.client.AddRole(ctx, id, faction.RoleID); roleErr != nil {
			e.log.Warn().Err(roleErr).Str("user_id", id).Msg("faction role grant failed")
		}
		e.assignRankRoles(ctx, faction, id, rank.Member)
		e.advisory.SetNickname(ctx, id, memberNickname(faction.UniqueCode, user.Username))
		e.advisory.SendDM(ctx, id,
			fmt.Sprintf("You joined [%s] %s", faction.UniqueCode, faction.Name))
		result.Success = append(result.Success, id)
	}

	e.record(ctx, "invite", actorID, "", faction.UniqueCode,
		fmt.Sprintf("%d joined, %d failed", len(result.Success), len(result.Failed)+len(result.Invalid)+len(result.AlreadyInFaction)))
	return result, nil
}
