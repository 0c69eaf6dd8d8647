package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xyn4x/factiond/pkg/factiond/cooldown"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
	"gorm.io/gorm"
)

// IssueStrike records a disciplinary strike against a lower-ranked member
// of the actor's faction. One strike per (actor, target) pair per 24 hours.
func (e *Engine) IssueStrike(ctx context.Context, actorID, targetID, reason string) (strike *models.Strike, err error) {
	defer func() { e.observe("strike_issue", err) }()

	if err = e.throttle(actorID, "strike"); err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, fmt.Errorf("%w: you cannot strike yourself", ErrValidation)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required", ErrValidation)
	}

	faction, _, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return nil, err
	}
	if err = e.authorize(faction.ID, actorLevel, policy.ActionStrike); err != nil {
		return nil, err
	}
	_, targetLevel, err := e.targetIn(faction.ID, targetID)
	if err != nil {
		return nil, err
	}
	if !rank.CanStrike(actorLevel, targetLevel) {
		return nil, fmt.Errorf("%w: you can only strike members below your rank", ErrUnauthorized)
	}

	pairKey := cooldown.PairKey(actorID, targetID)
	if remaining := e.strikeCooldowns.Remaining(pairKey); remaining > 0 {
		return nil, fmt.Errorf("%w: you already struck this member, retry in %s",
			ErrCooldown, remaining.Round(time.Minute))
	}

	strike = &models.Strike{
		FactionID: faction.ID,
		UserID:    targetID,
		Reason:    reason,
		IssuerID:  actorID,
	}
	if err = e.db.Create(strike).Error; err != nil {
		return nil, err
	}
	e.strikeCooldowns.Touch(pairKey)

	count, countErr := e.dir.StrikeCount(faction.ID, targetID)
	if countErr != nil {
		count = 0
	}
	e.advisory.SendDM(ctx, targetID,
		fmt.Sprintf("You received a strike in [%s]: %s (total %d)", faction.UniqueCode, reason, count))
	e.record(ctx, "strike_issue", actorID, targetID, faction.UniqueCode, reason)
	return strike, nil
}

// RemoveStrike deletes one strike by id. Director or above only; the
// floor is fixed and ignores the faction's policy on purpose.
func (e *Engine) RemoveStrike(ctx context.Context, actorID string, strikeID uint) (err error) {
	defer func() { e.observe("strike_remove", err) }()

	if err = e.throttle(actorID, "strike_remove"); err != nil {
		return err
	}
	faction, _, actorLevel, err := e.actorIn(actorID)
	if err != nil {
		return err
	}
	if actorLevel < rank.Director {
		return fmt.Errorf("%w: director rank or above required", ErrUnauthorized)
	}

	var strike models.Strike
	lookupErr := e.db.Where("id = ? AND faction_id = ?", strikeID, faction.ID).First(&strike).Error
	if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: strike %d", ErrNotFound, strikeID)
	}
	if lookupErr != nil {
		return lookupErr
	}

	if err = e.db.Delete(&models.Strike{}, strike.ID).Error; err != nil {
		return err
	}
	e.record(ctx, "strike_remove", actorID, strike.UserID, faction.UniqueCode, strike.Reason)
	return nil
}
