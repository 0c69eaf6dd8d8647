package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xyn4x/factiond/pkg/factiond/audit"
	"github.com/xyn4x/factiond/pkg/factiond/cooldown"
	"github.com/xyn4x/factiond/pkg/factiond/directory"
	"github.com/xyn4x/factiond/pkg/factiond/metrics"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
	"gorm.io/gorm"
)

// Error kinds the HTTP layer maps to status codes.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
	ErrCooldown     = errors.New("on cooldown")
	ErrConflict     = errors.New("conflict")
)

// Engine implements every faction lifecycle operation. All authorization,
// throttling, and platform side effects funnel through it; HTTP handlers
// stay thin.
type Engine struct {
	db       *gorm.DB
	dir      *directory.Directory
	policies *policy.Store
	client   platform.Client
	advisory *platform.Advisory
	audit    *audit.Recorder
	metrics  *metrics.Metrics
	log      zerolog.Logger

	// Guild-global rank role ids by level 0..4.
	rankRoles      map[int]string
	adminChannelID string

	commandCooldowns *cooldown.Tracker
	strikeCooldowns  *cooldown.Tracker

	pending *pendingTable
	now     func() time.Time
}

// Options configures an Engine.
type Options struct {
	DB             *gorm.DB
	Client         platform.Client
	Audit          *audit.Recorder
	Metrics        *metrics.Metrics
	Log            zerolog.Logger
	RankRoleIDs    map[int]string
	AdminChannelID string
	// Clock overrides time.Now, for tests. Optional.
	Clock func() time.Time
}

// New creates an engine. The pending-request table and cooldown trackers
// start empty; a restart forgets both, which is accepted behavior.
func New(opts Options) *Engine {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		db:               opts.DB,
		dir:              directory.New(opts.DB),
		policies:         policy.NewStore(opts.DB),
		client:           opts.Client,
		advisory:         platform.NewAdvisory(opts.Client, opts.Log),
		audit:            opts.Audit,
		metrics:          opts.Metrics,
		log:              opts.Log,
		rankRoles:        opts.RankRoleIDs,
		adminChannelID:   opts.AdminChannelID,
		commandCooldowns: cooldown.NewTrackerWithClock(cooldown.CommandWindow, now),
		strikeCooldowns:  cooldown.NewTrackerWithClock(cooldown.StrikeWindow, now),
		pending:          newPendingTable(now),
		now:              now,
	}
}

// Directory exposes the read layer for handlers that only query.
func (e *Engine) Directory() *directory.Directory { return e.dir }

// Policies exposes the permission policy store.
func (e *Engine) Policies() *policy.Store { return e.policies }

// throttle rejects a second invocation of the same action by the same
// actor inside the command window. Force paths bypass it.
func (e *Engine) throttle(actorID, action string) error {
	key := cooldown.PairKey(actorID, action)
	if remaining := e.commandCooldowns.Remaining(key); remaining > 0 {
		return fmt.Errorf("%w: retry in %s", ErrCooldown, remaining.Round(time.Millisecond))
	}
	e.commandCooldowns.Touch(key)
	return nil
}

// actorIn resolves the actor's membership and rank level in their faction.
func (e *Engine) actorIn(actorID string) (*models.Faction, *models.Membership, int, error) {
	faction, membership, err := e.dir.FactionOfMember(actorID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, nil, 0, fmt.Errorf("%w: you are not in a faction", ErrUnauthorized)
	}
	if err != nil {
		return nil, nil, 0, err
	}
	return faction, membership, rank.LevelOf(membership.Rank), nil
}

// authorize checks the faction's policy threshold for the action.
func (e *Engine) authorize(factionID uint, actorLevel int, action string) error {
	ok, err := e.policies.Authorize(factionID, actorLevel, action)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: your rank cannot %s", ErrUnauthorized, action)
	}
	return nil
}

// roleSet maps a faction's stored role ids into the preset builder's shape.
func roleSet(f *models.Faction) platform.RoleSet {
	return platform.RoleSet{
		Member:   f.RoleID,
		Midcomm:  f.MidcommRoleID,
		Hicomm:   f.HicommRoleID,
		Director: f.DirectorRoleID,
	}
}

// factionMirrorRoleID returns the faction-local role mirroring a rank
// level, or empty when the level has no mirror.
func factionMirrorRoleID(f *models.Faction, level int) string {
	switch level {
	case 1:
		return f.MidcommRoleID
	case 2:
		return f.HicommRoleID
	case 3:
		return f.DirectorRoleID
	default:
		return ""
	}
}

// assignRankRoles strips every rank role the user may hold, global and
// faction-local, then grants the set for the new level. Individual role
// removals are advisory; the grant of the new roles is too, since role
// state is reconstructable and must not fail the directory mutation.
func (e *Engine) assignRankRoles(ctx context.Context, f *models.Faction, userID string, newLevel int) {
	for level := 0; level <= 4; level++ {
		if id := e.rankRoles[level]; id != "" {
			if err := e.client.RemoveRole(ctx, userID, id); err != nil {
				e.log.Warn().Err(err).Str("user_id", userID).Msg("rank role removal failed")
			}
		}
		if id := factionMirrorRoleID(f, level); id != "" {
			if err := e.client.RemoveRole(ctx, userID, id); err != nil {
				e.log.Warn().Err(err).Str("user_id", userID).Msg("mirror role removal failed")
			}
		}
	}
	if id := e.rankRoles[newLevel]; id != "" {
		if err := e.client.AddRole(ctx, userID, id); err != nil {
			e.log.Warn().Err(err).Str("user_id", userID).Msg("rank role grant failed")
		}
	}
	if id := factionMirrorRoleID(f, newLevel); id != "" {
		if err := e.client.AddRole(ctx, userID, id); err != nil {
			e.log.Warn().Err(err).Str("user_id", userID).Msg("mirror role grant failed")
		}
	}
}

// stripAllRoles removes the faction role and every rank role from the
// user, advisory, used on kick, leave, and disband.
func (e *Engine) stripAllRoles(ctx context.Context, f *models.Faction, userID string) {
	roles := []string{f.RoleID, f.MidcommRoleID, f.HicommRoleID, f.DirectorRoleID}
	for level := 0; level <= 4; level++ {
		roles = append(roles, e.rankRoles[level])
	}
	for _, id := range roles {
		if id == "" {
			continue
		}
		if err := e.client.RemoveRole(ctx, userID, id); err != nil {
			e.log.Warn().Err(err).Str("user_id", userID).Str("role_id", id).Msg("role removal failed")
		}
	}
}

// memberNickname is the display convention applied on join and rename.
func memberNickname(code, username string) string {
	return fmt.Sprintf("[%s] %s", code, username)
}

func (e *Engine) record(ctx context.Context, action, actorID, targetID, factionCode, detail string) {
	e.audit.Record(ctx, audit.Entry{
		Action:      action,
		ActorID:     actorID,
		TargetID:    targetID,
		FactionCode: factionCode,
		Detail:      detail,
	})
}

func (e *Engine) observe(action string, err error) {
	if e.metrics != nil {
		e.metrics.Observe(action, err)
	}
}
