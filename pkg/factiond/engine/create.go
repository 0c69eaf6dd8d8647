package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
	"gorm.io/gorm"
)

var (
	codePattern  = regexp.MustCompile(`^[A-Z]{3,4}$`)
	colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
)

// CreationRequest is a faction proposal awaiting admin review. Requests
// are held in memory only; a restart discards them.
type CreationRequest struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	GroupURL    string    `json:"group_url"`
	Color       string    `json:"color"`
	RequesterID string    `json:"requester_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// pendingTable holds creation requests keyed by proposed code. A second
// request for the same code overwrites the first.
type pendingTable struct {
	mu  sync.Mutex
	m   map[string]CreationRequest
	now func() time.Time
}

func newPendingTable(now func() time.Time) *pendingTable {
	return &pendingTable{m: make(map[string]CreationRequest), now: now}
}

func (p *pendingTable) put(r CreationRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[r.Code] = r
}

// take removes and returns the request, consuming it.
func (p *pendingTable) take(code string) (CreationRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.m[code]
	if ok {
		delete(p.m, code)
	}
	return r, ok
}

func (p *pendingTable) list() []CreationRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CreationRequest, 0, len(p.m))
	for _, r := range p.m {
		out = append(out, r)
	}
	return out
}

// defaultChannels is the set every faction starts with.
var defaultChannels = []struct {
	name   string
	preset platform.AccessPreset
}{
	{"announcements", platform.PresetAnnouncements},
	{"documents", platform.PresetAnnouncements},
	{"deployment", platform.PresetAnnouncements},
	{"chat", platform.PresetAllReadWrite},
	{"voice", platform.PresetVoiceAll},
}

// SubmitCreationRequest records a faction proposal from requesterID. The
// requester must not already own or belong to a faction, the code must be
// 3 or 4 letters and unused, and the color must be a hex triplet.
func (e *Engine) SubmitCreationRequest(ctx context.Context, requesterID string, req CreationRequest) (err error) {
	defer func() { e.observe("create_request", err) }()

	if err = e.throttle(requesterID, "create"); err != nil {
		return err
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("%w: faction name is required", ErrValidation)
	}
	if !codePattern.MatchString(req.Code) {
		return fmt.Errorf("%w: code must be 3 or 4 letters", ErrValidation)
	}
	if req.Color != "" && !colorPattern.MatchString(req.Color) {
		return fmt.Errorf("%w: color must be a hex value like #1a2b3c", ErrValidation)
	}

	taken, err := e.dir.CodeTaken(req.Code)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: code %s already belongs to a faction", ErrConflict, req.Code)
	}
	if _, _, lookupErr := e.dir.FactionOfMember(requesterID); lookupErr == nil {
		return fmt.Errorf("%w: leave your current faction first", ErrConflict)
	}

	req.RequesterID = requesterID
	req.RequestedAt = e.now()
	e.pending.put(req)

	e.advisory.SendChannelMessage(ctx, e.adminChannelID,
		fmt.Sprintf("Faction request [%s] %q from %s awaits review", req.Code, req.Name, requesterID))
	e.log.Info().Str("code", req.Code).Str("requester_id", requesterID).Msg("creation request submitted")
	return nil
}

// PendingRequests lists requests awaiting review.
func (e *Engine) PendingRequests() []CreationRequest {
	return e.pending.list()
}

// Approve consumes the pending request for code and builds the faction:
// platform roles and category first, then the directory rows in one
// transaction. Platform resources created before a later failure are not
// rolled back; the error names the step that failed.
func (e *Engine) Approve(ctx context.Context, adminID, code string) (f *models.Faction, err error) {
	defer func() { e.observe("approve", err) }()

	code = strings.ToUpper(strings.TrimSpace(code))
	req, ok := e.pending.take(code)
	if !ok {
		return nil, fmt.Errorf("%w: no pending request for code %s", ErrNotFound, code)
	}

	owner, err := e.client.ResolveUser(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("resolving requester %s: %w", req.RequesterID, err)
	}
	taken, err := e.dir.CodeTaken(code)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: code %s was claimed while pending", ErrConflict, code)
	}
	// The requester was unaffiliated at submit time but may have joined a
	// faction while the request sat in review. Re-check before insert:
	// membership exclusivity spans all factions.
	if _, _, lookupErr := e.dir.FactionOfMember(req.RequesterID); lookupErr == nil {
		return nil, fmt.Errorf("%w: requester %s joined a faction while pending", ErrConflict, req.RequesterID)
	}

	memberRole, err := e.client.CreateRole(ctx, fmt.Sprintf("[%s]", code), req.Color)
	if err != nil {
		return nil, fmt.Errorf("creating faction role: %w", err)
	}
	midcommRole, err := e.client.CreateRole(ctx, fmt.Sprintf("[%s] Midcomm", code), req.Color)
	if err != nil {
		return nil, fmt.Errorf("creating midcomm role: %w", err)
	}
	hicommRole, err := e.client.CreateRole(ctx, fmt.Sprintf("[%s] Hicomm", code), req.Color)
	if err != nil {
		return nil, fmt.Errorf("creating hicomm role: %w", err)
	}
	directorRole, err := e.client.CreateRole(ctx, fmt.Sprintf("[%s] Director", code), req.Color)
	if err != nil {
		return nil, fmt.Errorf("creating director role: %w", err)
	}
	category, err := e.client.CreateCategory(ctx, "〡"+code)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	faction := &models.Faction{
		Name:           req.Name,
		UniqueCode:     code,
		Type:           req.Type,
		GroupURL:       req.GroupURL,
		Color:          req.Color,
		OwnerUserID:    req.RequesterID,
		RoleID:         memberRole.ID,
		MidcommRoleID:  midcommRole.ID,
		HicommRoleID:   hicommRole.ID,
		DirectorRoleID: directorRole.ID,
		CategoryID:     category.ID,
	}

	roles := roleSet(faction)
	var bindings []models.ChannelBinding
	for _, def := range defaultChannels {
		kind, overwrites, buildErr := def.preset.Build(roles)
		if buildErr != nil {
			return nil, buildErr
		}
		ch, chanErr := e.client.CreateChannel(ctx, category.ID, def.name, kind, overwrites)
		if chanErr != nil {
			return nil, fmt.Errorf("creating channel %s: %w", def.name, chanErr)
		}
		bindings = append(bindings, models.ChannelBinding{
			Kind:      string(kind),
			ChannelID: ch.ID,
			Name:      def.name,
		})
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(faction).Error; txErr != nil {
			return txErr
		}
		defaults := policy.Defaults()
		p := models.PermissionPolicy{
			FactionID:    faction.ID,
			RenameLevel:  defaults[policy.ActionRename],
			KickLevel:    defaults[policy.ActionKick],
			PromoteLevel: defaults[policy.ActionPromote],
			DemoteLevel:  defaults[policy.ActionDemote],
			InviteLevel:  defaults[policy.ActionInvite],
			StrikeLevel:  defaults[policy.ActionStrike],
			LeaveLevel:   defaults[policy.ActionLeave],
		}
		if txErr := tx.Create(&p).Error; txErr != nil {
			return txErr
		}
		membership := models.Membership{FactionID: faction.ID, UserID: req.RequesterID, Rank: rank.Order[rank.Owner]}
		if txErr := tx.Create(&membership).Error; txErr != nil {
			return txErr
		}
		for i := range bindings {
			bindings[i].FactionID = faction.ID
			if txErr := tx.Create(&bindings[i]).Error; txErr != nil {
				return txErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persisting faction %s: %w", code, err)
	}

	if roleErr := e.client.AddRole(ctx, req.RequesterID, memberRole.ID); roleErr != nil {
		e.log.Warn().Err(roleErr).Msg("faction role grant failed")
	}
	e.assignRankRoles(ctx, faction, req.RequesterID, 4)
	e.advisory.SetNickname(ctx, req.RequesterID, memberNickname(code, owner.Username))
	e.advisory.SendDM(ctx, req.RequesterID,
		fmt.Sprintf("Your faction [%s] %s was approved", code, req.Name))

	e.record(ctx, "approve", adminID, req.RequesterID, code, req.Name)
	if e.metrics != nil {
		e.metrics.FactionCount.Inc()
	}
	return faction, nil
}

// Deny consumes the pending request without side effects beyond a
// best-effort notice to the requester.
func (e *Engine) Deny(ctx context.Context, adminID, code, reason string) (err error) {
	defer func() { e.observe("deny", err) }()

	code = strings.ToUpper(strings.TrimSpace(code))
	req, ok := e.pending.take(code)
	if !ok {
		return fmt.Errorf("%w: no pending request for code %s", ErrNotFound, code)
	}

	msg := fmt.Sprintf("Your faction request [%s] was denied", code)
	if reason != "" {
		msg += ": " + reason
	}
	e.advisory.SendDM(ctx, req.RequesterID, msg)
	e.record(ctx, "deny", adminID, req.RequesterID, code, reason)
	return nil
}
