package importexport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
	"gorm.io/gorm"
)

// Handler handles bulk import/export requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new import/export handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// FactionInfo is the identity block of a faction document
type FactionInfo struct {
	Name       string `json:"name"`
	UniqueCode string `json:"unique_code"`
	Type       string `json:"type"`
	GroupURL   string `json:"group_url,omitempty"`
	Color      string `json:"color,omitempty"`
	OwnerID    string `json:"owner_id"`
}

// PlatformObjects carries the platform resource ids a faction is bound to
type PlatformObjects struct {
	RoleID         string `json:"role_id"`
	MidcommRoleID  string `json:"midcomm_role_id,omitempty"`
	HicommRoleID   string `json:"hicomm_role_id,omitempty"`
	DirectorRoleID string `json:"director_role_id,omitempty"`
	CategoryID     string `json:"category_id"`
}

// ChannelEntry is one channel binding in a faction document
type ChannelEntry struct {
	Kind      string `json:"kind"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

// MemberEntry is one membership in a faction document
type MemberEntry struct {
	UserID   string     `json:"user_id"`
	Rank     string     `json:"rank"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// StrikeEntry is one strike in a faction document
type StrikeEntry struct {
	UserID   string     `json:"user_id"`
	Reason   string     `json:"reason"`
	IssuerID string     `json:"issuer_id"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

// FactionDocument is one faction in the interchange format. Blacklist and
// relations blocks appear in documents from older exports; they have no
// corresponding storage here and are ignored with a warning.
type FactionDocument struct {
	FactionInfo     FactionInfo     `json:"faction_info"`
	PlatformObjects PlatformObjects `json:"discord_objects"`
	Channels        []ChannelEntry  `json:"channels,omitempty"`
	Members         []MemberEntry   `json:"members,omitempty"`
	Strikes         []StrikeEntry   `json:"strikes,omitempty"`
	Blacklist       json.RawMessage `json:"blacklist,omitempty"`
	Relations       json.RawMessage `json:"relations,omitempty"`
	Permissions     map[string]int  `json:"permissions,omitempty"`
}

// ImportRequest is the bulk import payload
type ImportRequest struct {
	Factions []FactionDocument `json:"factions" binding:"required"`
}

// ImportResult summarizes an import run. Dry runs produce the same shape
// without mutating anything.
type ImportResult struct {
	ImportedFactions []string `json:"imported_factions"`
	Warnings         []string `json:"warnings"`
	Errors           []string `json:"errors"`
	DryRun           bool     `json:"dry_run"`
}

// validate checks one document and collects warnings. Returns a non-empty
// error string when the document cannot be imported at all.
func (h *Handler) validate(doc *FactionDocument, result *ImportResult) string {
	code := strings.ToUpper(strings.TrimSpace(doc.FactionInfo.UniqueCode))
	if code == "" {
		return "faction with empty unique code"
	}
	if doc.FactionInfo.Name == "" {
		return fmt.Sprintf("[%s]: empty name", code)
	}
	if doc.FactionInfo.OwnerID == "" {
		return fmt.Sprintf("[%s]: missing owner id", code)
	}

	if len(doc.Blacklist) > 0 && string(doc.Blacklist) != "null" && string(doc.Blacklist) != "[]" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("[%s]: blacklist block ignored", code))
	}
	if len(doc.Relations) > 0 && string(doc.Relations) != "null" && string(doc.Relations) != "[]" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("[%s]: relations block ignored", code))
	}
	for action := range doc.Permissions {
		known := false
		for _, a := range policy.Actions {
			if action == a {
				known = true
				break
			}
		}
		if !known {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("[%s]: unknown permission action %q ignored", code, action))
		}
	}
	for _, m := range doc.Members {
		if !rank.Valid(m.Rank) && m.Rank != "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("[%s]: member %s has unknown rank %q, will join as member", code, m.UserID, m.Rank))
		}
	}
	return ""
}

// importOne replaces or creates one faction from its document inside tx.
func (h *Handler) importOne(tx *gorm.DB, doc *FactionDocument, result *ImportResult) error {
	code := strings.ToUpper(strings.TrimSpace(doc.FactionInfo.UniqueCode))

	// A same-code faction is fully replaced.
	var existing models.Faction
	err := tx.Where("unique_code = ?", code).First(&existing).Error
	if err == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("[%s]: replaced existing faction", code))
		for _, model := range []interface{}{&models.Strike{}, &models.Membership{}, &models.ChannelBinding{}, &models.PermissionPolicy{}} {
			if delErr := tx.Where("faction_id = ?", existing.ID).Delete(model).Error; delErr != nil {
				return delErr
			}
		}
		if delErr := tx.Delete(&models.Faction{}, existing.ID).Error; delErr != nil {
			return delErr
		}
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	faction := models.Faction{
		Name:           doc.FactionInfo.Name,
		UniqueCode:     code,
		Type:           doc.FactionInfo.Type,
		GroupURL:       doc.FactionInfo.GroupURL,
		Color:          doc.FactionInfo.Color,
		OwnerUserID:    doc.FactionInfo.OwnerID,
		RoleID:         doc.PlatformObjects.RoleID,
		MidcommRoleID:  doc.PlatformObjects.MidcommRoleID,
		HicommRoleID:   doc.PlatformObjects.HicommRoleID,
		DirectorRoleID: doc.PlatformObjects.DirectorRoleID,
		CategoryID:     doc.PlatformObjects.CategoryID,
	}
	if err := tx.Create(&faction).Error; err != nil {
		return err
	}

	// Permissions: document values over defaults, unknown actions dropped.
	p := policy.Defaults()
	for action, level := range doc.Permissions {
		if _, ok := p[action]; ok {
			p[action] = level
		}
	}
	row := models.PermissionPolicy{
		FactionID:    faction.ID,
		RenameLevel:  p[policy.ActionRename],
		KickLevel:    p[policy.ActionKick],
		PromoteLevel: p[policy.ActionPromote],
		DemoteLevel:  p[policy.ActionDemote],
		InviteLevel:  p[policy.ActionInvite],
		StrikeLevel:  p[policy.ActionStrike],
		LeaveLevel:   p[policy.ActionLeave],
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}

	ownerSeen := false
	for _, m := range doc.Members {
		memberRank := strings.ToLower(m.Rank)
		if !rank.Valid(memberRank) {
			memberRank = rank.Order[rank.Member]
		}
		if m.UserID == doc.FactionInfo.OwnerID {
			memberRank = rank.Order[rank.Owner]
			ownerSeen = true
		} else if memberRank == rank.Order[rank.Owner] {
			// Only the declared owner may hold owner rank.
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("[%s]: member %s demoted from owner to hicomm", code, m.UserID))
			memberRank = rank.Order[rank.Hicomm]
		}

		var inOther int64
		tx.Model(&models.Membership{}).Where("user_id = ? AND faction_id <> ?", m.UserID, faction.ID).Count(&inOther)
		if inOther > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("[%s]: member %s already in another faction, skipped", code, m.UserID))
			continue
		}

		membership := models.Membership{FactionID: faction.ID, UserID: m.UserID, Rank: memberRank}
		if m.JoinedAt != nil {
			membership.CreatedAt = *m.JoinedAt
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
	}
	if !ownerSeen {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("[%s]: owner %s missing from member list, membership added", code, doc.FactionInfo.OwnerID))
		membership := models.Membership{FactionID: faction.ID, UserID: doc.FactionInfo.OwnerID, Rank: rank.Order[rank.Owner]}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
	}

	for _, ch := range doc.Channels {
		binding := models.ChannelBinding{
			FactionID: faction.ID,
			Kind:      ch.Kind,
			ChannelID: ch.ChannelID,
			Name:      ch.Name,
		}
		if err := tx.Create(&binding).Error; err != nil {
			return err
		}
	}

	for _, s := range doc.Strikes {
		strike := models.Strike{
			FactionID: faction.ID,
			UserID:    s.UserID,
			Reason:    s.Reason,
			IssuerID:  s.IssuerID,
		}
		if s.IssuedAt != nil {
			strike.CreatedAt = *s.IssuedAt
		}
		if err := tx.Create(&strike).Error; err != nil {
			return err
		}
	}

	return nil
}

// Import ingests a bulk faction document. With ?dry_run=true it validates
// and reports without mutating anything.
// @Summary Import factions
// @Tags admin
// @Accept json
// @Produce json
// @Param dry_run query bool false "Validate only"
// @Param request body ImportRequest true "Faction documents"
// @Success 200 {object} ImportResult
// @Security BearerAuth
// @Router /admin/import [post]
func (h *Handler) Import(c *gin.Context) {
	dryRun := c.Query("dry_run") == "true"

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := ImportResult{
		ImportedFactions: []string{},
		Warnings:         []string{},
		Errors:           []string{},
		DryRun:           dryRun,
	}

	for i := range req.Factions {
		doc := &req.Factions[i]
		code := strings.ToUpper(strings.TrimSpace(doc.FactionInfo.UniqueCode))

		if msg := h.validate(doc, &result); msg != "" {
			result.Errors = append(result.Errors, msg)
			continue
		}

		if dryRun {
			result.ImportedFactions = append(result.ImportedFactions, code)
			continue
		}

		// One transaction per faction so a bad entry does not roll back
		// the ones already imported.
		err := h.db.Transaction(func(tx *gorm.DB) error {
			return h.importOne(tx, doc, &result)
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("[%s]: %v", code, err))
			continue
		}
		result.ImportedFactions = append(result.ImportedFactions, code)
	}

	c.JSON(http.StatusOK, result)
}

// Export produces the interchange document for every faction, or one
// faction with ?code=.
func (h *Handler) Export(c *gin.Context) {
	var factions []models.Faction
	query := h.db.Order("unique_code asc")
	if code := c.Query("code"); code != "" {
		query = query.Where("unique_code = ?", strings.ToUpper(code))
	}
	if err := query.Find(&factions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch factions"})
		return
	}
	if c.Query("code") != "" && len(factions) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faction not found"})
		return
	}

	docs := make([]FactionDocument, 0, len(factions))
	for _, f := range factions {
		doc := FactionDocument{
			FactionInfo: FactionInfo{
				Name:       f.Name,
				UniqueCode: f.UniqueCode,
				Type:       f.Type,
				GroupURL:   f.GroupURL,
				Color:      f.Color,
				OwnerID:    f.OwnerUserID,
			},
			PlatformObjects: PlatformObjects{
				RoleID:         f.RoleID,
				MidcommRoleID:  f.MidcommRoleID,
				HicommRoleID:   f.HicommRoleID,
				DirectorRoleID: f.DirectorRoleID,
				CategoryID:     f.CategoryID,
			},
		}

		var members []models.Membership
		h.db.Where("faction_id = ?", f.ID).Order("created_at asc").Find(&members)
		for _, m := range members {
			joined := m.CreatedAt
			doc.Members = append(doc.Members, MemberEntry{UserID: m.UserID, Rank: m.Rank, JoinedAt: &joined})
		}

		var channels []models.ChannelBinding
		h.db.Where("faction_id = ?", f.ID).Find(&channels)
		for _, ch := range channels {
			doc.Channels = append(doc.Channels, ChannelEntry{Kind: ch.Kind, ChannelID: ch.ChannelID, Name: ch.Name})
		}

		var strikes []models.Strike
		h.db.Where("faction_id = ?", f.ID).Order("created_at asc").Find(&strikes)
		for _, s := range strikes {
			issued := s.CreatedAt
			doc.Strikes = append(doc.Strikes, StrikeEntry{UserID: s.UserID, Reason: s.Reason, IssuerID: s.IssuerID, IssuedAt: &issued})
		}

		var policyRow models.PermissionPolicy
		if err := h.db.Where("faction_id = ?", f.ID).First(&policyRow).Error; err == nil {
			doc.Permissions = map[string]int{
				policy.ActionRename:  policyRow.RenameLevel,
				policy.ActionKick:    policyRow.KickLevel,
				policy.ActionPromote: policyRow.PromoteLevel,
				policy.ActionDemote:  policyRow.DemoteLevel,
				policy.ActionInvite:  policyRow.InviteLevel,
				policy.ActionStrike:  policyRow.StrikeLevel,
				policy.ActionLeave:   policyRow.LeaveLevel,
			}
		}

		docs = append(docs, doc)
	}

	c.JSON(http.StatusOK, gin.H{"factions": docs})
}

// RegisterRoutes registers import/export routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import", h.Import)
	rg.GET("/export", h.Export)
}
