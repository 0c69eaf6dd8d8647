package members

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
)

// Handler handles membership requests
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new members handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// MemberResponse represents a membership in responses
type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Rank     string    `json:"rank"`
	Level    int       `json:"level"`
	JoinedAt time.Time `json:"joined_at"`
	Joined   string    `json:"joined"`
	Strikes  int64     `json:"strikes"`
}

// List returns a faction's roster, ranked members first by join date
func (h *Handler) List(c *gin.Context) {
	faction, err := h.engine.Directory().FactionByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faction not found"})
		return
	}

	members, err := h.engine.Directory().Members(faction.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	responses := make([]MemberResponse, len(members))
	for i, m := range members {
		strikes, _ := h.engine.Directory().StrikeCount(faction.ID, m.UserID)
		responses[i] = MemberResponse{
			UserID:   m.UserID,
			Rank:     m.Rank,
			Level:    rank.LevelOf(m.Rank),
			JoinedAt: m.CreatedAt,
			Joined:   humanize.Time(m.CreatedAt),
			Strikes:  strikes,
		}
	}
	c.JSON(http.StatusOK, responses)
}

// RankChangeBody names a target and destination rank
type RankChangeBody struct {
	Target string `json:"target" binding:"required"`
	Rank   string `json:"rank" binding:"required"`
}

// Promote raises a member's rank
// @Summary Promote a member
// @Tags members
// @Accept json
// @Produce json
// @Param request body RankChangeBody true "Target and destination rank"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /members/promote [post]
func (h *Handler) Promote(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req RankChangeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Promote(c.Request.Context(), actor, req.Target, req.Rank); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member promoted", "rank": req.Rank})
}

// Demote lowers a member's rank
func (h *Handler) Demote(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req RankChangeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Demote(c.Request.Context(), actor, req.Target, req.Rank); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member demoted", "rank": req.Rank})
}

// KickBody names a target and optional reason
type KickBody struct {
	Target string `json:"target" binding:"required"`
	Reason string `json:"reason"`
}

// Kick removes a member from the acting user's faction
func (h *Handler) Kick(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req KickBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Kick(c.Request.Context(), actor, req.Target, req.Reason); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member kicked"})
}

// InviteBody carries up to ten platform user ids
type InviteBody struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// Invite admits users to the acting user's faction in bulk
func (h *Handler) Invite(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req InviteBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.InviteBulk(c.Request.Context(), actor, req.UserIDs)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers member routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/factions/:code/members", h.List)
	rg.POST("/members/promote", h.Promote)
	rg.POST("/members/demote", h.Demote)
	rg.POST("/members/kick", h.Kick)
	rg.POST("/members/invite", h.Invite)
}
