package settings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/policy"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
)

// Handler handles permission policy requests
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new settings handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// resolveOwner loads the acting user's faction and confirms they own it.
// Policy changes are an owner surface.
func (h *Handler) resolveOwner(c *gin.Context) (*models.Faction, bool) {
	actor, _ := auth.GetActingUser(c)

	faction, membership, err := h.engine.Directory().FactionOfMember(actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not in a faction"})
		return nil, false
	}
	if rank.LevelOf(membership.Rank) < rank.Owner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can change permissions"})
		return nil, false
	}
	return faction, true
}

// Get returns the acting user's faction policy, defaults included
func (h *Handler) Get(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	faction, _, err := h.engine.Directory().FactionOfMember(actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not in a faction"})
		return
	}

	p, err := h.engine.Policies().Get(faction.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch policy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faction": faction.UniqueCode, "policy": p})
}

// SetBody sets the threshold for one action
type SetBody struct {
	Level *int `json:"level" binding:"required"`
}

// Set updates one action's minimum rank level
// @Summary Set a permission threshold
// @Tags settings
// @Accept json
// @Produce json
// @Param action path string true "Action kind"
// @Param request body SetBody true "Minimum rank level 0-4"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /settings/policy/{action} [put]
func (h *Handler) Set(c *gin.Context) {
	faction, ok := h.resolveOwner(c)
	if !ok {
		return
	}

	var req SetBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	level := *req.Level
	if level < rank.Member || level > rank.Owner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Level must be between 0 and 4"})
		return
	}

	action := c.Param("action")
	if err := h.engine.Policies().Set(faction.ID, action, level); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, policy.ErrUnknownAction) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "level": level})
}

// Reset restores the faction's policy to defaults
func (h *Handler) Reset(c *gin.Context) {
	faction, ok := h.resolveOwner(c)
	if !ok {
		return
	}

	if err := h.engine.Policies().Reset(faction.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset policy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Policy reset to defaults", "policy": policy.Defaults()})
}

// RegisterRoutes registers settings routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/policy", h.Get)
	rg.PUT("/settings/policy/:action", h.Set)
	rg.POST("/settings/policy/reset", h.Reset)
}
