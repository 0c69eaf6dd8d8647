package channels

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
)

// Handler handles channel requests
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new channels handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// ChannelResponse represents a channel binding in responses
type ChannelResponse struct {
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
}

// List returns the acting user's faction channels
func (h *Handler) List(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	faction, _, err := h.engine.Directory().FactionOfMember(actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not in a faction"})
		return
	}

	bindings, err := h.engine.Directory().Channels(faction.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch channels"})
		return
	}

	responses := make([]ChannelResponse, len(bindings))
	for i, b := range bindings {
		responses[i] = ChannelResponse{ChannelID: b.ChannelID, Name: b.Name, Kind: b.Kind}
	}
	c.JSON(http.StatusOK, responses)
}

// Presets returns the available access presets
func (h *Handler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": platform.Presets})
}

// AddBody names the new channel and its access preset
type AddBody struct {
	Name   string `json:"name" binding:"required"`
	Preset string `json:"preset" binding:"required"`
}

// Add creates a channel in the acting user's faction. Owner only.
func (h *Handler) Add(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req AddBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	binding, err := h.engine.AddChannel(c.Request.Context(), actor, req.Name, platform.AccessPreset(req.Preset))
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ChannelResponse{
		ChannelID: binding.ChannelID,
		Name:      binding.Name,
		Kind:      binding.Kind,
	})
}

// Remove deletes a channel. Owner only.
func (h *Handler) Remove(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	if err := h.engine.RemoveChannel(c.Request.Context(), actor, c.Param("channel_id")); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel removed"})
}

// RenameBody carries the new channel name
type RenameBody struct {
	Name string `json:"name" binding:"required"`
}

// Rename updates a channel's name. Owner only.
func (h *Handler) Rename(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req RenameBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.RenameChannel(c.Request.Context(), actor, c.Param("channel_id"), req.Name); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel renamed", "name": req.Name})
}

// RegisterRoutes registers channel routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/channels", h.List)
	rg.GET("/channels/presets", h.Presets)
	rg.POST("/channels", h.Add)
	rg.DELETE("/channels/:channel_id", h.Remove)
	rg.PATCH("/channels/:channel_id", h.Rename)
}
