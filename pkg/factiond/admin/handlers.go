package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
)

// Handler handles privileged review and force operations. All routes are
// behind the admin gate.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new admin handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// ListRequests returns creation requests awaiting review
func (h *Handler) ListRequests(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.PendingRequests())
}

// Approve accepts a pending creation request and builds the faction
// @Summary Approve a faction creation request
// @Tags admin
// @Produce json
// @Param code path string true "Proposed unique code"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/requests/{code}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	subject, _ := auth.GetSubject(c)

	faction, err := h.engine.Approve(c.Request.Context(), subject, c.Param("code"))
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Faction approved",
		"id":      faction.ID,
		"code":    faction.UniqueCode,
	})
}

// DenyBody carries an optional denial reason
type DenyBody struct {
	Reason string `json:"reason"`
}

// Deny discards a pending creation request
func (h *Handler) Deny(c *gin.Context) {
	subject, _ := auth.GetSubject(c)

	var req DenyBody
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	if err := h.engine.Deny(c.Request.Context(), subject, c.Param("code"), req.Reason); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request denied"})
}

// ForceRenameBody is the rename payload
type ForceRenameBody struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ForceRename renames any faction, bypassing rank checks
func (h *Handler) ForceRename(c *gin.Context) {
	subject, _ := auth.GetSubject(c)

	factionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid faction ID"})
		return
	}

	var req ForceRenameBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.engine.Rename(c.Request.Context(), subject, uint(factionID),
		engine.RenameParams{Name: req.Name, Code: req.Code}, true)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Faction renamed"})
}

// ForceDisband dissolves any faction, bypassing ownership checks
func (h *Handler) ForceDisband(c *gin.Context) {
	subject, _ := auth.GetSubject(c)

	factionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid faction ID"})
		return
	}

	if err := h.engine.Disband(c.Request.Context(), subject, uint(factionID), true); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Faction disbanded"})
}

// RegisterRoutes registers admin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/requests", h.ListRequests)
	rg.POST("/requests/:code/approve", h.Approve)
	rg.POST("/requests/:code/deny", h.Deny)
	rg.POST("/factions/:id/rename", h.ForceRename)
	rg.DELETE("/factions/:id", h.ForceDisband)
}
