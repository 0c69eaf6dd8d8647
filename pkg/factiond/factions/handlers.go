package factions

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/models"
)

// Handler handles faction lifecycle requests
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new factions handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// FactionResponse represents a faction in responses
type FactionResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	UniqueCode  string `json:"unique_code"`
	Type        string `json:"type"`
	GroupURL    string `json:"group_url,omitempty"`
	Color       string `json:"color,omitempty"`
	OwnerUserID string `json:"owner_user_id"`
	MemberCount int64  `json:"member_count"`
	Age         string `json:"age"`
}

func (h *Handler) toResponse(f *models.Faction) FactionResponse {
	members, _ := h.engine.Directory().Members(f.ID)
	return FactionResponse{
		ID:          f.ID,
		Name:        f.Name,
		UniqueCode:  f.UniqueCode,
		Type:        f.Type,
		GroupURL:    f.GroupURL,
		Color:       f.Color,
		OwnerUserID: f.OwnerUserID,
		MemberCount: int64(len(members)),
		Age:         humanize.Time(f.CreatedAt),
	}
}

// List returns every faction
// @Summary List factions
// @Tags factions
// @Produce json
// @Success 200 {array} FactionResponse
// @Security BearerAuth
// @Router /factions [get]
func (h *Handler) List(c *gin.Context) {
	factions, err := h.engine.Directory().Factions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch factions"})
		return
	}

	responses := make([]FactionResponse, len(factions))
	for i := range factions {
		responses[i] = h.toResponse(&factions[i])
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns one faction by code
func (h *Handler) Get(c *gin.Context) {
	faction, err := h.engine.Directory().FactionByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faction not found"})
		return
	}
	c.JSON(http.StatusOK, h.toResponse(faction))
}

// Mine returns the acting user's faction and membership
func (h *Handler) Mine(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	faction, membership, err := h.engine.Directory().FactionOfMember(actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not in a faction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"faction":   h.toResponse(faction),
		"rank":      membership.Rank,
		"joined_at": membership.CreatedAt,
		"joined":    humanize.Time(membership.CreatedAt),
	})
}

// CreateRequestBody is the creation request payload
type CreateRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Type     string `json:"type"`
	GroupURL string `json:"group_url"`
	Color    string `json:"color"`
}

// SubmitRequest submits a faction creation request for admin review
// @Summary Request faction creation
// @Tags factions
// @Accept json
// @Produce json
// @Param request body CreateRequestBody true "Proposed faction"
// @Success 202 {object} map[string]string
// @Security BearerAuth
// @Router /factions/requests [post]
func (h *Handler) SubmitRequest(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req CreateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.engine.SubmitCreationRequest(c.Request.Context(), actor, engine.CreationRequest{
		Name:     req.Name,
		Code:     req.Code,
		Type:     req.Type,
		GroupURL: req.GroupURL,
		Color:    req.Color,
	})
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Request submitted for review"})
}

// RenameBody is the rename payload
type RenameBody struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Rename renames the acting user's faction
func (h *Handler) Rename(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req RenameBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	faction, _, err := h.engine.Directory().FactionOfMember(actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not in a faction"})
		return
	}

	err = h.engine.Rename(c.Request.Context(), actor, faction.ID,
		engine.RenameParams{Name: req.Name, Code: req.Code}, false)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Faction renamed"})
}

// TransferBody names the new owner
type TransferBody struct {
	Target string `json:"target" binding:"required"`
}

// Transfer moves ownership of the acting user's faction
func (h *Handler) Transfer(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req TransferBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Transfer(c.Request.Context(), actor, req.Target); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ownership transferred", "new_owner": req.Target})
}

// Disband dissolves the acting user's faction
func (h *Handler) Disband(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	faction, _, err := h.engine.Directory().FactionOfMember(actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not in a faction"})
		return
	}

	if err := h.engine.Disband(c.Request.Context(), actor, faction.ID, false); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Faction disbanded"})
}

// Leave removes the acting user from their faction
func (h *Handler) Leave(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	if err := h.engine.Leave(c.Request.Context(), actor); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You left the faction"})
}

// RegisterRoutes registers faction routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/factions", h.List)
	rg.GET("/factions/mine", h.Mine)
	rg.GET("/factions/:code", h.Get)
	rg.POST("/factions/requests", h.SubmitRequest)
	rg.POST("/factions/rename", h.Rename)
	rg.POST("/factions/transfer", h.Transfer)
	rg.POST("/factions/disband", h.Disband)
	rg.POST("/factions/leave", h.Leave)
}
