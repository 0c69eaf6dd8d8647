package strikes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
)

// Handler handles strike requests
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new strikes handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// StrikeResponse represents a strike in responses
type StrikeResponse struct {
	ID       uint      `json:"id"`
	UserID   string    `json:"user_id"`
	Reason   string    `json:"reason"`
	IssuerID string    `json:"issuer_id"`
	IssuedAt time.Time `json:"issued_at"`
	Issued   string    `json:"issued"`
}

// IssueBody names a target and reason
type IssueBody struct {
	Target string `json:"target" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// Issue records a strike against a member of the acting user's faction
// @Summary Issue a strike
// @Tags strikes
// @Accept json
// @Produce json
// @Param request body IssueBody true "Target and reason"
// @Success 201 {object} StrikeResponse
// @Security BearerAuth
// @Router /strikes [post]
func (h *Handler) Issue(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req IssueBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strike, err := h.engine.IssueStrike(c.Request.Context(), actor, req.Target, req.Reason)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, StrikeResponse{
		ID:       strike.ID,
		UserID:   strike.UserID,
		Reason:   strike.Reason,
		IssuerID: strike.IssuerID,
		IssuedAt: strike.CreatedAt,
		Issued:   humanize.Time(strike.CreatedAt),
	})
}

// ListForMember returns a member's strikes within a faction
func (h *Handler) ListForMember(c *gin.Context) {
	faction, err := h.engine.Directory().FactionByCode(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faction not found"})
		return
	}

	strikes, err := h.engine.Directory().Strikes(faction.ID, c.Param("user"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch strikes"})
		return
	}

	responses := make([]StrikeResponse, len(strikes))
	for i, s := range strikes {
		responses[i] = StrikeResponse{
			ID:       s.ID,
			UserID:   s.UserID,
			Reason:   s.Reason,
			IssuerID: s.IssuerID,
			IssuedAt: s.CreatedAt,
			Issued:   humanize.Time(s.CreatedAt),
		}
	}
	c.JSON(http.StatusOK, responses)
}

// Remove deletes one strike by id. Director rank or above.
func (h *Handler) Remove(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	strikeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid strike ID"})
		return
	}

	if err := h.engine.RemoveStrike(c.Request.Context(), actor, uint(strikeID)); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Strike removed"})
}

// RegisterRoutes registers strike routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/strikes", h.Issue)
	rg.DELETE("/strikes/:id", h.Remove)
	rg.GET("/factions/:code/strikes/:user", h.ListForMember)
}
