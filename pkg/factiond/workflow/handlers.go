package workflow

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
)

// Handler drives multi-step workflow sessions over HTTP. The gateway
// renders each step; factiond owns the sequencing and the final call.
type Handler struct {
	store  *Store
	engine *engine.Engine
}

// NewHandler creates a new workflow handler.
func NewHandler(store *Store, eng *engine.Engine) *Handler {
	return &Handler{store: store, engine: eng}
}

// BeginRequest starts a session for one action.
type BeginRequest struct {
	Action string `json:"action" binding:"required"`
}

// StepRequest submits the value for the current step.
type StepRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// SessionResponse is the session state plus the next expected field.
type SessionResponse struct {
	Session *Session `json:"session"`
	Next    *Field   `json:"next,omitempty"`
	Ready   bool     `json:"ready"`
}

func sessionResponse(s *Session) SessionResponse {
	return SessionResponse{Session: s, Next: s.Next(), Ready: s.Ready()}
}

func storeStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotYours):
		return http.StatusForbidden
	case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrWrongField),
		errors.Is(err, ErrIncomplete), errors.Is(err, ErrRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Begin opens a session.
func (h *Handler) Begin(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req BeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.store.Begin(actor, req.Action)
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sessionResponse(s))
}

// Get returns the session state.
func (h *Handler) Get(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	s, err := h.store.Peek(c.Param("id"), actor)
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// Step submits one field value.
func (h *Handler) Step(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.store.Advance(c.Param("id"), actor, req.Field, req.Value)
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// Confirm consumes a ready session and runs its operation.
func (h *Handler) Confirm(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	s, err := h.store.Take(c.Param("id"), actor)
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}

	result, err := h.execute(c, actor, s)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": s.Action, "result": result})
}

// Abandon discards a session.
func (h *Handler) Abandon(c *gin.Context) {
	actor, _ := auth.GetActingUser(c)

	if err := h.store.Abandon(c.Param("id"), actor); err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workflow abandoned"})
}

// execute dispatches the collected values to the engine. The action set
// is closed; every case is enumerated here.
func (h *Handler) execute(c *gin.Context, actor string, s *Session) (interface{}, error) {
	ctx := c.Request.Context()
	v := s.Values

	switch s.Action {
	case "create":
		err := h.engine.SubmitCreationRequest(ctx, actor, engine.CreationRequest{
			Name:     v["name"],
			Code:     v["code"],
			Type:     v["type"],
			GroupURL: v["group_url"],
			Color:    v["color"],
		})
		return gin.H{"submitted": err == nil}, err
	case "rename":
		faction, _, err := h.engine.Directory().FactionOfMember(actor)
		if err != nil {
			return nil, engine.ErrNotFound
		}
		err = h.engine.Rename(ctx, actor, faction.ID, engine.RenameParams{Name: v["name"], Code: v["code"]}, false)
		return gin.H{"renamed": err == nil}, err
	case "promote":
		err := h.engine.Promote(ctx, actor, v["target"], v["rank"])
		return gin.H{"target": v["target"], "rank": v["rank"]}, err
	case "demote":
		err := h.engine.Demote(ctx, actor, v["target"], v["rank"])
		return gin.H{"target": v["target"], "rank": v["rank"]}, err
	case "kick":
		err := h.engine.Kick(ctx, actor, v["target"], v["reason"])
		return gin.H{"target": v["target"]}, err
	case "strike":
		strike, err := h.engine.IssueStrike(ctx, actor, v["target"], v["reason"])
		return strike, err
	case "transfer":
		err := h.engine.Transfer(ctx, actor, v["target"])
		return gin.H{"new_owner": v["target"]}, err
	case "invite":
		return h.engine.InviteBulk(ctx, actor, strings.Fields(v["users"]))
	case "channel_add":
		return h.engine.AddChannel(ctx, actor, v["name"], platform.AccessPreset(v["preset"]))
	case "channel_remove":
		err := h.engine.RemoveChannel(ctx, actor, v["channel"])
		return gin.H{"channel": v["channel"]}, err
	case "channel_rename":
		err := h.engine.RenameChannel(ctx, actor, v["channel"], v["name"])
		return gin.H{"channel": v["channel"], "name": v["name"]}, err
	case "leave":
		err := h.engine.Leave(ctx, actor)
		return gin.H{"left": err == nil}, err
	case "disband":
		faction, _, err := h.engine.Directory().FactionOfMember(actor)
		if err != nil {
			return nil, engine.ErrNotFound
		}
		err = h.engine.Disband(ctx, actor, faction.ID, false)
		return gin.H{"disbanded": err == nil}, err
	default:
		return nil, ErrUnknownAction
	}
}

// RegisterRoutes registers workflow routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/workflows", h.Begin)
	rg.GET("/workflows/:id", h.Get)
	rg.POST("/workflows/:id/step", h.Step)
	rg.POST("/workflows/:id/confirm", h.Confirm)
	rg.DELETE("/workflows/:id", h.Abandon)
}
