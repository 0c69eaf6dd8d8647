package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/config"
)

// Handler handles authentication requests
type Handler struct {
	cfg *config.Config
}

// NewHandler creates a new auth handler
func NewHandler(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	User     string `json:"user" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string `json:"token"`
	Admin bool   `json:"admin"`
}

// Login authenticates the gateway with its configured credentials and
// issues a JWT. Gateways are admin identities: they may approve and deny
// creation requests and use the force paths.
// @Summary Login
// @Description Authenticate with gateway credentials to receive a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Gateway credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.cfg.GatewayPasswordHash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Password login is not configured"})
		return
	}
	if req.User != h.cfg.GatewayUser || !CheckPassword(req.Password, h.cfg.GatewayPasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user or password"})
		return
	}

	token, err := GenerateToken(req.User, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, Admin: true})
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}
