package servicekeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"gorm.io/gorm"
)

const (
	// KeyLength is the length of the generated key in bytes (32 bytes = 64 hex chars)
	KeyLength = 32
	// KeyPrefixLength is the number of characters to store as prefix for identification
	KeyPrefixLength = 8
)

// Handler handles service key requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new service keys handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// ServiceKeyResponse represents a service key in responses
type ServiceKeyResponse struct {
	ID          uint       `json:"id"`
	KeyPrefix   string     `json:"key_prefix"`
	Description string     `json:"description"`
	Admin       bool       `json:"admin"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateServiceKeyRequest represents a request to create a service key
type CreateServiceKeyRequest struct {
	Description string `json:"description"`
	Admin       bool   `json:"admin"`
}

// CreateServiceKeyResponse includes the full key (only shown once)
type CreateServiceKeyResponse struct {
	ID          uint      `json:"id"`
	Key         string    `json:"key"`
	KeyPrefix   string    `json:"key_prefix"`
	Description string    `json:"description"`
	Admin       bool      `json:"admin"`
	CreatedAt   time.Time `json:"created_at"`
}

// generateKey generates a new random service key
func generateKey() (string, error) {
	bytes := make([]byte, KeyLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashKey creates a SHA-256 hash of the service key
func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Create creates a new service key. Admin only.
func (h *Handler) Create(c *gin.Context) {
	var req CreateServiceKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Body is optional
		req.Description = ""
	}

	key, err := generateKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate service key"})
		return
	}

	serviceKey := models.ServiceKey{
		KeyHash:     hashKey(key),
		KeyPrefix:   key[:KeyPrefixLength],
		Description: req.Description,
		Admin:       req.Admin,
	}

	if err := h.db.Create(&serviceKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service key"})
		return
	}

	// Return the full key - this is the only time it's visible
	c.JSON(http.StatusCreated, CreateServiceKeyResponse{
		ID:          serviceKey.ID,
		Key:         key,
		KeyPrefix:   serviceKey.KeyPrefix,
		Description: serviceKey.Description,
		Admin:       serviceKey.Admin,
		CreatedAt:   serviceKey.CreatedAt,
	})
}

// List returns all service keys
func (h *Handler) List(c *gin.Context) {
	var serviceKeys []models.ServiceKey
	if err := h.db.Order("created_at DESC").Find(&serviceKeys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch service keys"})
		return
	}

	responses := make([]ServiceKeyResponse, len(serviceKeys))
	for i, key := range serviceKeys {
		responses[i] = ServiceKeyResponse{
			ID:          key.ID,
			KeyPrefix:   key.KeyPrefix,
			Description: key.Description,
			Admin:       key.Admin,
			LastUsedAt:  key.LastUsedAt,
			CreatedAt:   key.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, responses)
}

// Delete revokes a service key
func (h *Handler) Delete(c *gin.Context) {
	keyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service key ID"})
		return
	}

	var serviceKey models.ServiceKey
	if err := h.db.First(&serviceKey, keyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service key not found"})
		return
	}

	// Soft delete
	if err := h.db.Delete(&serviceKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete service key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service key deleted"})
}

// ValidateKey checks if a service key is valid
func ValidateKey(db *gorm.DB, key string) (*models.ServiceKey, error) {
	var serviceKey models.ServiceKey
	if err := db.Where("key_hash = ?", hashKey(key)).First(&serviceKey).Error; err != nil {
		return nil, err
	}
	return &serviceKey, nil
}

// UpdateLastUsed updates the last_used_at timestamp for a service key
func UpdateLastUsed(db *gorm.DB, keyID uint) {
	now := time.Now()
	db.Model(&models.ServiceKey{}).Where("id = ?", keyID).Update("last_used_at", now)
}

// CombinedAuthMiddleware returns a middleware that authenticates via JWT or service key
// Both are passed in the Authorization header as "Bearer <token>"
// JWTs contain dots, service keys are hex strings without dots
func CombinedAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]

		// Try JWT first (JWTs contain dots)
		if strings.Contains(token, ".") {
			claims, err := auth.ValidateToken(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				c.Abort()
				return
			}

			c.Set(auth.ContextKeySubject, claims.Subject)
			c.Set(auth.ContextKeyAdmin, claims.Admin)
			c.Next()
			return
		}

		// Try service key (hex string without dots)
		serviceKey, err := ValidateKey(db, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid service key"})
			c.Abort()
			return
		}

		// Update last used (fire and forget)
		go UpdateLastUsed(db, serviceKey.ID)

		c.Set(auth.ContextKeySubject, "key:"+serviceKey.KeyPrefix)
		c.Set(auth.ContextKeyAdmin, serviceKey.Admin)

		c.Next()
	}
}

// RegisterRoutes registers service key routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/service-keys", h.Create)
	rg.GET("/service-keys", h.List)
	rg.DELETE("/service-keys/:id", h.Delete)
}
