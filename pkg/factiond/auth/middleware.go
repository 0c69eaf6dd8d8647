package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeySubject is the key for the gateway identity in gin context
	ContextKeySubject = "subject"
	// ContextKeyAdmin is the key for the admin flag in gin context
	ContextKeyAdmin = "admin"
	// ContextKeyActingUser is the key for the platform user the gateway
	// acts on behalf of
	ContextKeyActingUser = "acting_user"

	// ActingUserHeader names the platform user whose action the gateway
	// relays. Required on member-facing routes.
	ActingUserHeader = "X-Acting-User"
)

// Middleware validates bearer JWT tokens and sets identity in context
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyAdmin, claims.Admin)
		c.Next()
	}
}

// RequireActingUser ensures the gateway named the platform user it is
// acting for and stores it in context.
func RequireActingUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(ActingUserHeader))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": ActingUserHeader + " header required"})
			c.Abort()
			return
		}
		c.Set(ContextKeyActingUser, userID)
		c.Next()
	}
}

// RequireAdmin middleware checks the authenticated identity's admin flag
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, exists := c.Get(ContextKeyAdmin)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if admin != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSubject returns the gateway identity from the gin context
func GetSubject(c *gin.Context) (string, bool) {
	subject, exists := c.Get(ContextKeySubject)
	if !exists {
		return "", false
	}
	return subject.(string), true
}

// GetActingUser returns the acting platform user from the gin context
func GetActingUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextKeyActingUser)
	if !exists {
		return "", false
	}
	return userID.(string), true
}

// IsAdmin reports whether the authenticated identity has the admin flag
func IsAdmin(c *gin.Context) bool {
	admin, exists := c.Get(ContextKeyAdmin)
	return exists && admin == true
}
