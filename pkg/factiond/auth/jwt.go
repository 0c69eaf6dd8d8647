package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims represents the JWT claims carried by gateway tokens.
type Claims struct {
	Subject string `json:"sub_name"`
	Admin   bool   `json:"admin"`
	jwt.RegisteredClaims
}

// getJWTSecret returns the JWT secret from environment or a default for development
func getJWTSecret() []byte {
	secret := os.Getenv("FACTIOND_JWT_SECRET")
	if secret == "" {
		// Default for development only - should be set in production
		secret = "factiond-dev-secret-change-in-production"
	}
	return []byte(secret)
}

// getTokenDuration returns the token validity duration
func getTokenDuration() time.Duration {
	// Default to 24 hours
	return 24 * time.Hour
}

// GenerateToken creates a new JWT token for a gateway identity
func GenerateToken(subject string, admin bool) (string, error) {
	claims := &Claims{
		Subject: subject,
		Admin:   admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(getTokenDuration())),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "factiond",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTSecret())
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return getJWTSecret(), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
