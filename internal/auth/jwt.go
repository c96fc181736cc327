package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenDuration = 24 * time.Hour

	RoleAdmin = "admin"
)

// Profile is what the identity provider vouches for.
type Profile struct {
	UserID string
	Name   string
	Email  string
	Roles  []string
}

type Claims struct {
	UserID    string   `json:"userId"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

func (c *Claims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}

func GenerateAccessToken(secret string, p Profile) (string, error) {
	return generateToken(secret, p, AccessTokenDuration)
}

func ValidateToken(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no user id")
	}
	return claims, nil
}

func generateToken(secret string, p Profile, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    p.UserID,
		Name:      p.Name,
		Email:     p.Email,
		Roles:     p.Roles,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
