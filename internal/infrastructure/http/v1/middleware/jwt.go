package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"lotkeeper/internal/core/security"
)

// JWTValidator validates HMAC-signed access tokens issued by the upstream
// identity provider.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator with the shared signing secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// claims is the subset of the upstream token the engine reads.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// ValidateToken parses and verifies the token and extracts the caller.
func (v *JWTValidator) ValidateToken(tokenString string) (security.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return security.Identity{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return security.Identity{}, fmt.Errorf("token is not valid")
	}
	if c.Subject == "" {
		return security.Identity{}, fmt.Errorf("token has no subject")
	}

	return security.Identity{
		UserID: c.Subject,
		Email:  c.Email,
	}, nil
}

// Ensure interface compliance.
var _ TokenValidator = (*JWTValidator)(nil)
