// Package token issues and validates the HMAC-signed access tokens used by
// the authenticated API surface. The role claim is resolved into a capability
// set exactly once, at validation time.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "certifynow/pkg/domain"
	dErrors "certifynow/pkg/domain-errors"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the validated identity attached to a request: who they are and
// what they may do.
type Actor struct {
	UserID       id.UserID
	Role         id.Role
	Capabilities id.CapabilitySet
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey string, issuer string, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken signs a token for the given actor.
func (s *Service) GenerateAccessToken(userID id.UserID, role id.Role, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID.String(),
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	return newToken.SignedString(s.signingKey)
}

// ValidateToken parses the token and resolves the actor's capability set.
func (s *Service) ValidateToken(tokenString string) (*Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	role := id.Role(claims.Role)
	return &Actor{
		UserID:       userID,
		Role:         role,
		Capabilities: id.CapabilitiesFor(role),
	}, nil
}
