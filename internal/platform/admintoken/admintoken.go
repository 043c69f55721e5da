// Package admintoken issues and validates the short-lived HS256 bearer tokens
// operators use on /admin endpoints.
package admintoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "phasegarden/pkg/domain-errors"
)

const (
	Audience = "phasegarden-admin"
	Issuer   = "phasegarden"

	// DefaultTTL is the lifetime of tokens minted by fulfillctl.
	DefaultTTL = 15 * time.Minute
)

// Claims carries the operator identity in the registered subject.
type Claims struct {
	jwt.RegisteredClaims
}

type Service struct {
	signingKey []byte
	now        func() time.Time
}

// New returns a token service. An empty secret is rejected so the admin
// surface is never open by accident.
func New(secret string) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("admin token secret is required")
	}
	return &Service{signingKey: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for operator with the given lifetime.
func (s *Service) Issue(operator string, ttl time.Duration) (string, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "operator is required")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Validate parses raw and returns the operator subject.
func (s *Service) Validate(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithAudience(Audience),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims.Subject, nil
}
