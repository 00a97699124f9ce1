package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/civicreport/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned by Verify for any token that cannot be trusted.
var ErrInvalidToken = fmt.Errorf("invalid token: %w", apperror.ErrUnauthorized)

// Claims is the identity carried by a bearer token. It is the only source of
// caller identity and role for authorization decisions.
type Claims struct {
	UserID  uuid.UUID `json:"id"`
	IsAdmin bool      `json:"isAdmin"`
	jwt.RegisteredClaims
}

type Service interface {
	Issue(userID uuid.UUID, isAdmin bool) (string, error)
	Verify(tokenString string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns an HS256 token service. A ttl of zero issues tokens
// without an expiry claim.
func NewService(secret string, ttl time.Duration) (Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("jwt ttl must not be negative, got %s", ttl)
	}
	return &jwtService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *jwtService) Issue(userID uuid.UUID, isAdmin bool) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
