// Package auth issues and validates the JWT pair used by the cookie-based
// session scheme: a short-lived access token and a longer-lived refresh
// token. Refresh tokens carry a jti so they can be revoked through a Redis
// denylist when rotated or on logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refugio/internal/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	issuer          = "refugio"
	audienceAccess  = "refugio:access"
	audienceRefresh = "refugio:refresh"

	// AccessTokenTTL is how long an access token stays valid.
	AccessTokenTTL = time.Hour
	// RefreshTokenTTL is how long a refresh token stays valid.
	RefreshTokenTTL = 24 * time.Hour
)

var (
	// ErrInvalidToken covers malformed, expired, revoked and wrong-audience tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the JWT payload for both token kinds.
type Claims struct {
	UserID  uint `json:"uid"`
	IsStaff bool `json:"staff"`
	jwt.RegisteredClaims
}

// TokenService signs and validates the access/refresh pair.
type TokenService struct {
	secret []byte
	rdb    *redis.Client
	now    func() time.Time
}

// NewTokenService builds a TokenService. rdb may be nil; revocation then
// degrades to expiry-only validity.
func NewTokenService(secret string, rdb *redis.Client) *TokenService {
	return &TokenService{secret: []byte(secret), rdb: rdb, now: time.Now}
}

// IssuePair signs a fresh access and refresh token for the user.
func (s *TokenService) IssuePair(userID uint, isStaff bool) (access, refresh string, err error) {
	access, err = s.sign(userID, isStaff, audienceAccess, AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.sign(userID, isStaff, audienceRefresh, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *TokenService) sign(userID uint, isStaff bool, audience string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  userID,
		IsStaff: isStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   fmt.Sprintf("%d", userID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccess parses an access token and returns its claims.
func (s *TokenService) ValidateAccess(tokenString string) (*Claims, error) {
	return s.validate(tokenString, audienceAccess)
}

// ValidateRefresh parses a refresh token, rejecting revoked jtis.
func (s *TokenService) ValidateRefresh(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.validate(tokenString, audienceRefresh)
	if err != nil {
		return nil, err
	}
	if s.rdb != nil {
		n, err := s.rdb.Exists(ctx, cache.DenylistKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Revoke denylists a refresh token's jti until the token would have expired
// anyway. Used on logout and on every refresh rotation.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.rdb == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, cache.DenylistKey(claims.ID), "1", ttl).Err()
}

func (s *TokenService) validate(tokenString, audience string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
