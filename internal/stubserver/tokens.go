package stubserver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quiznox/quiznox-client/internal/config"
	"github.com/quiznox/quiznox-client/internal/model"
)

// Token service errors.
var (
	ErrRefreshRevoked = errors.New("refresh token revoked or unknown")
)

// Claims extends JWT standard claims with the account's username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenService mints and validates the stub's HS256 token pairs. Issued
// refresh tokens are tracked by JTI so refresh can rotate pairs and
// logout can revoke them.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu     sync.Mutex
	active map[string]string // refresh JTI → user ID
}

// NewTokenService creates a TokenService from configuration.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		active:     make(map[string]string),
	}
}

// IssuePair mints a fresh access/refresh pair for a user and registers
// the refresh token as active.
func (s *TokenService) IssuePair(userID, username string) (model.TokenPair, error) {
	access, err := s.sign(userID, username, s.accessTTL, uuid.New().String())
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshJTI := uuid.New().String()
	refresh, err := s.sign(userID, username, s.refreshTTL, refreshJTI)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	s.mu.Lock()
	s.active[refreshJTI] = userID
	s.mu.Unlock()

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a valid, active refresh token for a new pair. The old
// refresh token is retired; presenting it again fails.
func (s *TokenService) Rotate(refreshToken string) (model.TokenPair, *Claims, error) {
	claims, err := s.Validate(refreshToken)
	if err != nil {
		return model.TokenPair{}, nil, err
	}

	s.mu.Lock()
	userID, ok := s.active[claims.ID]
	if ok {
		delete(s.active, claims.ID)
	}
	s.mu.Unlock()

	if !ok || userID != claims.Subject {
		return model.TokenPair{}, nil, ErrRefreshRevoked
	}

	pair, err := s.IssuePair(claims.Subject, claims.Username)
	if err != nil {
		return model.TokenPair{}, nil, err
	}
	return pair, claims, nil
}

// Revoke retires a refresh token. Unknown tokens are ignored: logout is
// idempotent.
func (s *TokenService) Revoke(refreshToken string) {
	claims, err := s.Validate(refreshToken)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.active, claims.ID)
	s.mu.Unlock()
}

// Validate parses and verifies a token, returning its claims.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *TokenService) sign(userID, username string, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
