package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Token type markers embedded in the claims so access tokens cannot be
// replayed as refresh tokens and vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken indicates the token failed signature or claim validation.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken indicates the token was valid but past its expiry.
	ErrExpiredToken = errors.New("auth: token expired")
)

// Claims is the JWT payload minted for both access and refresh tokens.
type Claims struct {
	Role         string `json:"role"`
	TokenVersion int64  `json:"token_version"`
	TokenType    string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManagerConfig bundles signing parameters for a TokenManager.
type TokenManagerConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// TokenManager mints and verifies HS256 access and refresh tokens.
type TokenManager struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	clock           func() time.Time
}

// NewTokenManager validates the configuration and constructs a TokenManager.
func NewTokenManager(cfg TokenManagerConfig) (*TokenManager, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, errors.New("token manager: access secret is required")
	}
	if strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, errors.New("token manager: refresh secret is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("token manager: access token ttl must be positive")
	}
	if cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token manager: refresh token ttl must be positive")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenManager{
		accessSecret:    []byte(cfg.AccessSecret),
		refreshSecret:   []byte(cfg.RefreshSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		clock:           clock,
	}, nil
}

// RefreshTokenTTL exposes the configured refresh lifetime for cookie expiry.
func (m *TokenManager) RefreshTokenTTL() time.Duration {
	return m.refreshTokenTTL
}

// MintAccessToken issues a short-lived access token for the identity.
func (m *TokenManager) MintAccessToken(identity Identity) (string, error) {
	return m.mint(identity, tokenTypeAccess, m.accessSecret, m.accessTokenTTL)
}

// MintRefreshToken issues a long-lived refresh token for the identity.
func (m *TokenManager) MintRefreshToken(identity Identity) (string, error) {
	return m.mint(identity, tokenTypeRefresh, m.refreshSecret, m.refreshTokenTTL)
}

// VerifyAccessToken validates an access token and returns the embedded identity.
func (m *TokenManager) VerifyAccessToken(token string) (Identity, error) {
	return m.verify(token, tokenTypeAccess, m.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns the embedded identity.
func (m *TokenManager) VerifyRefreshToken(token string) (Identity, error) {
	return m.verify(token, tokenTypeRefresh, m.refreshSecret)
}

func (m *TokenManager) mint(identity Identity, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	userID := strings.TrimSpace(identity.UserID)
	if userID == "" {
		return "", errors.New("token manager: user id is required")
	}
	role := strings.TrimSpace(identity.Role)
	if role == "" {
		role = RoleUser
	}

	now := m.clock().UTC()
	claims := Claims{
		Role:         role,
		TokenVersion: identity.TokenVersion,
		TokenType:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token manager: sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (m *TokenManager) verify(raw string, tokenType string, secret []byte) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}

	// jwt/v4 has no per-parser clock option, so claims validation is
	// disabled and expiry is checked against the manager's clock below.
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ExpiresAt == nil {
		return Identity{}, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	if m.clock().UTC().After(claims.ExpiresAt.Time) {
		return Identity{}, ErrExpiredToken
	}

	if claims.TokenType != tokenType {
		return Identity{}, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.TokenType)
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Identity{
		UserID:       userID,
		Role:         strings.ToLower(strings.TrimSpace(claims.Role)),
		TokenVersion: claims.TokenVersion,
	}, nil
}
