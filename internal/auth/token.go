package auth

import (
	"errors"
	"fmt"
	"time"

	"canx-backend/internal/config"
	"canx-backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID string
	Role   model.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type TokenManager interface {
	Issue(userID string, role model.Role) (string, error)
	Parse(token string) (*Identity, error)
}

type tokenManagerImpl struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg *config.Auth) (TokenManager, error) {
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl %s must be positive", cfg.TokenTTL)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	return &tokenManagerImpl{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}, nil
}

func (m *tokenManagerImpl) Issue(userID string, role model.Role) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *tokenManagerImpl) Parse(token string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, errors.New("token is missing subject or role")
	}

	return &Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
