// Package auth implements the session gate: password hashing, signed access
// tokens and the per-request identity derived from them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
	"property-bidding/utils"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is the fixed validity window of an access token
const TokenLifetime = 2 * time.Hour

// Identity is the authorization context of a request
type Identity struct {
	AccountID string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity carries the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// Session is the result of a successful login
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   model.Account
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a token manager signing with secret
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a token for account that expires after TokenLifetime
func (m *TokenManager) Issue(account model.Account) (Session, error) {
	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(TokenLifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.GenerateID(),
			Subject:   account.AccountID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	return Session{Token: signed, ExpiresAt: expiresAt, Account: account}, nil
}

// Verify checks signature, algorithm and expiry and returns the identity the
// token was issued for.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("token expired: %w", biddingerrors.ErrUnauthorized)
		}
		return Identity{}, fmt.Errorf("invalid token: %w", biddingerrors.ErrUnauthorized)
	}

	if c.Subject == "" || !c.Role.Valid() {
		return Identity{}, fmt.Errorf("token missing subject or role: %w", biddingerrors.ErrUnauthorized)
	}

	return Identity{
		AccountID: c.Subject,
		Role:      c.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}, nil
}
