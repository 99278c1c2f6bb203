package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
)

// Gate turns credentials into identities. It is stateless unless a
// RevocationStore is configured, in which case logged-out tokens are refused.
type Gate struct {
	tokens  *TokenManager
	revoked RevocationStore
	now     func() time.Time
}

// NewGate creates a gate. revoked may be nil.
func NewGate(tokens *TokenManager, revoked RevocationStore) *Gate {
	return &Gate{tokens: tokens, revoked: revoked, now: time.Now}
}

// Issue creates a session for an authenticated account
func (g *Gate) Issue(account model.Account) (Session, error) {
	return g.tokens.Issue(account)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("malformed authorization header: %w", biddingerrors.ErrUnauthorized)
	}
	return parts[1], nil
}

// Resolve verifies an Authorization header and returns the caller's identity
func (g *Gate) Resolve(ctx context.Context, header string) (Identity, error) {
	if header == "" {
		return Identity{}, fmt.Errorf("missing authorization header: %w", biddingerrors.ErrUnauthorized)
	}

	token, err := BearerToken(header)
	if err != nil {
		return Identity{}, err
	}

	identity, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	if g.revoked != nil && identity.TokenID != "" {
		revoked, err := g.revoked.IsRevoked(ctx, identity.TokenID)
		if err != nil {
			return Identity{}, fmt.Errorf("gate: %w", err)
		}
		if revoked {
			return Identity{}, fmt.Errorf("token revoked: %w", biddingerrors.ErrUnauthorized)
		}
	}

	return identity, nil
}

// Revoke invalidates the identity's token for the rest of its lifetime.
// Without a revocation store this is a no-op.
func (g *Gate) Revoke(ctx context.Context, identity Identity) error {
	if g.revoked == nil || identity.TokenID == "" {
		return nil
	}
	return g.revoked.Revoke(ctx, identity.TokenID, identity.ExpiresAt.Sub(g.now()))
}

// RevocationEnabled reports whether logout is enforced server side
func (g *Gate) RevocationEnabled() bool {
	return g.revoked != nil
}
