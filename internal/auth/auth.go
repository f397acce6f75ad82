// Package auth verifies identity-provider access tokens and admin membership.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotAdmin     = errors.New("admin access required")
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=auth
type RoleStore interface {
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}

const roleAdmin = "admin"

// Verifier checks HS256 tokens issued by the identity provider.
type Verifier struct {
	secret   []byte
	audience string
}

func NewVerifier(secret, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), audience: audience}
}

// Verify returns the user id carried in the token subject.
func (v *Verifier) Verify(tokenString string) (uuid.UUID, error) {
	if len(v.secret) == 0 || tokenString == "" {
		return uuid.Nil, ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}

	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid subject", ErrUnauthorized)
	}

	return userID, nil
}

// Authorizer resolves a bearer token to an admin user.
type Authorizer struct {
	verifier *Verifier
	roles    RoleStore
}

func NewAuthorizer(verifier *Verifier, roles RoleStore) *Authorizer {
	return &Authorizer{verifier: verifier, roles: roles}
}

// RequireAdmin returns the admin's user id, ErrUnauthorized for a bad token, or
// ErrNotAdmin when the user exists but lacks the admin role.
func (a *Authorizer) RequireAdmin(ctx context.Context, tokenString string) (uuid.UUID, error) {
	userID, err := a.verifier.Verify(tokenString)
	if err != nil {
		return uuid.Nil, err
	}

	role, err := a.roles.GetRole(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading role: %w", err)
	}

	if role != roleAdmin {
		return uuid.Nil, ErrNotAdmin
	}

	return userID, nil
}
