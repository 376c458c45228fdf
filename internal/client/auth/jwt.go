// Package auth decodes federated ID tokens and provides a development token
// issuer standing in for the hosted login flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/turbouploader/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the session needs from a token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// GenerateToken issues an HS256 token for subject valid for validity after now.
func GenerateToken(subject string, secret []byte, validity time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
	})
	return token.SignedString(secret)
}

// ParseToken decodes raw and checks its expiry against now. With an empty
// secret the signature is not verified (the hosted login already did that);
// otherwise it must be a valid HS256 signature under secret.
func ParseToken(raw string, secret []byte, now time.Time) (*TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}

	if len(secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
		}
	} else {
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
		}
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}
	exp := claims.ExpiresAt.Time
	if !now.Before(exp) {
		return nil, common.ErrTokenExpired
	}
	return &TokenInfo{Subject: claims.Subject, ExpiresAt: exp}, nil
}

// DevProvider issues tokens for a fixed subject without any user
// interaction. It is the login collaborator of local deployments.
type DevProvider struct {
	Subject  string
	Secret   []byte
	Validity time.Duration
	Now      func() time.Time

	mu      sync.Mutex
	revoked map[string]bool
}

var ErrNoSubject = errors.New("login provider has no subject configured")

// Login returns a fresh token.
func (p *DevProvider) Login(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Subject == "" {
		return "", ErrNoSubject
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	validity := p.Validity
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	secret := p.Secret
	if len(secret) == 0 {
		secret = []byte(p.Subject)
	}
	return GenerateToken(p.Subject, secret, validity, now())
}

// Revoke marks token as logged out.
func (p *DevProvider) Revoke(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revoked == nil {
		p.revoked = make(map[string]bool)
	}
	p.revoked[token] = true
	return nil
}

// Revoked reports whether Revoke was called for token.
func (p *DevProvider) Revoked(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revoked[token]
}
