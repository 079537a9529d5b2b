// internal/common/auth/verifier.go
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"loan-intake/internal/common/config"

	"golang.org/x/crypto/bcrypt"
)

var ErrVerifierNotConfigured = errors.New("no admin credential configured")

// Verifier decides whether a submitted admin password is acceptable.
type Verifier interface {
	Verify(ctx context.Context, password string) bool
}

// SharedSecretVerifier compares against a plaintext secret in constant time.
// An empty secret rejects everything, including an empty password.
type SharedSecretVerifier struct {
	secret []byte
}

func NewSharedSecretVerifier(secret string) *SharedSecretVerifier {
	return &SharedSecretVerifier{secret: []byte(secret)}
}

func (v *SharedSecretVerifier) Verify(_ context.Context, password string) bool {
	if len(v.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.secret, []byte(password)) == 1
}

// BcryptVerifier checks against a bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

func (v *BcryptVerifier) Verify(_ context.Context, password string) bool {
	if password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
}

// NewFromConfig prefers the hash when both credentials are set.
func NewFromConfig(cfg config.AuthConfig) (Verifier, error) {
	switch {
	case cfg.AdminPasswordHash != "":
		return NewBcryptVerifier(cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		return NewSharedSecretVerifier(cfg.AdminPassword), nil
	default:
		return nil, ErrVerifierNotConfigured
	}
}
