package auth

import (
	"crypto/subtle"

	"github.com/alicomputer/retail-pos/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

// DefaultDemoSecret is the shared password of the demo accounts.
const DefaultDemoSecret = "password123"

// CredentialVerifier decides whether secret unlocks ident.
// The demo implementations share one secret across every identity and are not a
// security boundary.
type CredentialVerifier interface {
	Verify(ident *identity.Identity, secret string) bool
}

// StaticSecret accepts exactly one configured secret.
type StaticSecret struct {
	secret []byte
}

func NewStaticSecret(secret string) *StaticSecret {
	return &StaticSecret{secret: []byte(secret)}
}

func (s *StaticSecret) Verify(_ *identity.Identity, secret string) bool {
	return subtle.ConstantTimeCompare(s.secret, []byte(secret)) == 1
}

// HashedSecret accepts the secret whose bcrypt hash is configured.
type HashedSecret struct {
	hash []byte
}

func NewHashedSecret(hash string) (*HashedSecret, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &HashedSecret{hash: []byte(hash)}, nil
}

func (h *HashedSecret) Verify(_ *identity.Identity, secret string) bool {
	return bcrypt.CompareHashAndPassword(h.hash, []byte(secret)) == nil
}

// HashSecret creates a bcrypt hash suitable for NewHashedSecret.
func HashSecret(secret string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
