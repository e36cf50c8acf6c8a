package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alicomputer/retail-pos/internal/identity"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityCodec turns the session identity into the bytes kept in the store and back.
// Decode must wrap ErrCorruptState for anything it cannot trust.
type IdentityCodec interface {
	Encode(ident *identity.Identity) ([]byte, error)
	Decode(data []byte) (*identity.Identity, error)
}

// JSONCodec stores the identity as plain JSON.
type JSONCodec struct{}

func (JSONCodec) Encode(ident *identity.Identity) ([]byte, error) {
	return json.Marshal(ident)
}

func (JSONCodec) Decode(data []byte) (*identity.Identity, error) {
	var ident identity.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := ident.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &ident, nil
}

// IdentityClaims is the JWT body written by SignedCodec.
type IdentityClaims struct {
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      identity.Role `json:"role"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	jwt.RegisteredClaims
}

// SignedCodec stores the identity as an HS256 token so a tampered entry reads as corrupt.
type SignedCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedCodec builds a codec signing with secret. A zero ttl writes tokens without expiry.
func NewSignedCodec(secret string, ttl time.Duration) *SignedCodec {
	return &SignedCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *SignedCodec) WithClock(now func() time.Time) *SignedCodec {
	cc := *c
	cc.now = now
	return &cc
}

func (c *SignedCodec) Encode(ident *identity.Identity) ([]byte, error) {
	now := c.now()
	claims := &IdentityClaims{
		Email:     ident.Email,
		Name:      ident.Name,
		Role:      ident.Role,
		IsActive:  ident.IsActive,
		CreatedAt: ident.CreatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  ident.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, err
	}
	return []byte(signed), nil
}

func (c *SignedCodec) Decode(data []byte) (*identity.Identity, error) {
	token, err := jwt.ParseWithClaims(string(data), &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrCorruptState)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrCorruptState)
	}

	ident := &identity.Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		CreatedAt: claims.CreatedAt,
		IsActive:  claims.IsActive,
	}
	if err := ident.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return ident, nil
}
