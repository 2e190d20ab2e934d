// Package token signs and verifies the bearer tokens that identify API callers.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired indicates the embedded expiry has passed.
	ErrExpired = errors.New("token: expired")
	// ErrMalformed indicates a token that fails structural or signature checks.
	ErrMalformed = errors.New("token: malformed")
	// ErrMissingAuthorization indicates no bearer credential was presented.
	ErrMissingAuthorization = errors.New("token: authorization missing")
	// ErrNoSigningKey indicates a verify-only codec was asked to issue.
	ErrNoSigningKey = errors.New("token: signing key not configured")
)

// Claims carried by issued tokens. The role id is informational; the guard
// resolves the caller's role fresh from the subject on every request so a
// role change invalidates older tokens implicitly.
type Claims struct {
	RoleID int64 `json:"role_id"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrMalformed, c.Subject)
	}
	return id, nil
}

// Codec issues RS256 tokens with the private key and verifies with the public
// key, so verify-only processes never hold signing material.
type Codec struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	issuer  string
	clock   func() time.Time
}

// NewCodec constructs a codec from in-memory keys. private may be nil for a
// verify-only codec.
func NewCodec(private *rsa.PrivateKey, public *rsa.PublicKey, issuer string) (*Codec, error) {
	if public == nil {
		return nil, errors.New("token: public key required")
	}
	return &Codec{private: private, public: public, issuer: issuer, clock: time.Now}, nil
}

// LoadCodec reads PEM encoded keys from disk. privatePath may be empty.
func LoadCodec(privatePath, publicPath, issuer string) (*Codec, error) {
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("token: read public key: %w", err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("token: parse public key: %w", err)
	}

	var private *rsa.PrivateKey
	if privatePath != "" {
		privatePEM, err := os.ReadFile(privatePath)
		if err != nil {
			return nil, fmt.Errorf("token: read private key: %w", err)
		}
		private, err = jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("token: parse private key: %w", err)
		}
	}

	return NewCodec(private, public, issuer)
}

// Issue signs a token for the given user and role, valid for ttl.
func (c *Codec) Issue(userID, roleID int64, ttl time.Duration) (string, error) {
	if c.private == nil {
		return "", ErrNoSigningKey
	}
	now := c.clock()
	claims := &Claims{
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.private)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.public, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(c.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// FromAuthorizationHeader extracts the bearer token from an Authorization
// header value.
func FromAuthorizationHeader(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthorization
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMalformed
	}
	return strings.TrimSpace(parts[1]), nil
}
