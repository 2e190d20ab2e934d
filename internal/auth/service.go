package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-api/gatehouse-api/internal/shared"
	"github.com/gatehouse-api/gatehouse-api/internal/token"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	codec    *token.Codec
	tokenTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, codec *token.Codec, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, codec: codec, tokenTTL: tokenTTL}
}

// Authenticate validates email/password credentials. Every failure mode maps
// to the same error so the response does not leak which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a bearer token for an authenticated user.
func (s *Service) IssueToken(user *User) (signed string, expiresAt time.Time, err error) {
	signed, err = s.codec.Issue(user.ID, user.RoleID, s.tokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, time.Now().Add(s.tokenTTL), nil
}
