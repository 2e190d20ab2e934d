package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-api/gatehouse-api/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// RoleResolver looks up the default role assigned at registration.
type RoleResolver interface {
	RoleIDByName(ctx context.Context, name string) (int64, error)
}

// RegisterParams carries the fields accepted at registration.
type RegisterParams struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Contact   string
	Address   string
	City      string
	Country   string
	Password  string
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleResolver
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleResolver) *Service {
	return &Service{repo: repo, roles: roles}
}

// Register creates a user with the default client role.
func (s *Service) Register(ctx context.Context, params RegisterParams) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	roleID, err := s.roles.RoleIDByName(ctx, shared.RoleClient)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Username:     params.Username,
		Email:        params.Email,
		Contact:      params.Contact,
		Address:      params.Address,
		City:         params.City,
		Country:      params.Country,
		PasswordHash: string(hash),
		RoleID:       roleID,
	})
}

// GetUser fetches a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUser applies a partial update to the declared mutable fields only.
func (s *Service) UpdateUser(ctx context.Context, id int64, params UpdateParams) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if params.Empty() {
		return user, nil
	}
	params.Apply(&user)
	return s.repo.UpdateUser(ctx, user)
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
