package users

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-api/gatehouse-api/internal/platform/httpx"
	"github.com/gatehouse-api/gatehouse-api/internal/shared"

	_ "github.com/gatehouse-api/gatehouse-api/testing"
)

type stubRepo struct {
	users  map[int64]User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]User{}, nextID: 1}
}

func (s *stubRepo) CreateUser(_ context.Context, u User) (User, error) {
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return User{}, fmt.Errorf("users: create user: %w", httpx.ErrDuplicate)
		}
	}
	u.ID = s.nextID
	u.IsActive = true
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *stubRepo) GetUser(_ context.Context, id int64) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) ListUsers(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubRepo) UpdateUser(_ context.Context, u User) (User, error) {
	if _, ok := s.users[u.ID]; !ok {
		return User{}, shared.ErrNotFound
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type stubRoles struct{ id int64 }

func (s stubRoles) RoleIDByName(_ context.Context, name string) (int64, error) {
	if name != shared.RoleClient {
		return 0, shared.ErrNotFound
	}
	return s.id, nil
}

func registerParams() RegisterParams {
	return RegisterParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		Email:     "ada@example.com",
		Password:  "first-program",
	}
}

func TestRegisterHashesPasswordAndAssignsClientRole(t *testing.T) {
	repo := newStubRepo()
	service := NewService(repo, stubRoles{id: 7})

	user, err := service.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.RoleID != 7 {
		t.Fatalf("role id = %d, want 7", user.RoleID)
	}
	if user.PasswordHash == "first-program" {
		t.Fatal("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("first-program")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestUpdateUserAppliesOnlyProvidedFields(t *testing.T) {
	repo := newStubRepo()
	service := NewService(repo, stubRoles{id: 1})
	user, err := service.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	city := "London"
	updated, err := service.UpdateUser(context.Background(), user.ID, UpdateParams{City: &city})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != "London" {
		t.Fatalf("city = %q, want London", updated.City)
	}
	if updated.FirstName != "Ada" || updated.Email != "ada@example.com" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestUpdateUserEmptyParamsIsNoOp(t *testing.T) {
	repo := newStubRepo()
	service := NewService(repo, stubRoles{id: 1})
	user, err := service.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := service.UpdateUser(context.Background(), user.ID, UpdateParams{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != user {
		t.Fatalf("no-op update changed the user: %+v", got)
	}
}

func TestUpdateUserUnknownID(t *testing.T) {
	service := NewService(newStubRepo(), stubRoles{id: 1})
	city := "Paris"
	if _, err := service.UpdateUser(context.Background(), 99, UpdateParams{City: &city}); err != shared.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newStubRepo()
	service := NewService(repo, stubRoles{id: 1})
	user, err := service.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := service.DeleteUser(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.GetUser(context.Background(), user.ID); err != shared.ErrNotFound {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}
