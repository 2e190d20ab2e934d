package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-api/gatehouse-api/internal/auth"
	"github.com/gatehouse-api/gatehouse-api/internal/shared"
	"github.com/gatehouse-api/gatehouse-api/internal/token"
	_ "github.com/gatehouse-api/gatehouse-api/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *token.Codec) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	codec, err := token.NewCodec(key, &key.PublicKey, "gatehouse-test")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	service := auth.NewService(repo, codec, time.Hour)
	return auth.NewHandler(slog.New(slog.DiscardHandler), service), codec
}

func seedUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &auth.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: string(hash),
		RoleID:       2,
		IsActive:     true,
	}
}

func postLogin(t *testing.T, handler *auth.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	handler.MountRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	user := seedUser(t, "correct-horse-battery")
	handler, codec := newAuthHandler(t, &stubRepo{user: user})

	rec := postLogin(t, handler, `{"email":"user@example.com","password":"correct-horse-battery"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := codec.Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected subject %d, got %d", user.ID, userID)
	}
	if claims.RoleID != user.RoleID {
		t.Fatalf("expected role %d, got %d", user.RoleID, claims.RoleID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := seedUser(t, "correct-horse-battery")
	handler, _ := newAuthHandler(t, &stubRepo{user: user})

	rec := postLogin(t, handler, `{"email":"user@example.com","password":"wrong-password1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	rec := postLogin(t, handler, `{"email":"ghost@example.com","password":"whatever-pass"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	user := seedUser(t, "correct-horse-battery")
	user.IsActive = false
	handler, _ := newAuthHandler(t, &stubRepo{user: user})

	rec := postLogin(t, handler, `{"email":"user@example.com","password":"correct-horse-battery"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive user, got %d", rec.Code)
	}
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	rec := postLogin(t, handler, `{"email":"not-an-email","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
