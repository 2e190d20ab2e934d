package users

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-api/gatehouse-api/internal/rbac"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	service := NewService(newStubRepo(), stubRoles{id: 3})
	handler := NewHandler(slog.New(slog.DiscardHandler), service, rbac.Guard{})
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func postRegister(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t)
	rec := postRegister(t, router, `{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"username": "ada",
		"email": "ada@example.com",
		"password": "first-program"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "first-program", "response must not leak the password")
	assert.Contains(t, rec.Body.String(), `"username":"ada"`)
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(t)
	rec := postRegister(t, router, `{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"username": "ada",
		"email": "ada@example.com",
		"password": "first-program",
		"role_id": 1
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	router := newTestRouter(t)
	rec := postRegister(t, router, `{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"username": "ada",
		"email": "ada@example.com",
		"password": "short"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	router := newTestRouter(t)
	body := `{
		"first_name": "Ada",
		"last_name": "Lovelace",
		"username": "ada",
		"email": "ada@example.com",
		"password": "first-program"
	}`
	require.Equal(t, http.StatusCreated, postRegister(t, router, body).Code)
	assert.Equal(t, http.StatusConflict, postRegister(t, router, body).Code)
}

func TestGuardedRoutesRejectAnonymousCallers(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/", "/me", "/1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "GET %s", path)
	}
}
