package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatehouse-api/gatehouse-api/internal/platform/httpx"
	"github.com/gatehouse-api/gatehouse-api/internal/shared"
	"github.com/gatehouse-api/gatehouse-api/internal/token"
)

// Guard is the request-time authorization gate. Each protected route declares
// the one capability it requires; the guard verifies the bearer token,
// resolves the caller's role fresh from the store and checks membership of the
// required permission in the role's resolved set.
type Guard struct {
	Codec   *token.Codec
	Service *Service
	Logger  *slog.Logger
}

// Require returns middleware enforcing the named permission. An empty name
// only requires a valid authenticated caller.
func (g Guard) Require(permission string) func(http.Handler) http.Handler {
	required := shared.NormalizeScope(permission)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.authenticate(r)
			if err != nil {
				if isAuthFailure(err) {
					httpx.RespondError(w, httpx.ErrUnauthorized)
				} else {
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				}
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), principal)

			if required == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			granted, err := g.Service.ResolvePermissions(ctx, Role{ID: principal.RoleID, Name: principal.RoleName})
			if err != nil {
				if g.Logger != nil {
					g.Logger.Error("resolve permissions", slog.String("role", principal.RoleName), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !hasPermission(granted, required) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth admits any caller holding a valid token.
func (g Guard) RequireAuth() func(http.Handler) http.Handler {
	return g.Require("")
}

// authenticate verifies the bearer token and resolves the caller's role. A
// subject that no longer maps to a user is an authentication failure, not a
// server error.
func (g Guard) authenticate(r *http.Request) (shared.Principal, error) {
	raw, err := token.FromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return shared.Principal{}, err
	}
	claims, err := g.Codec.Verify(raw)
	if err != nil {
		return shared.Principal{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return shared.Principal{}, err
	}
	role, err := g.Service.store.FindUserRole(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) && g.Logger != nil {
			g.Logger.Error("resolve user role", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return shared.Principal{}, err
	}
	return shared.Principal{UserID: userID, RoleID: role.ID, RoleName: role.Name}, nil
}

// isAuthFailure separates caller mistakes (absent, malformed or expired
// credentials, vanished subjects) from store outages.
func isAuthFailure(err error) bool {
	return errors.Is(err, token.ErrMissingAuthorization) ||
		errors.Is(err, token.ErrMalformed) ||
		errors.Is(err, token.ErrExpired) ||
		errors.Is(err, shared.ErrNotFound)
}

func hasPermission(granted []string, required string) bool {
	for _, name := range granted {
		if shared.NormalizeScope(name) == required {
			return true
		}
	}
	return false
}
