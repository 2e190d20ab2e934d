package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatehouse-api/gatehouse-api/internal/shared"
)

// Bootstrap idempotently seeds the permission and role registries and grants
// every known permission to the admin role. Safe to run on every startup:
// create-if-absent semantics mean a second run changes nothing.
func Bootstrap(ctx context.Context, service *Service, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, scope := range shared.AllScopes() {
		created, err := service.store.EnsurePermission(ctx, scope, "")
		if err != nil {
			return fmt.Errorf("rbac: ensure permission %q: %w", scope, err)
		}
		if created {
			logger.Info("seeded permission", slog.String("name", scope))
		}
	}

	for _, roleName := range shared.SeedRoles() {
		created, err := service.store.EnsureRole(ctx, roleName, "")
		if err != nil {
			return fmt.Errorf("rbac: ensure role %q: %w", roleName, err)
		}
		if created {
			logger.Info("seeded role", slog.String("name", roleName))
		}
	}

	admin, err := service.store.GetRoleByName(ctx, shared.RoleAdmin)
	if err != nil {
		return fmt.Errorf("rbac: load admin role: %w", err)
	}
	perms, err := service.store.ListPermissions(ctx)
	if err != nil {
		return fmt.Errorf("rbac: list permissions: %w", err)
	}
	granted := 0
	for _, perm := range perms {
		created, err := service.store.AttachPermission(ctx, admin.ID, perm.ID)
		if err != nil {
			return fmt.Errorf("rbac: grant %q to admin: %w", perm.Name, err)
		}
		if created {
			granted++
		}
	}
	if granted > 0 {
		logger.Info("granted permissions to admin role", slog.Int("count", granted))
	}

	// Warm the admin entry so the first authorized request skips a store read.
	if err := service.RefreshRole(ctx, admin.Name); err != nil {
		logger.Warn("warm admin cache", slog.Any("error", err))
	}
	return nil
}
