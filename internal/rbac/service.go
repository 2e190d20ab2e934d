package rbac

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gatehouse-api/gatehouse-api/internal/shared"
)

// Service orchestrates permission administration and resolution. It is the
// sole writer of the permission cache: every mutation of role-permission links
// flows through here so the cache is updated only after the store transaction
// has committed.
type Service struct {
	store  Store
	cache  *Cache
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, cache *Cache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, audit: audit, logger: logger}
}

// Grant links a permission to a role. A duplicate grant returns
// GrantAlreadyExists without touching the cache. On a fresh grant the cache
// entry is invalidated and eagerly recomputed so the new permission becomes
// visible before the call returns.
func (s *Service) Grant(ctx context.Context, actorID, roleID, permissionID int64) (GrantOutcome, error) {
	created, err := s.store.AttachPermission(ctx, roleID, permissionID)
	if err != nil {
		return 0, err
	}
	if !created {
		return GrantAlreadyExists, nil
	}

	s.repopulate(ctx, roleID)
	s.recordAudit(ctx, actorID, "rbac.grant", "role_permission", roleID, permissionID)
	return GrantCreated, nil
}

// DeletePermission removes a permission entirely. The store transaction
// commits first; only then is the permission stripped from every affected
// role's cache entry, so a crash in between leaves the cache no more
// permissive than the store.
func (s *Service) DeletePermission(ctx context.Context, actorID, permissionID int64) error {
	name, affectedRoles, err := s.store.DeletePermission(ctx, permissionID)
	if err != nil {
		return err
	}

	for _, roleName := range affectedRoles {
		if err := s.cache.RemovePermission(ctx, roleName, name); err != nil {
			// RemovePermission already degraded to invalidation; the next read
			// repopulates from the store, which no longer holds the grant.
			s.logger.Warn("cache removal degraded to invalidation",
				slog.String("role", roleName),
				slog.String("permission", name),
				slog.Any("error", err))
		}
	}

	s.recordAudit(ctx, actorID, "rbac.delete_permission", "permission", permissionID, 0)
	return nil
}

// ListRolePermissions returns the permissions granted to a role and its name.
func (s *Service) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, string, error) {
	return s.store.RolePermissions(ctx, roleID)
}

// ResolvePermissions returns the permission names for a role, serving from the
// cache when possible. A cache miss repopulates; a cache failure falls back to
// the store, since the cache is an optimisation and never the source of truth.
func (s *Service) ResolvePermissions(ctx context.Context, role Role) ([]string, error) {
	names, ok, err := s.cache.Get(ctx, role.Name)
	if err != nil {
		s.logger.Warn("permission cache read failed, falling back to store",
			slog.String("role", role.Name), slog.Any("error", err))
	} else if ok {
		return names, nil
	}

	names, _, err = s.store.RolePermissionNames(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, role.Name, names); err != nil {
		s.logger.Warn("permission cache populate failed",
			slog.String("role", role.Name), slog.Any("error", err))
	}
	return names, nil
}

// RefreshRole recomputes and rewrites the cache entry for a role by name.
// Used by the warmup job and by cache repair paths.
func (s *Service) RefreshRole(ctx context.Context, roleName string) error {
	role, err := s.store.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	names, _, err := s.store.RolePermissionNames(ctx, role.ID)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, role.Name, names)
}

// RoleNames returns every role name known to the store.
func (s *Service) RoleNames(ctx context.Context) ([]string, error) {
	return s.store.ListRoleNames(ctx)
}

// CreatePermission inserts a new named capability.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errors.New("rbac: permission name required")
	}
	return s.store.CreatePermission(ctx, name, strings.TrimSpace(description))
}

// GetPermission fetches a permission by id.
func (s *Service) GetPermission(ctx context.Context, id int64) (Permission, error) {
	return s.store.GetPermission(ctx, id)
}

// UpdatePermission renames or redescribes a permission. Renames do not touch
// existing grants, so every affected role's cache entry is invalidated.
func (s *Service) UpdatePermission(ctx context.Context, id int64, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errors.New("rbac: permission name required")
	}
	prev, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	perm, err := s.store.UpdatePermission(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Permission{}, err
	}
	if prev.Name != perm.Name {
		s.invalidateRolesHolding(ctx)
	}
	return perm, nil
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// repopulate invalidates then eagerly rebuilds a role's cache entry. Failures
// leave the entry invalidated, which is safe: the next read goes to the store.
func (s *Service) repopulate(ctx context.Context, roleID int64) {
	names, roleName, err := s.store.RolePermissionNames(ctx, roleID)
	if err != nil {
		s.logger.Warn("cache repopulation read failed", slog.Int64("role_id", roleID), slog.Any("error", err))
		return
	}
	if err := s.cache.Invalidate(ctx, roleName); err != nil {
		s.logger.Warn("cache invalidate failed", slog.String("role", roleName), slog.Any("error", err))
	}
	if err := s.cache.Set(ctx, roleName, names); err != nil {
		s.logger.Warn("cache repopulate failed", slog.String("role", roleName), slog.Any("error", err))
	}
}

// invalidateRolesHolding drops every role's cache entry. Renames are rare and
// affect an unknown set of roles, so a full sweep is simpler than tracking.
func (s *Service) invalidateRolesHolding(ctx context.Context) {
	roleNames, err := s.store.ListRoleNames(ctx)
	if err != nil {
		s.logger.Warn("list roles for invalidation failed", slog.Any("error", err))
		return
	}
	for _, roleName := range roleNames {
		if err := s.cache.Invalidate(ctx, roleName); err != nil {
			s.logger.Warn("cache invalidate failed", slog.String("role", roleName), slog.Any("error", err))
		}
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID, permissionID int64) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{}
	if permissionID != 0 {
		meta["permission_id"] = permissionID
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
