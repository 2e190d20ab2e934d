package roles

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gatehouse-api/gatehouse-api/internal/shared"
)

// Store defines persistence operations for role management.
type Store interface {
	CreateRole(ctx context.Context, name, description string) (Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	RoleIDByName(ctx context.Context, name string) (int64, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) (string, int64, error)
}

// CacheInvalidator drops a role's cached permission set.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, roleName string) error
}

// Service orchestrates role management. Mutations that change how a role name
// maps to permissions drop the corresponding cache entry after the store has
// committed.
type Service struct {
	store  Store
	cache  CacheInvalidator
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, cache CacheInvalidator, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, audit: audit, logger: logger}
}

// CreateRole inserts a new named role.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	role, err := s.store.CreateRole(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actorID, "roles.create", role.ID, nil)
	return role, nil
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.store.GetRole(ctx, id)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// UpdateRole renames or redescribes a role. The cache is keyed by role name,
// so a rename drops both the old and the new entry.
func (s *Service) UpdateRole(ctx context.Context, actorID, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	prev, err := s.store.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	role, err := s.store.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	if prev.Name != role.Name {
		s.invalidate(ctx, prev.Name)
		s.invalidate(ctx, role.Name)
	}
	s.recordAudit(ctx, actorID, "roles.update", role.ID, nil)
	return role, nil
}

// DeleteRole removes a role together with its permission links and every user
// holding it. The store transaction commits first; the cache entry is dropped
// afterwards so a crash in between leaves only a harmless orphaned entry that
// no user can resolve to.
func (s *Service) DeleteRole(ctx context.Context, actorID, id int64) error {
	name, usersRemoved, err := s.store.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, name)
	s.recordAudit(ctx, actorID, "roles.delete", id, map[string]any{"users_removed": usersRemoved})
	return nil
}

func (s *Service) invalidate(ctx context.Context, roleName string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, roleName); err != nil {
		s.logger.Warn("cache invalidate failed", slog.String("role", roleName), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
