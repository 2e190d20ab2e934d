package roles

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gatehouse-api/gatehouse-api/internal/platform/httpx"
	"github.com/gatehouse-api/gatehouse-api/internal/shared"

	_ "github.com/gatehouse-api/gatehouse-api/testing"
)

type stubStore struct {
	roles  map[int64]Role
	users  map[int64]int64 // user id -> role id
	nextID int64
}

func newStubStore() *stubStore {
	return &stubStore{roles: map[int64]Role{}, users: map[int64]int64{}, nextID: 1}
}

func (s *stubStore) addUser(userID, roleID int64) {
	s.users[userID] = roleID
}

func (s *stubStore) CreateRole(_ context.Context, name, description string) (Role, error) {
	for _, role := range s.roles {
		if role.Name == name {
			return Role{}, httpx.ErrDuplicate
		}
	}
	role := Role{ID: s.nextID, Name: name, Description: description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.nextID++
	s.roles[role.ID] = role
	return role, nil
}

func (s *stubStore) GetRole(_ context.Context, id int64) (Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (s *stubStore) RoleIDByName(_ context.Context, name string) (int64, error) {
	for _, role := range s.roles {
		if role.Name == name {
			return role.ID, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (s *stubStore) ListRoles(_ context.Context) ([]Role, error) {
	out := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *stubStore) UpdateRole(_ context.Context, id int64, name, description string) (Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	role.Name = name
	role.Description = description
	s.roles[id] = role
	return role, nil
}

func (s *stubStore) DeleteRole(_ context.Context, id int64) (string, int64, error) {
	role, ok := s.roles[id]
	if !ok {
		return "", 0, shared.ErrNotFound
	}
	var removed int64
	for userID, roleID := range s.users {
		if roleID == id {
			delete(s.users, userID)
			removed++
		}
	}
	delete(s.roles, id)
	return role.Name, removed, nil
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, roleName string) error {
	c.invalidated = append(c.invalidated, roleName)
	return nil
}

func newTestService() (*Service, *stubStore, *recordingCache) {
	store := newStubStore()
	cache := &recordingCache{}
	return NewService(store, cache, nil, slog.New(slog.DiscardHandler)), store, cache
}

func TestCreateRole(t *testing.T) {
	service, _, _ := newTestService()
	role, err := service.CreateRole(context.Background(), 1, "auditor", "read-only access")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if role.ID == 0 || role.Name != "auditor" {
		t.Fatalf("unexpected role: %+v", role)
	}

	if _, err := service.CreateRole(context.Background(), 1, "auditor", ""); err != httpx.ErrDuplicate {
		t.Fatalf("duplicate create err = %v, want ErrDuplicate", err)
	}
	if _, err := service.CreateRole(context.Background(), 1, "  ", ""); err == nil {
		t.Fatal("blank name accepted")
	}
}

func TestRenameRoleDropsBothCacheEntries(t *testing.T) {
	service, _, cache := newTestService()
	role, err := service.CreateRole(context.Background(), 1, "auditor", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.UpdateRole(context.Background(), 1, role.ID, "reviewer", ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cache.invalidated) != 2 || cache.invalidated[0] != "auditor" || cache.invalidated[1] != "reviewer" {
		t.Fatalf("invalidated = %v, want [auditor reviewer]", cache.invalidated)
	}
}

func TestUpdateRoleSameNameSkipsInvalidation(t *testing.T) {
	service, _, cache := newTestService()
	role, err := service.CreateRole(context.Background(), 1, "auditor", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.UpdateRole(context.Background(), 1, role.ID, "auditor", "new description"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cache.invalidated) != 0 {
		t.Fatalf("invalidated = %v, want none", cache.invalidated)
	}
}

func TestDeleteRoleRemovesUsersAndDropsCacheEntry(t *testing.T) {
	service, store, cache := newTestService()
	role, err := service.CreateRole(context.Background(), 1, "auditor", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.addUser(10, role.ID)
	store.addUser(11, role.ID)
	store.addUser(12, 999)

	if err := service.DeleteRole(context.Background(), 1, role.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.GetRole(context.Background(), role.ID); err != shared.ErrNotFound {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("users holding other roles must survive: %v", store.users)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "auditor" {
		t.Fatalf("invalidated = %v, want [auditor]", cache.invalidated)
	}
}

func TestDeleteRoleUnknownID(t *testing.T) {
	service, _, cache := newTestService()
	if err := service.DeleteRole(context.Background(), 1, 42); err != shared.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(cache.invalidated) != 0 {
		t.Fatalf("cache touched on failed delete: %v", cache.invalidated)
	}
}
