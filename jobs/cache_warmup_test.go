package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/hibiken/asynq"

	_ "github.com/gatehouse-api/gatehouse-api/testing"
)

type stubWarmer struct {
	mu        sync.Mutex
	roles     []string
	refreshed []string
	failRole  string
}

func (s *stubWarmer) RoleNames(context.Context) ([]string, error) {
	return s.roles, nil
}

func (s *stubWarmer) RefreshRole(_ context.Context, roleName string) error {
	if roleName == s.failRole {
		return errors.New("redis unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshed = append(s.refreshed, roleName)
	return nil
}

func warmupTask(t *testing.T, payload CacheWarmupPayload) *asynq.Task {
	t.Helper()
	task, err := NewCacheWarmupTask(payload)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func TestCacheWarmupRefreshesEveryRole(t *testing.T) {
	warmer := &stubWarmer{roles: []string{"admin", "client", "auditor"}}
	job := NewCacheWarmupJob(warmer, slog.New(slog.DiscardHandler))

	if err := job.Handle(context.Background(), warmupTask(t, CacheWarmupPayload{})); err != nil {
		t.Fatalf("handle: %v", err)
	}
	sort.Strings(warmer.refreshed)
	want := []string{"admin", "auditor", "client"}
	if len(warmer.refreshed) != len(want) {
		t.Fatalf("refreshed = %v, want %v", warmer.refreshed, want)
	}
	for i, name := range want {
		if warmer.refreshed[i] != name {
			t.Fatalf("refreshed = %v, want %v", warmer.refreshed, want)
		}
	}
}

func TestCacheWarmupHonoursExplicitRoleList(t *testing.T) {
	warmer := &stubWarmer{roles: []string{"admin", "client"}}
	job := NewCacheWarmupJob(warmer, slog.New(slog.DiscardHandler))

	if err := job.Handle(context.Background(), warmupTask(t, CacheWarmupPayload{Roles: []string{"client"}})); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(warmer.refreshed) != 1 || warmer.refreshed[0] != "client" {
		t.Fatalf("refreshed = %v, want [client]", warmer.refreshed)
	}
}

func TestCacheWarmupPropagatesRefreshFailure(t *testing.T) {
	warmer := &stubWarmer{roles: []string{"admin", "client"}, failRole: "client"}
	job := NewCacheWarmupJob(warmer, slog.New(slog.DiscardHandler))

	if err := job.Handle(context.Background(), warmupTask(t, CacheWarmupPayload{})); err == nil {
		t.Fatal("expected error when a refresh fails")
	}
}

func TestCacheWarmupSkipsRetryOnCorruptPayload(t *testing.T) {
	job := NewCacheWarmupJob(&stubWarmer{}, slog.New(slog.DiscardHandler))
	task := asynq.NewTask(TaskPermissionCacheWarmup, []byte("not-json"))

	err := job.Handle(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}

func TestCacheWarmupPayloadRoundTrip(t *testing.T) {
	task := warmupTask(t, CacheWarmupPayload{Roles: []string{"admin"}})
	var payload CacheWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Roles) != 1 || payload.Roles[0] != "admin" {
		t.Fatalf("payload = %+v", payload)
	}
}
