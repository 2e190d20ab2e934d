package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

const warmupConcurrency = 4

// PermissionWarmer recomputes cached permission sets per role.
type PermissionWarmer interface {
	RoleNames(ctx context.Context) ([]string, error)
	RefreshRole(ctx context.Context, roleName string) error
}

// CacheWarmupJob rebuilds the per-role permission cache so the first request
// after a deploy or cache flush does not pay the store round trip.
type CacheWarmupJob struct {
	Warmer PermissionWarmer
	Logger *slog.Logger
	clock  func() time.Time
}

// NewCacheWarmupJob wires dependencies for the warmup handler.
func NewCacheWarmupJob(warmer PermissionWarmer, logger *slog.Logger) *CacheWarmupJob {
	return &CacheWarmupJob{
		Warmer: warmer,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes permission cache warmup tasks.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("cache warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	start := j.now()

	roles := payload.Roles
	if len(roles) == 0 {
		var err error
		roles, err = j.Warmer.RoleNames(ctx)
		if err != nil {
			logger.Error("list roles for warmup", slog.Any("error", err))
			return err
		}
	}
	if len(roles) == 0 {
		logger.Info("no roles to warm")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, roleName := range roles {
		g.Go(func() error {
			if err := j.Warmer.RefreshRole(gctx, roleName); err != nil {
				logger.Error("refresh role cache", slog.String("role", roleName), slog.Any("error", err))
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("completed cache warmup",
		slog.Int("roles", len(roles)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPermissionCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskPermissionCacheWarmup))
}

func (j *CacheWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
