package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/codewithsadee/blog-api/pkg/jobs"
)

// Background job types handled by the maintenance queue.
const (
	jobTokenPurge    = "token_purge"
	jobBannerCleanup = "banner_cleanup"
)

type expiredTokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type bannerRemover interface {
	Delete(name string) error
}

// MaintenanceService processes background jobs: purging expired refresh
// tokens from the registry and removing orphaned banner files.
type MaintenanceService struct {
	tokens  expiredTokenPurger
	storage bannerRemover
	logger  *zap.Logger
}

// NewMaintenanceService constructs a MaintenanceService instance.
func NewMaintenanceService(tokens expiredTokenPurger, storage bannerRemover, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{tokens: tokens, storage: storage, logger: logger}
}

// TokenPurgeJob builds a job that sweeps expired refresh tokens.
func TokenPurgeJob(id string) jobs.Job {
	return jobs.Job{ID: id, Type: jobTokenPurge}
}

// Handle dispatches one queued job. Wired as the queue handler.
func (s *MaintenanceService) Handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTokenPurge:
		return s.purgeTokens(ctx)
	case jobBannerCleanup:
		return s.cleanupBanners(job)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (s *MaintenanceService) purgeTokens(ctx context.Context) error {
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged expired refresh tokens", zap.Int64("count", n))
	}
	return nil
}

func (s *MaintenanceService) cleanupBanners(job jobs.Job) error {
	paths, ok := job.Payload.([]string)
	if !ok {
		return fmt.Errorf("banner cleanup payload must be []string, got %T", job.Payload)
	}
	for _, path := range paths {
		if err := s.storage.Delete(path); err != nil {
			s.logger.Warn("failed to remove banner file", zap.Error(err), zap.String("path", path))
		}
	}
	return nil
}
