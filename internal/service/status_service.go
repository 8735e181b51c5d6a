package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

const healthCacheKey = "upstream:health"

// HealthInvalidator drops the cached health snapshot.
type HealthInvalidator interface {
	InvalidateHealth(ctx context.Context)
}

// StatusRepository is the lookup half of the materials repository.
type StatusRepository interface {
	ListUserUploads(ctx context.Context, uploaderName string) ([]models.Material, error)
	UploadStatus(ctx context.Context, id int64) (string, error)
	CheckHealth(ctx context.Context) models.HealthResult
}

// StatusService answers "what happened to my upload" and "is the backend up".
type StatusService struct {
	repo       StatusRepository
	cache      *CacheService
	cacheTTL   time.Duration
	fileOrigin string
	logger     *zap.Logger
}

// NewStatusService constructs a StatusService. cache may be nil.
func NewStatusService(repo StatusRepository, cache *CacheService, cacheTTL time.Duration, fileOrigin string, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{repo: repo, cache: cache, cacheTTL: cacheTTL, fileOrigin: fileOrigin, logger: logger}
}

// UserUploads lists every submission made under a name, in upstream order.
func (s *StatusService) UserUploads(ctx context.Context, uploaderName string) ([]dto.MaterialCard, error) {
	name := strings.TrimSpace(uploaderName)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaderName is required")
	}
	items, err := s.repo.ListUserUploads(ctx, name)
	if err != nil {
		return nil, err
	}
	return BuildCards(s.fileOrigin, items), nil
}

// UploadStatus reports the review state of one submission.
func (s *StatusService) UploadStatus(ctx context.Context, id int64) (*dto.UploadStatusResponse, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "material id must be positive")
	}
	status, err := s.repo.UploadStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.UploadStatusResponse{ID: id, Status: status}, nil
}

// Health probes the candidates, serving a cached snapshot while it is fresh.
func (s *StatusService) Health(ctx context.Context) models.HealthResult {
	var cached models.HealthResult
	if hit, _ := s.cache.Get(ctx, healthCacheKey, &cached); hit {
		return cached
	}

	result := s.repo.CheckHealth(ctx)
	if !result.Online {
		s.logger.Warn("all upstream candidates offline", zap.Int("attempts", len(result.Attempts)))
	}
	_ = s.cache.Set(ctx, healthCacheKey, result, s.cacheTTL)
	return result
}

// InvalidateHealth forgets the cached snapshot so the next probe hits the candidates.
func (s *StatusService) InvalidateHealth(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, healthCacheKey); err != nil {
		s.logger.Warn("health snapshot invalidation failed", zap.Error(err))
	}
}

// invalidateWhenOffline clears the health snapshot after a write found every
// candidate unreachable; a cached "online" would otherwise outlive the outage.
func invalidateWhenOffline(ctx context.Context, health HealthInvalidator, err error) {
	if health != nil && errors.Is(err, appErrors.ErrAllBackendsOffline) {
		health.InvalidateHealth(ctx)
	}
}
