package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

// AdminRepository is the review half of the materials repository.
type AdminRepository interface {
	ListPending(ctx context.Context) ([]models.Material, error)
	ListApproved(ctx context.Context) ([]models.Material, error)
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Confirmer is asked before every destructive admin action.
type Confirmer interface {
	Confirm(action string, id int64) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(action string, id int64) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(action string, id int64) bool {
	return f(action, id)
}

// Confirmed and Declined are fixed answers, used by the HTTP layer once the
// confirmation flag has been read from the request.
var (
	Confirmed Confirmer = ConfirmFunc(func(string, int64) bool { return true })
	Declined  Confirmer = ConfirmFunc(func(string, int64) bool { return false })
)

// AdminService loads the review partitions together and runs
// confirm, mutate, re-fetch cycles against them.
type AdminService struct {
	repo       AdminRepository
	fileOrigin string
	logger     *zap.Logger
	now        func() time.Time
	health     HealthInvalidator

	mu       sync.RWMutex
	snapshot *models.AdminSnapshot
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo AdminRepository, fileOrigin string, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, fileOrigin: fileOrigin, logger: logger, now: time.Now}
}

// WithHealthInvalidator registers the cache to clear when an action finds every backend offline.
func (s *AdminService) WithHealthInvalidator(health HealthInvalidator) *AdminService {
	s.health = health
	return s
}

// Load fetches pending and approved materials concurrently. The snapshot is
// replaced only after both fetches succeed; on failure the previous one stays.
func (s *AdminService) Load(ctx context.Context) (models.AdminSnapshot, error) {
	var pending, approved []models.Material

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.repo.ListPending(gctx)
		if err != nil {
			return err
		}
		pending = items
		return nil
	})
	g.Go(func() error {
		items, err := s.repo.ListApproved(gctx)
		if err != nil {
			return err
		}
		approved = items
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("admin partitions fetch failed", zap.Error(err))
		current, _ := s.Snapshot()
		return current, err
	}

	if pending == nil {
		pending = []models.Material{}
	}
	if approved == nil {
		approved = []models.Material{}
	}
	next := models.AdminSnapshot{Pending: pending, Approved: approved, LoadedAt: s.now().UTC()}

	s.mu.Lock()
	s.snapshot = &next
	s.mu.Unlock()
	return next, nil
}

// Snapshot returns the last published snapshot and whether one exists.
func (s *AdminService) Snapshot() (models.AdminSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return models.AdminSnapshot{Pending: []models.Material{}, Approved: []models.Material{}}, false
	}
	return *s.snapshot, true
}

// Approve marks a material approved after confirmation, then re-fetches both partitions.
func (s *AdminService) Approve(ctx context.Context, id int64, confirmer Confirmer) (models.AdminSnapshot, error) {
	return s.mutate(ctx, models.AdminActionApprove, id, confirmer, s.repo.Approve)
}

// Delete permanently removes a material after confirmation, then re-fetches both partitions.
func (s *AdminService) Delete(ctx context.Context, id int64, confirmer Confirmer) (models.AdminSnapshot, error) {
	return s.mutate(ctx, models.AdminActionDelete, id, confirmer, s.repo.Delete)
}

// Perform dispatches an action by name.
func (s *AdminService) Perform(ctx context.Context, action string, id int64, confirmer Confirmer) (models.AdminSnapshot, error) {
	switch action {
	case models.AdminActionApprove:
		return s.Approve(ctx, id, confirmer)
	case models.AdminActionDelete:
		return s.Delete(ctx, id, confirmer)
	default:
		current, _ := s.Snapshot()
		return current, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown admin action %q", action))
	}
}

func (s *AdminService) mutate(ctx context.Context, action string, id int64, confirmer Confirmer, fn func(context.Context, int64) error) (models.AdminSnapshot, error) {
	current, _ := s.Snapshot()
	if id <= 0 {
		return current, appErrors.Clone(appErrors.ErrValidation, "material id must be positive")
	}
	if confirmer == nil || !confirmer.Confirm(action, id) {
		return current, appErrors.Clone(appErrors.ErrConfirmationRequired, fmt.Sprintf("%s of material %d was not confirmed", action, id))
	}

	if err := fn(ctx, id); err != nil {
		s.logger.Warn("admin action failed", zap.String("action", action), zap.Int64("id", id), zap.Error(err))
		invalidateWhenOffline(ctx, s.health, err)
		return current, err
	}
	s.logger.Info("admin action applied", zap.String("action", action), zap.Int64("id", id))

	return s.Load(ctx)
}

// Dashboard projects a snapshot into display cards.
func (s *AdminService) Dashboard(snapshot models.AdminSnapshot) dto.AdminDashboardResponse {
	return dto.AdminDashboardResponse{
		Pending:       BuildCards(s.fileOrigin, snapshot.Pending),
		Approved:      BuildCards(s.fileOrigin, snapshot.Approved),
		PendingCount:  len(snapshot.Pending),
		ApprovedCount: len(snapshot.Approved),
		LoadedAt:      snapshot.LoadedAt,
	}
}
