package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

type fakeStatusRepo struct {
	uploads     []models.Material
	names       []string
	status      string
	statusErr   error
	health      models.HealthResult
	healthCalls int
}

func (f *fakeStatusRepo) ListUserUploads(_ context.Context, name string) ([]models.Material, error) {
	f.names = append(f.names, name)
	return f.uploads, nil
}

func (f *fakeStatusRepo) UploadStatus(context.Context, int64) (string, error) {
	return f.status, f.statusErr
}

func (f *fakeStatusRepo) CheckHealth(context.Context) models.HealthResult {
	f.healthCalls++
	return f.health
}

type memoryCache struct {
	items map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.items, key)
	return nil
}

func TestStatusUserUploadsRequiresName(t *testing.T) {
	repo := &fakeStatusRepo{}
	svc := NewStatusService(repo, nil, 0, "", nil)

	_, err := svc.UserUploads(context.Background(), "   ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.names)
}

func TestStatusUserUploadsBuildsCards(t *testing.T) {
	repo := &fakeStatusRepo{uploads: []models.Material{
		{ID: 2, Title: "B", Approved: boolPtr(false)},
		{ID: 1, Title: "A", Approved: boolPtr(true)},
	}}
	svc := NewStatusService(repo, nil, 0, "", nil)

	cards, err := svc.UserUploads(context.Background(), " Asha ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Asha"}, repo.names)
	require.Len(t, cards, 2)
	assert.Equal(t, BadgePending, cards[0].Badge)
	assert.Equal(t, BadgeApproved, cards[1].Badge)
}

func TestStatusUploadStatus(t *testing.T) {
	svc := NewStatusService(&fakeStatusRepo{status: models.UploadStatusPending}, nil, 0, "", nil)

	resp, err := svc.UploadStatus(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, models.UploadStatusPending, resp.Status)

	_, err = svc.UploadStatus(context.Background(), -1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStatusHealthUsesCache(t *testing.T) {
	repo := &fakeStatusRepo{health: models.HealthResult{Online: true, BaseURL: "http://a", Status: "ok"}}
	metrics := NewMetricsService()
	cache := NewCacheService(&memoryCache{items: map[string][]byte{}}, metrics, time.Minute, nil, true)
	svc := NewStatusService(repo, cache, time.Minute, "", nil)

	first := svc.Health(context.Background())
	second := svc.Health(context.Background())

	assert.Equal(t, 1, repo.healthCalls)
	assert.True(t, second.Online)
	assert.Equal(t, first.BaseURL, second.BaseURL)
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheHits)
}

func TestStatusHealthWithoutCacheProbesEveryTime(t *testing.T) {
	repo := &fakeStatusRepo{health: models.HealthResult{Status: models.HealthStatusOffline}}
	svc := NewStatusService(repo, nil, 0, "", nil)

	svc.Health(context.Background())
	result := svc.Health(context.Background())

	assert.Equal(t, 2, repo.healthCalls)
	assert.False(t, result.Online)
}

func TestStatusInvalidateHealthDropsSnapshot(t *testing.T) {
	repo := &fakeStatusRepo{health: models.HealthResult{Online: true, BaseURL: "http://a", Status: "ok"}}
	store := &memoryCache{items: map[string][]byte{}}
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	svc := NewStatusService(repo, cache, time.Minute, "", nil)

	svc.Health(context.Background())
	require.Contains(t, store.items, healthCacheKey)

	svc.InvalidateHealth(context.Background())
	assert.NotContains(t, store.items, healthCacheKey)

	repo.health = models.HealthResult{Status: models.HealthStatusOffline}
	result := svc.Health(context.Background())
	assert.False(t, result.Online)
	assert.Equal(t, 2, repo.healthCalls)
}

func TestOfflineWritesClearCachedHealth(t *testing.T) {
	repo := &fakeStatusRepo{health: models.HealthResult{Online: true, BaseURL: "http://a", Status: "ok"}}
	store := &memoryCache{items: map[string][]byte{}}
	status := NewStatusService(repo, NewCacheService(store, nil, time.Minute, nil, true), time.Minute, "", nil)
	offline := appErrors.Clone(appErrors.ErrAllBackendsOffline, "all 2 backends are unreachable")

	status.Health(context.Background())
	uploads := NewUploadService(&fakeUploader{err: offline}, nil, 1024, nil).WithHealthInvalidator(status)
	_, err := uploads.Submit(context.Background(), validUpload(), pdfFile("data"))
	require.Error(t, err)
	assert.NotContains(t, store.items, healthCacheKey)

	status.Health(context.Background())
	admin := NewAdminService(&fakeAdminRepo{mutateErr: offline}, "", nil).WithHealthInvalidator(status)
	_, err = admin.Delete(context.Background(), 1, Confirmed)
	require.Error(t, err)
	assert.NotContains(t, store.items, healthCacheKey)

	status.Health(context.Background())
	rejected := NewAdminService(&fakeAdminRepo{mutateErr: appErrors.Clone(appErrors.ErrUpstreamRejected, "400")}, "", nil).WithHealthInvalidator(status)
	_, err = rejected.Delete(context.Background(), 1, Confirmed)
	require.Error(t, err)
	assert.Contains(t, store.items, healthCacheKey, "a rejection means a backend answered")
}
