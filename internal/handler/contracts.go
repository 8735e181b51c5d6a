package handler

import (
	"context"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	"github.com/noah-isme/study-portal/internal/service"
)

// CatalogReader is the subset of the catalog service used by handlers.
type CatalogReader interface {
	List(ctx context.Context, selection models.FilterSelection) dto.ListingView
	Reset(ctx context.Context, semester string) dto.ListingView
	Recent(ctx context.Context, limit int) []dto.MaterialCard
	Export(ctx context.Context, selection models.FilterSelection, format string) (*service.ExportResult, error)
	Options() service.CatalogOptions
}

// UploadSubmitter accepts student submissions.
type UploadSubmitter interface {
	Submit(ctx context.Context, req dto.UploadMaterialRequest, file *service.UploadFile) (*models.Material, error)
	MaxBytes() int64
}

// StatusReader answers upload and backend status lookups.
type StatusReader interface {
	UserUploads(ctx context.Context, uploaderName string) ([]dto.MaterialCard, error)
	UploadStatus(ctx context.Context, id int64) (*dto.UploadStatusResponse, error)
	Health(ctx context.Context) models.HealthResult
}

// AdminWorkflow drives the review dashboard.
type AdminWorkflow interface {
	Load(ctx context.Context) (models.AdminSnapshot, error)
	Perform(ctx context.Context, action string, id int64, confirmer service.Confirmer) (models.AdminSnapshot, error)
	Dashboard(snapshot models.AdminSnapshot) dto.AdminDashboardResponse
}
