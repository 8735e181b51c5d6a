package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

// MaterialUploader is the upload half of the materials repository.
type MaterialUploader interface {
	UploadMaterial(ctx context.Context, payload models.UploadPayload) (*models.Material, error)
}

// UploadFile is the file part of a submission.
type UploadFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// UploadService validates student submissions and forwards them upstream.
type UploadService struct {
	uploader  MaterialUploader
	validator *validator.Validate
	maxBytes  int64
	logger    *zap.Logger
	health    HealthInvalidator
}

// NewUploadService constructs an UploadService.
func NewUploadService(uploader MaterialUploader, validate *validator.Validate, maxBytes int64, logger *zap.Logger) *UploadService {
	if validate == nil {
		validate = NewValidator()
	}
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{uploader: uploader, validator: validate, maxBytes: maxBytes, logger: logger}
}

// WithHealthInvalidator registers the cache to clear when an upload finds every backend offline.
func (s *UploadService) WithHealthInvalidator(health HealthInvalidator) *UploadService {
	s.health = health
	return s
}

// NewValidator returns a validator with the portal's custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("materialtype", func(fl validator.FieldLevel) bool {
		return IsKnownMaterialType(fl.Field().String())
	})
	return v
}

// IsKnownMaterialType reports whether value is one of the accepted upload types.
func IsKnownMaterialType(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, known := range models.KnownMaterialTypes {
		if value == known {
			return true
		}
	}
	return false
}

// MaxBytes is the largest accepted file.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Submit validates the request, buffers the file and uploads it.
func (s *UploadService) Submit(ctx context.Context, req dto.UploadMaterialRequest, file *UploadFile) (*models.Material, error) {
	req = normalizeUpload(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, describeValidation(err))
	}
	if file == nil || file.Reader == nil || strings.TrimSpace(file.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	data, err := io.ReadAll(io.LimitReader(file.Reader, s.maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read uploaded file")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %s limit", humanSize(s.maxBytes)))
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}

	payload := models.UploadPayload{
		Fields: []models.FormField{
			{Name: "title", Value: req.Title},
			{Name: "description", Value: req.Description},
			{Name: "subject", Value: req.Subject},
			{Name: "semester", Value: req.Semester},
			{Name: "groupName", Value: req.GroupName},
			{Name: "uploadYear", Value: req.UploadYear},
			{Name: "type", Value: req.Type},
			{Name: "uploaderName", Value: req.UploaderName},
		},
		FileName:    filepath.Base(file.Name),
		ContentType: file.ContentType,
		File:        data,
	}

	created, err := s.uploader.UploadMaterial(ctx, payload)
	if err != nil {
		s.logger.Warn("material upload failed", zap.String("title", req.Title), zap.Error(err))
		invalidateWhenOffline(ctx, s.health, err)
		return nil, err
	}
	s.logger.Info("material uploaded", zap.Int64("id", created.ID), zap.String("semester", req.Semester), zap.Int("bytes", len(data)))
	return created, nil
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func normalizeUpload(req dto.UploadMaterialRequest) dto.UploadMaterialRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Semester = strings.TrimSpace(req.Semester)
	req.GroupName = strings.TrimSpace(req.GroupName)
	req.UploadYear = strings.TrimSpace(req.UploadYear)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.UploaderName = strings.TrimSpace(req.UploaderName)
	return req
}

// describeValidation turns validator output into one readable sentence.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid upload payload"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "materialtype":
			msgs = append(msgs, fmt.Sprintf("type must be one of: %s", strings.Join(models.KnownMaterialTypes, ", ")))
		case "len", "numeric":
			msgs = append(msgs, field+" must be a four digit year")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
