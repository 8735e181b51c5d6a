package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

// Operation names used in attempt logs and metrics.
const (
	OpListMaterials = "list_materials"
	OpUpload        = "upload_material"
	OpHealth        = "health"
	OpListPending   = "admin_pending"
	OpListApproved  = "admin_approved"
	OpApprove       = "admin_approve"
	OpDelete        = "admin_delete"
	OpUserUploads   = "user_uploads"
	OpUploadStatus  = "upload_status"
)

// MaterialRepository exposes the remote materials API over the resilient client.
type MaterialRepository struct {
	client *UpstreamClient
	logger *zap.Logger
}

// NewMaterialRepository constructs a repository.
func NewMaterialRepository(client *UpstreamClient, logger *zap.Logger) *MaterialRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialRepository{client: client, logger: logger}
}

// ListMaterials returns the first successful listing. When every candidate
// fails, or the payload has an unexpected shape, it returns an empty list:
// the caller renders that exactly like "no data".
func (r *MaterialRepository) ListMaterials(ctx context.Context, query url.Values) models.MaterialList {
	resp, err := r.client.do(ctx, upstreamRequest{
		operation: OpListMaterials,
		method:    http.MethodGet,
		path:      "/materials",
		query:     compactQuery(query),
	})
	if err != nil {
		r.logger.Warn("listing degraded to empty result", zap.Error(err))
		return models.EmptyMaterialList()
	}
	list, ok := decodeMaterialList(resp.Body)
	if !ok {
		r.logger.Warn("listing payload has unexpected shape", zap.String("base_url", resp.BaseURL), zap.String("body", snippet(resp.Body)))
	}
	return list
}

// UploadMaterial submits a multipart upload, failing over on connectivity
// problems and 5xx answers only. The same encoded body is replayed per attempt.
func (r *MaterialRepository) UploadMaterial(ctx context.Context, payload models.UploadPayload) (*models.Material, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode upload")
	}
	resp, err := r.client.do(ctx, upstreamRequest{
		operation:   OpUpload,
		method:      http.MethodPost,
		path:        "/uploads",
		body:        body,
		contentType: contentType,
		write:       true,
	})
	if err != nil {
		return nil, writeError(err)
	}

	var created models.Material
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, &created); err != nil {
			// The backend accepted the file; an odd acknowledgement is not worth failing the submission.
			r.logger.Warn("upload acknowledgement not decodable", zap.String("base_url", resp.BaseURL), zap.Error(err))
		}
	}
	return &created, nil
}

// CheckHealth probes each candidate's /health and reports the first reachable one.
func (r *MaterialRepository) CheckHealth(ctx context.Context) models.HealthResult {
	resp, err := r.client.do(ctx, upstreamRequest{
		operation: OpHealth,
		method:    http.MethodGet,
		path:      "/health",
	})
	now := time.Now().UTC()
	if err != nil {
		result := models.HealthResult{Status: models.HealthStatusOffline, Message: "all backends are offline", ObservedAt: now}
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) {
			result.Attempts = exhausted.Attempts
		}
		return result
	}

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.Body, &payload)
	if payload.Status == "" {
		payload.Status = "ok"
	}
	return models.HealthResult{
		Online:     true,
		BaseURL:    resp.BaseURL,
		Status:     payload.Status,
		Message:    payload.Message,
		Attempts:   resp.Attempts,
		ObservedAt: now,
	}
}

// ListPending returns materials awaiting review.
func (r *MaterialRepository) ListPending(ctx context.Context) ([]models.Material, error) {
	return r.strictList(ctx, OpListPending, "/admin/pending", nil)
}

// ListApproved returns reviewed materials.
func (r *MaterialRepository) ListApproved(ctx context.Context) ([]models.Material, error) {
	return r.strictList(ctx, OpListApproved, "/admin/approved", nil)
}

// ListUserUploads returns every submission recorded under an uploader name.
func (r *MaterialRepository) ListUserUploads(ctx context.Context, uploaderName string) ([]models.Material, error) {
	return r.strictList(ctx, OpUserUploads, "/user/uploads", url.Values{"uploaderName": []string{uploaderName}})
}

// Approve marks a material approved.
func (r *MaterialRepository) Approve(ctx context.Context, id int64) error {
	resp, err := r.client.do(ctx, upstreamRequest{
		operation: OpApprove,
		method:    http.MethodPut,
		path:      "/admin/approve/" + strconv.FormatInt(id, 10),
		write:     true,
	})
	if err != nil {
		return writeError(err)
	}
	// The API acknowledges unknown ids with 200 and a plain "Not Found" body.
	if strings.EqualFold(strings.TrimSpace(string(resp.Body)), "Not Found") {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("material %d not found", id))
	}
	return nil
}

// Delete permanently removes a material.
func (r *MaterialRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.client.do(ctx, upstreamRequest{
		operation: OpDelete,
		method:    http.MethodDelete,
		path:      "/admin/delete/" + strconv.FormatInt(id, 10),
		write:     true,
	})
	if err != nil {
		return writeError(err)
	}
	return nil
}

// UploadStatus reports approved, pending or not_found for one submission.
func (r *MaterialRepository) UploadStatus(ctx context.Context, id int64) (string, error) {
	resp, err := r.client.do(ctx, upstreamRequest{
		operation: OpUploadStatus,
		method:    http.MethodGet,
		path:      "/user/status/" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		return "", readError(err)
	}
	status := strings.ToLower(strings.Trim(strings.TrimSpace(string(resp.Body)), `"`))
	switch status {
	case models.UploadStatusApproved, models.UploadStatusPending, models.UploadStatusNotFound:
		return status, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUpstreamRejected, fmt.Sprintf("unexpected upload status %q", snippet(resp.Body)))
	}
}

func (r *MaterialRepository) strictList(ctx context.Context, op, path string, query url.Values) ([]models.Material, error) {
	resp, err := r.client.do(ctx, upstreamRequest{
		operation: op,
		method:    http.MethodGet,
		path:      path,
		query:     query,
	})
	if err != nil {
		return nil, readError(err)
	}
	list, ok := decodeMaterialList(resp.Body)
	if !ok {
		r.logger.Warn("list payload has unexpected shape", zap.String("operation", op), zap.String("base_url", resp.BaseURL))
	}
	return list.Items, nil
}

func readError(err error) error {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.AsOffline()
	}
	return err
}

// decodeMaterialList accepts a bare array or an {items,total} object. The
// boolean is false when the payload matched neither shape.
func decodeMaterialList(body []byte) (models.MaterialList, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return models.EmptyMaterialList(), false
	}

	switch trimmed[0] {
	case '[':
		var items []models.Material
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return models.EmptyMaterialList(), false
		}
		if items == nil {
			items = []models.Material{}
		}
		return models.MaterialList{Items: items, Total: len(items)}, true
	case '{':
		var shaped struct {
			Items *[]models.Material `json:"items"`
			Total int                `json:"total"`
		}
		if err := json.Unmarshal(trimmed, &shaped); err != nil || shaped.Items == nil {
			return models.EmptyMaterialList(), false
		}
		items := *shaped.Items
		if items == nil {
			items = []models.Material{}
		}
		total := shaped.Total
		if total < len(items) {
			total = len(items)
		}
		return models.MaterialList{Items: items, Total: total}, true
	default:
		return models.EmptyMaterialList(), false
	}
}

// compactQuery drops blank values so they never reach the backend.
func compactQuery(query url.Values) url.Values {
	out := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				out.Add(key, v)
			}
		}
	}
	return out
}

func encodeMultipart(payload models.UploadPayload) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, field := range payload.Fields {
		if field.Value == "" {
			continue
		}
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.Name, err)
		}
	}
	if payload.FileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(payload.FileName)))
		contentType := payload.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(payload.File); err != nil {
			return nil, "", fmt.Errorf("write file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
