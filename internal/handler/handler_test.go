package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	"github.com/noah-isme/study-portal/internal/service"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

type catalogStub struct {
	selections []models.FilterSelection
	resets     []string
	view       dto.ListingView
	export     *service.ExportResult
	exportErr  error
}

func (s *catalogStub) List(_ context.Context, sel models.FilterSelection) dto.ListingView {
	s.selections = append(s.selections, sel)
	v := s.view
	v.Selection = sel
	return v
}

func (s *catalogStub) Reset(_ context.Context, semester string) dto.ListingView {
	s.resets = append(s.resets, semester)
	v := s.view
	v.Selection = models.DefaultFilterSelection(semester)
	return v
}

func (s *catalogStub) Recent(context.Context, int) []dto.MaterialCard { return s.view.Cards }

func (s *catalogStub) Export(_ context.Context, sel models.FilterSelection, _ string) (*service.ExportResult, error) {
	s.selections = append(s.selections, sel)
	return s.export, s.exportErr
}

func (s *catalogStub) Options() service.CatalogOptions {
	return service.CatalogOptions{
		Semesters: []string{"sem-1", "sem-2"},
		Subjects:  []string{"Physics", "Maths"},
		Years:     []string{"2024"},
		Types:     []string{"notes", "pdf"},
	}
}

type uploadStub struct {
	requests []dto.UploadMaterialRequest
	files    []string
	created  *models.Material
	err      error
}

func (s *uploadStub) Submit(_ context.Context, req dto.UploadMaterialRequest, file *service.UploadFile) (*models.Material, error) {
	s.requests = append(s.requests, req)
	if file != nil {
		data, _ := io.ReadAll(file.Reader)
		s.files = append(s.files, string(data))
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *uploadStub) MaxBytes() int64 { return 5 << 20 }

type statusStub struct {
	health models.HealthResult
	cards  []dto.MaterialCard
	names  []string
	lookup *dto.UploadStatusResponse
	err    error
}

func (s *statusStub) UserUploads(_ context.Context, name string) ([]dto.MaterialCard, error) {
	s.names = append(s.names, name)
	return s.cards, s.err
}

func (s *statusStub) UploadStatus(context.Context, int64) (*dto.UploadStatusResponse, error) {
	return s.lookup, s.err
}

func (s *statusStub) Health(context.Context) models.HealthResult { return s.health }

type adminRepoStub struct {
	pending  []models.Material
	approved []models.Material
	calls    []string
	err      error
}

func (r *adminRepoStub) ListPending(context.Context) ([]models.Material, error) {
	return r.pending, r.err
}

func (r *adminRepoStub) ListApproved(context.Context) ([]models.Material, error) {
	return r.approved, r.err
}

func (r *adminRepoStub) Approve(_ context.Context, id int64) error {
	r.calls = append(r.calls, "approve")
	return nil
}

func (r *adminRepoStub) Delete(_ context.Context, id int64) error {
	r.calls = append(r.calls, "delete")
	return nil
}

func newContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	return c, w
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestMaterialHandlerList(t *testing.T) {
	catalog := &catalogStub{view: dto.ListingView{
		State: "list",
		Cards: []dto.MaterialCard{{ID: 1, Title: "Optics"}},
		Total: 1,
	}}
	h := NewMaterialHandler(catalog, &uploadStub{})

	c, w := newContext(http.MethodGet, "/api/v1/materials?semester=sem-1&subject=Physics", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, float64(1), env.Meta["total"])
	var view dto.ListingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Cards, 1)

	require.Len(t, catalog.selections, 1)
	assert.Equal(t, models.FilterSelection{Semester: "sem-1", Subject: "Physics", Year: "All", Type: "All"}, catalog.selections[0])
}

func TestMaterialHandlerExport(t *testing.T) {
	catalog := &catalogStub{export: &service.ExportResult{Filename: "materials.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("ID\n")}}
	h := NewMaterialHandler(catalog, &uploadStub{})

	c, w := newContext(http.MethodGet, "/api/v1/materials/export?semester=sem-1", nil)
	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="materials.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID\n", w.Body.String())
}

func TestMaterialHandlerExportInvalidFormat(t *testing.T) {
	catalog := &catalogStub{exportErr: appErrors.Clone(appErrors.ErrValidation, `unsupported export format "xlsx"`)}
	h := NewMaterialHandler(catalog, &uploadStub{})

	c, w := newContext(http.MethodGet, "/api/v1/materials/export?format=xlsx", nil)
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaterialHandlerUpload(t *testing.T) {
	uploads := &uploadStub{created: &models.Material{ID: 77, Title: "Optics"}}
	h := NewMaterialHandler(&catalogStub{}, uploads)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Optics", "semester": "sem-1", "subject": "Physics", "type": "notes",
	}, "optics.pdf", "%PDF")
	c, w := newContext(http.MethodPost, "/api/v1/uploads", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, uploads.requests, 1)
	assert.Equal(t, "Optics", uploads.requests[0].Title)
	assert.Equal(t, "sem-1", uploads.requests[0].Semester)
	assert.Equal(t, []string{"%PDF"}, uploads.files)
}

func TestMaterialHandlerUploadAllOffline(t *testing.T) {
	uploads := &uploadStub{err: appErrors.Clone(appErrors.ErrAllBackendsOffline, "all 2 backends are unreachable: http://a, http://b")}
	h := NewMaterialHandler(&catalogStub{}, uploads)

	body, contentType := multipartBody(t, map[string]string{"title": "x"}, "x.pdf", "data")
	c, w := newContext(http.MethodPost, "/api/v1/uploads", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", env.Error.Code)
	assert.Contains(t, env.Error.Message, "http://b")
}

func TestAdminHandlerRequiresConfirmation(t *testing.T) {
	repo := &adminRepoStub{}
	h := NewAdminHandler(service.NewAdminService(repo, "", nil))

	c, w := newContext(http.MethodPut, "/api/v1/admin/approve/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	h.Approve(c)

	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	assert.Empty(t, repo.calls)
}

func TestAdminHandlerConfirmedDelete(t *testing.T) {
	repo := &adminRepoStub{pending: []models.Material{}, approved: []models.Material{{ID: 4}}}
	h := NewAdminHandler(service.NewAdminService(repo, "", nil))

	c, w := newContext(http.MethodDelete, "/api/v1/admin/delete/4", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	c.Request.Header.Set(ConfirmHeader, "yes")
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"delete"}, repo.calls)
	var dash dto.AdminDashboardResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &dash))
	assert.Equal(t, 1, dash.ApprovedCount)
}

func TestAdminHandlerRejectsBadID(t *testing.T) {
	h := NewAdminHandler(service.NewAdminService(&adminRepoStub{}, "", nil))

	c, w := newContext(http.MethodPut, "/api/v1/admin/approve/abc?confirm=yes", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Approve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusHandlerUpstreamHealth(t *testing.T) {
	online := NewStatusHandler(&statusStub{health: models.HealthResult{Online: true, BaseURL: "http://a", Status: "ok"}})
	c, w := newContext(http.MethodGet, "/api/v1/upstream/health", nil)
	online.UpstreamHealth(c)
	assert.Equal(t, http.StatusOK, w.Code)

	offline := NewStatusHandler(&statusStub{health: models.HealthResult{Status: models.HealthStatusOffline, ObservedAt: time.Now()}})
	c, w = newContext(http.MethodGet, "/api/v1/upstream/health", nil)
	offline.UpstreamHealth(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.HealthStatusOffline, w.Header().Get("X-Upstream-Status"))
}

func TestStatusHandlerUserUploads(t *testing.T) {
	status := &statusStub{cards: []dto.MaterialCard{{ID: 1}, {ID: 2}}}
	h := NewStatusHandler(status)

	c, w := newContext(http.MethodGet, "/api/v1/user/uploads?uploaderName=Ravi", nil)
	h.UserUploads(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Ravi"}, status.names)
	assert.Equal(t, float64(2), decode(t, w).Meta["total"])
}

func TestStatusHandlerUploadStatus(t *testing.T) {
	h := NewStatusHandler(&statusStub{lookup: &dto.UploadStatusResponse{ID: 9, Status: models.UploadStatusApproved}})

	c, w := newContext(http.MethodGet, "/api/v1/user/status/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.UploadStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), []string{"http://a"})
	c, w := newContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	empty := NewMetricsHandler(nil, nil)
	c, w = newContext(http.MethodGet, "/ready", nil)
	empty.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
