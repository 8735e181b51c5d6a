package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/models"
	"github.com/noah-isme/study-portal/internal/service"
	"github.com/noah-isme/study-portal/internal/view"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
	"github.com/noah-isme/study-portal/pkg/logger"
)

const (
	adminTabPending  = "pending"
	adminTabApproved = "approved"
)

// PageHandler renders the server-side HTML screens.
type PageHandler struct {
	templates *template.Template
	catalog   CatalogReader
	uploads   UploadSubmitter
	status    StatusReader
	admin     AdminWorkflow
	logger    *zap.Logger
}

// NewPageHandler constructs a page handler.
func NewPageHandler(templates *template.Template, catalog CatalogReader, uploads UploadSubmitter, status StatusReader, admin AdminWorkflow, log *zap.Logger) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{templates: templates, catalog: catalog, uploads: uploads, status: status, admin: admin, logger: log}
}

// Home shows the semester grid, recent materials and backend health.
func (h *PageHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	options := h.catalog.Options()
	links := make([]view.SemesterLink, 0, len(options.Semesters))
	for _, slug := range options.Semesters {
		links = append(links, view.SemesterLink{Slug: slug, Title: service.SemesterTitle(slug)})
	}
	h.render(c, http.StatusOK, view.PageHome, view.HomeData{
		Page:      view.NewPage("Home", "Browse approved notes, question papers and study materials by semester."),
		Semesters: links,
		Recent:    h.catalog.Recent(ctx, service.DefaultRecentLimit),
		Health:    h.status.Health(ctx),
	})
}

// Semester lists a semester's materials under the submitted filters.
func (h *PageHandler) Semester(c *gin.Context) {
	slug := c.Param("slug")
	query, err := selectionFrom(c, slug)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.renderSemester(c, slug, h.catalog.List(c.Request.Context(), query.Selection()))
}

// SemesterReset lists a semester with every filter back to All.
func (h *PageHandler) SemesterReset(c *gin.Context) {
	slug := c.Param("slug")
	h.renderSemester(c, slug, h.catalog.Reset(c.Request.Context(), slug))
}

func (h *PageHandler) renderSemester(c *gin.Context, slug string, listing dto.ListingView) {
	title := service.SemesterTitle(slug)
	options := h.catalog.Options()
	data := view.SemesterData{
		Page:     view.NewPage(title, fmt.Sprintf("Study materials, notes and question papers for %s.", title)),
		Slug:     slug,
		Heading:  title,
		Subjects: options.Subjects,
		Years:    options.Years,
		Types:    options.Types,
		Listing:  listing,
	}
	h.render(c, http.StatusOK, view.PageSemester, data)
}

// UploadForm shows an empty upload form.
func (h *PageHandler) UploadForm(c *gin.Context) {
	data := h.uploadData()
	data.Form.Semester = c.Query("semester")
	h.render(c, http.StatusOK, view.PageUpload, data)
}

// UploadSubmit validates and forwards a submission, re-rendering the form on failure.
func (h *PageHandler) UploadSubmit(c *gin.Context) {
	data := h.uploadData()

	req, file, cleanup, err := bindUpload(c, h.uploads.MaxBytes())
	defer cleanup()
	data.Form = req
	if err == nil {
		var created *models.Material
		created, err = h.uploads.Submit(c.Request.Context(), req, file)
		if err == nil {
			if created.UploaderName == "" {
				created.UploaderName = req.UploaderName
			}
			if created.Title == "" {
				created.Title = req.Title
			}
			data.Created = created
			data.Form = dto.UploadMaterialRequest{Semester: req.Semester}
			h.render(c, http.StatusCreated, view.PageUpload, data)
			return
		}
	}

	appErr := appErrors.FromError(err)
	logger.ForRequest(h.logger, c).Warn("upload form rejected", zap.String("code", appErr.Code), zap.Error(err))
	data.Page = data.Page.WithAlert(view.AlertDanger, appErr.Message)
	h.render(c, appErr.Status, view.PageUpload, data)
}

// UploadStatus shows an uploader's submissions and, optionally, one id's status.
func (h *PageHandler) UploadStatus(c *gin.Context) {
	ctx := c.Request.Context()
	data := view.UploadStatusData{
		Page:         view.NewPage("My Uploads", "Check the review status of your uploaded materials."),
		UploaderName: strings.TrimSpace(c.Query("uploaderName")),
	}
	status := http.StatusOK

	if raw := strings.TrimSpace(c.Query("id")); raw != "" {
		lookup, err := h.lookupStatus(ctx, raw)
		if err != nil {
			appErr := appErrors.FromError(err)
			data.Page = data.Page.WithAlert(view.AlertDanger, appErr.Message)
			status = appErr.Status
		} else {
			data.Lookup = lookup
		}
	}

	if data.UploaderName != "" {
		data.Searched = true
		cards, err := h.status.UserUploads(ctx, data.UploaderName)
		if err != nil {
			appErr := appErrors.FromError(err)
			data.Page = data.Page.WithAlert(view.AlertDanger, appErr.Message)
			status = appErr.Status
		} else {
			data.Uploads = cards
		}
	}
	h.render(c, status, view.PageUploadStatus, data)
}

func (h *PageHandler) lookupStatus(ctx context.Context, raw string) (*dto.UploadStatusResponse, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, invalidIDMessage)
	}
	return h.status.UploadStatus(ctx, id)
}

// Admin shows the review dashboard.
func (h *PageHandler) Admin(c *gin.Context) {
	data := view.AdminData{Page: view.NewPage("Admin Dashboard", ""), Tab: adminTab(c.Query("tab"))}
	status := http.StatusOK

	snapshot, err := h.admin.Load(c.Request.Context())
	if err != nil {
		appErr := appErrors.FromError(err)
		data.Page = data.Page.WithAlert(view.AlertDanger, appErr.Message)
		status = appErr.Status
	} else {
		data.Loaded = true
		if msg := doneMessage(c.Query("done"), c.Query("id")); msg != "" {
			data.Page = data.Page.WithAlert(view.AlertSuccess, msg)
		}
	}
	data.Dashboard = h.admin.Dashboard(snapshot)
	h.render(c, status, view.PageAdmin, data)
}

// AdminConfirm asks "are you sure" before an approve or delete.
func (h *PageHandler) AdminConfirm(c *gin.Context) {
	action, id, err := adminTarget(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, view.PageConfirm, view.ConfirmData{
		Page:   view.NewPage("Confirm "+action, ""),
		Action: action,
		ID:     id,
	})
}

// AdminAction performs a confirmed action and returns to the dashboard.
func (h *PageHandler) AdminAction(c *gin.Context) {
	action, id, err := adminTarget(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	snapshot, err := h.admin.Perform(c.Request.Context(), action, id, confirmerFrom(c))
	if err == nil {
		tab := adminTabPending
		if action == models.AdminActionDelete {
			tab = c.DefaultPostForm("tab", adminTabPending)
		}
		target := url.Values{"tab": {adminTab(tab)}, "done": {action}, "id": {strconv.FormatInt(id, 10)}}
		c.Redirect(http.StatusSeeOther, "/admin?"+target.Encode())
		return
	}

	appErr := appErrors.FromError(err)
	logger.ForRequest(h.logger, c).Warn("admin action failed", zap.String("action", action), zap.Int64("id", id), zap.String("code", appErr.Code))
	if appErr.Is(appErrors.ErrConfirmationRequired) {
		h.render(c, appErr.Status, view.PageConfirm, view.ConfirmData{
			Page:   view.NewPage("Confirm "+action, "").WithAlert(view.AlertWarning, "Please confirm the action to continue."),
			Action: action,
			ID:     id,
		})
		return
	}
	h.render(c, appErr.Status, view.PageAdmin, view.AdminData{
		Page:      view.NewPage("Admin Dashboard", "").WithAlert(view.AlertDanger, appErr.Message),
		Tab:       adminTabPending,
		Loaded:    !snapshot.LoadedAt.IsZero(),
		Dashboard: h.admin.Dashboard(snapshot),
	})
}

// NotFound renders the 404 page for unmatched routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, view.PageError, view.ErrorData{
		Page:   view.NewPage("Page not found", "").WithAlert(view.AlertWarning, "The page you were looking for does not exist."),
		Status: http.StatusNotFound,
	})
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	h.render(c, appErr.Status, view.PageError, view.ErrorData{
		Page:   view.NewPage("Error", "").WithAlert(view.AlertDanger, appErr.Message),
		Status: appErr.Status,
	})
}

func (h *PageHandler) render(c *gin.Context, status int, name string, data interface{}) {
	buf := &bytes.Buffer{}
	if err := h.templates.ExecuteTemplate(buf, name, data); err != nil {
		logger.ForRequest(h.logger, c).Error("template render failed", zap.String("template", name), zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) uploadData() view.UploadData {
	options := h.catalog.Options()
	return view.UploadData{
		Page:      view.NewPage("Upload Material", "Share notes, question papers and documents with other students."),
		Semesters: options.Semesters,
		Subjects:  options.Subjects,
		Types:     options.Types,
		MaxSizeMB: h.uploads.MaxBytes() >> 20,
	}
}

func adminTarget(c *gin.Context) (string, int64, error) {
	action := c.Param("action")
	if action != models.AdminActionApprove && action != models.AdminActionDelete {
		return "", 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown admin action %q", action))
	}
	id, err := parseID(c)
	if err != nil {
		return "", 0, err
	}
	return action, id, nil
}

func adminTab(raw string) string {
	if raw == adminTabApproved {
		return adminTabApproved
	}
	return adminTabPending
}

func doneMessage(action, id string) string {
	switch action {
	case models.AdminActionApprove:
		return fmt.Sprintf("Material #%s approved.", id)
	case models.AdminActionDelete:
		return fmt.Sprintf("Material #%s deleted.", id)
	default:
		return ""
	}
}
