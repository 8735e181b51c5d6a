package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-portal/pkg/response"
)

// MaterialHandler serves the materials JSON API.
type MaterialHandler struct {
	catalog CatalogReader
	uploads UploadSubmitter
}

// NewMaterialHandler constructs a material handler.
func NewMaterialHandler(catalog CatalogReader, uploads UploadSubmitter) *MaterialHandler {
	return &MaterialHandler{catalog: catalog, uploads: uploads}
}

// List godoc
// @Summary List approved materials
// @Tags Materials
// @Produce json
// @Param semester query string false "Semester slug, e.g. sem-1"
// @Param subject query string false "Subject or All"
// @Param year query string false "Upload year or All"
// @Param type query string false "Material type or All"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	query, err := selectionFrom(c, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	view := h.catalog.List(c.Request.Context(), query.Selection())
	response.JSON(c, http.StatusOK, view, map[string]interface{}{
		"total":      view.Total,
		"state":      view.State,
		"generation": view.Generation,
	})
}

// Export godoc
// @Summary Export the filtered catalog
// @Tags Materials
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param semester query string false "Semester slug"
// @Param subject query string false "Subject or All"
// @Param year query string false "Upload year or All"
// @Param type query string false "Material type or All"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /materials/export [get]
func (h *MaterialHandler) Export(c *gin.Context) {
	query, err := selectionFrom(c, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.catalog.Export(c.Request.Context(), query.Selection(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Upload godoc
// @Summary Upload a study material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param subject formData string true "Subject"
// @Param semester formData string true "Semester slug"
// @Param groupName formData string false "Group"
// @Param uploadYear formData string false "Four digit year"
// @Param type formData string true "Material type"
// @Param uploaderName formData string false "Uploader name"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /uploads [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	req, file, cleanup, err := bindUpload(c, h.uploads.MaxBytes())
	defer cleanup()
	if err != nil {
		response.Error(c, err)
		return
	}
	created, err := h.uploads.Submit(c.Request.Context(), req, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}
