package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-portal/internal/dto"
	"github.com/noah-isme/study-portal/internal/service"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
)

// ConfirmHeader lets scripted clients confirm admin actions without a form field.
const ConfirmHeader = "X-Confirm"

const invalidIDMessage = "id must be a positive integer"

// multipart overhead allowed on top of the file limit
const formOverheadBytes = 1 << 20

func parseID(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, invalidIDMessage)
	}
	return id, nil
}

// confirmerFrom reads the explicit confirmation flag from form, query or header.
func confirmerFrom(c *gin.Context) service.Confirmer {
	value := c.PostForm("confirm")
	if value == "" {
		value = c.Query("confirm")
	}
	if value == "" {
		value = c.GetHeader(ConfirmHeader)
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1":
		return service.Confirmed
	default:
		return service.Declined
	}
}

// bindUpload reads the metadata fields and the optional file part of a
// multipart submission. The returned cleanup closes the file.
func bindUpload(c *gin.Context, maxBytes int64) (dto.UploadMaterialRequest, *service.UploadFile, func(), error) {
	var req dto.UploadMaterialRequest
	noop := func() {}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+formOverheadBytes)
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, noop, appErrors.Clone(appErrors.ErrValidation, "upload exceeds the size limit")
		}
		return req, nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload form")
	}

	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, noop, nil
		}
		return req, nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file part")
	}
	file, err := header.Open()
	if err != nil {
		return req, nil, noop, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file")
	}
	return req, &service.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}, func() { _ = file.Close() }, nil
}

func selectionFrom(c *gin.Context, semester string) (dto.MaterialQuery, error) {
	var query dto.MaterialQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return query, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	if semester != "" {
		query.Semester = semester
	}
	return query, nil
}
