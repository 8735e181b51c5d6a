package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-portal/pkg/response"
)

// StatusHandler serves uploader lookups and the upstream health probe.
type StatusHandler struct {
	status StatusReader
}

// NewStatusHandler constructs a status handler.
func NewStatusHandler(status StatusReader) *StatusHandler {
	return &StatusHandler{status: status}
}

// UserUploads godoc
// @Summary Materials uploaded under a name
// @Tags Uploads
// @Produce json
// @Param uploaderName query string true "Uploader name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /user/uploads [get]
func (h *StatusHandler) UserUploads(c *gin.Context) {
	cards, err := h.status.UserUploads(c.Request.Context(), c.Query("uploaderName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, map[string]interface{}{"total": len(cards)})
}

// UploadStatus godoc
// @Summary Review status of one upload
// @Tags Uploads
// @Produce json
// @Param id path int true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /user/status/{id} [get]
func (h *StatusHandler) UploadStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.status.UploadStatus(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// UpstreamHealth godoc
// @Summary Probe the materials API candidates
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /upstream/health [get]
func (h *StatusHandler) UpstreamHealth(c *gin.Context) {
	if h == nil || h.status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "status service unavailable"})
		return
	}
	result := h.status.Health(c.Request.Context())
	status := http.StatusOK
	if !result.Online {
		status = http.StatusServiceUnavailable
		c.Header("X-Upstream-Status", result.Status)
	}
	response.JSON(c, status, result)
}
