package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-portal/internal/models"
	"github.com/noah-isme/study-portal/pkg/response"
)

// AdminHandler serves the review JSON API.
type AdminHandler struct {
	admin AdminWorkflow
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(admin AdminWorkflow) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Dashboard godoc
// @Summary Pending and approved materials
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/materials [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	snapshot, err := h.admin.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.admin.Dashboard(snapshot))
}

// Approve godoc
// @Summary Approve a material
// @Tags Admin
// @Produce json
// @Param id path int true "Material ID"
// @Param confirm query string true "Must be yes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /admin/approve/{id} [put]
func (h *AdminHandler) Approve(c *gin.Context) {
	h.perform(c, models.AdminActionApprove)
}

// Delete godoc
// @Summary Permanently delete a material
// @Tags Admin
// @Produce json
// @Param id path int true "Material ID"
// @Param confirm query string true "Must be yes"
// @Success 200 {object} response.Envelope
// @Failure 428 {object} response.Envelope
// @Router /admin/delete/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	h.perform(c, models.AdminActionDelete)
}

func (h *AdminHandler) perform(c *gin.Context, action string) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	snapshot, err := h.admin.Perform(c.Request.Context(), action, id, confirmerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.admin.Dashboard(snapshot), map[string]interface{}{
		"action": action,
		"id":     id,
	})
}
