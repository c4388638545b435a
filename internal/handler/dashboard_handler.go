package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/models"
	"github.com/deskinspect/deskinspect-api/internal/service"
	"github.com/deskinspect/deskinspect-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the dashboard service.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Progress godoc
// @Summary Student progress overview
// @Description Latest submission state per student, optionally filtered by status
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param status query string false "Thesis status filter"
// @Success 200 {object} response.Envelope
// @Router /dashboard/progress [get]
func (h *DashboardHandler) Progress(c *gin.Context) {
	progress, err := h.service.StudentsProgress(c.Request.Context(), models.ThesisStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Stats godoc
// @Summary Headline dashboard counters
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportProgress godoc
// @Summary Export progress as CSV
// @Tags Dashboard
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /dashboard/progress/export [get]
func (h *DashboardHandler) ExportProgress(c *gin.Context) {
	out, err := h.service.ExportProgressCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="student-progress.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}
