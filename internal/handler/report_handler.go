package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/service"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/response"
)

// ReportHandler wires HTTP endpoints to the report service.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Save godoc
// @Summary Save evaluation report
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SaveReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Save(c *gin.Context) {
	var req dto.SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	report, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Send godoc
// @Summary Send report to student
// @Description Deliver a report; thesis-evaluation reports approve the student's latest thesis
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/send [post]
func (h *ReportHandler) Send(c *gin.Context) {
	res, err := h.service.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Get godoc
// @Summary Get one report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListByFaculty godoc
// @Summary Reports authored by a faculty member
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param facultyId path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /reports/faculty/{facultyId} [get]
func (h *ReportHandler) ListByFaculty(c *gin.Context) {
	reports, err := h.service.ListByFaculty(c.Request.Context(), c.Param("facultyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// ListByStudent godoc
// @Summary Delivered reports for a student
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/student/{studentId} [get]
func (h *ReportHandler) ListByStudent(c *gin.Context) {
	reports, err := h.service.ListSentByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Delete godoc
// @Summary Delete a draft report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Download report PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/pdf [get]
func (h *ReportHandler) Download(c *gin.Context) {
	pdf, filename, err := h.service.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
