package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/service"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/response"
)

// ThesisHandler wires HTTP endpoints to the thesis service.
type ThesisHandler struct {
	service *service.ThesisService
	metrics *service.MetricsService
}

// NewThesisHandler creates a new handler.
func NewThesisHandler(svc *service.ThesisService, metrics *service.MetricsService) *ThesisHandler {
	return &ThesisHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit initial thesis
// @Description Record a student's first thesis submission as version 1
// @Tags Thesis
// @Accept json
// @Produce json
// @Param payload body dto.SubmitThesisRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /thesis/submit [post]
func (h *ThesisHandler) Submit(c *gin.Context) {
	var req dto.SubmitThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	thesis, err := h.service.SubmitInitial(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSubmission(false)
	response.Created(c, thesis)
}

// RequestResubmission godoc
// @Summary Request thesis resubmission
// @Description Flag a thesis for resubmission on behalf of its supervisor
// @Tags Thesis
// @Accept json
// @Produce json
// @Param payload body dto.RequestResubmissionRequest true "Request payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /thesis/request-resubmission [post]
func (h *ThesisHandler) RequestResubmission(c *gin.Context) {
	var req dto.RequestResubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	thesis, err := h.service.RequestResubmission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, thesis, nil)
}

// Resubmit godoc
// @Summary Submit revised thesis
// @Description Create the next version in the submission chain
// @Tags Thesis
// @Accept json
// @Produce json
// @Param payload body dto.SubmitResubmissionRequest true "Resubmission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /thesis/resubmit [post]
func (h *ThesisHandler) Resubmit(c *gin.Context) {
	var req dto.SubmitResubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resubmission payload"))
		return
	}

	thesis, err := h.service.SubmitResubmission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSubmission(true)
	response.Created(c, thesis)
}

// VersionHistory godoc
// @Summary Thesis version history
// @Description List every record in the chain containing the thesis
// @Tags Thesis
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /thesis/{id}/versions [get]
func (h *ThesisHandler) VersionHistory(c *gin.Context) {
	history, err := h.service.VersionHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// ResubmissionStatus godoc
// @Summary Outstanding resubmission request
// @Description Report whether the student has an outstanding resubmission request
// @Tags Thesis
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /thesis/resubmission-status/{studentId} [get]
func (h *ThesisHandler) ResubmissionStatus(c *gin.Context) {
	status, err := h.service.ResubmissionStatus(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// List godoc
// @Summary List all theses
// @Tags Thesis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /thesis [get]
func (h *ThesisHandler) List(c *gin.Context) {
	theses, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, theses, nil)
}

// Get godoc
// @Summary Get one thesis
// @Tags Thesis
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /thesis/{id} [get]
func (h *ThesisHandler) Get(c *gin.Context) {
	thesis, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// LatestByStudent godoc
// @Summary Student's latest thesis
// @Tags Thesis
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /thesis/student/{studentId} [get]
func (h *ThesisHandler) LatestByStudent(c *gin.Context) {
	thesis, err := h.service.LatestByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// ListBySupervisor godoc
// @Summary Theses supervised by a faculty member
// @Tags Thesis
// @Produce json
// @Param facultyId path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /thesis/supervisor/{facultyId} [get]
func (h *ThesisHandler) ListBySupervisor(c *gin.Context) {
	theses, err := h.service.ListBySupervisor(c.Request.Context(), c.Param("facultyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, theses, nil)
}

// Supervisors godoc
// @Summary List supervisors
// @Tags Thesis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /thesis/supervisors [get]
func (h *ThesisHandler) Supervisors(c *gin.Context) {
	supervisors, err := h.service.ListSupervisors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisors, nil)
}

// UpdateStatus godoc
// @Summary Apply review decision
// @Tags Thesis
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body dto.UpdateThesisStatusRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /thesis/{id}/status [put]
func (h *ThesisHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateThesisStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	thesis, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}
