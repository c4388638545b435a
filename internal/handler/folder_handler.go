package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/service"
	"github.com/deskinspect/deskinspect-api/pkg/response"
)

// FolderHandler wires HTTP endpoints to the folder service.
type FolderHandler struct {
	service *service.FolderService
	metrics *service.MetricsService
}

// NewFolderHandler creates a new handler.
func NewFolderHandler(svc *service.FolderService, metrics *service.MetricsService) *FolderHandler {
	return &FolderHandler{service: svc, metrics: metrics}
}

// Schedules godoc
// @Summary List folder schedules
// @Tags Folders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /folders/schedules [get]
func (h *FolderHandler) Schedules(c *gin.Context) {
	items, err := h.service.Schedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Provision godoc
// @Summary Provision folder now
// @Description Manually trigger folder creation for a thesis event; safe to retry
// @Tags Folders
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /folders/{eventId}/provision [post]
func (h *FolderHandler) Provision(c *gin.Context) {
	folder, err := h.service.Provision(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		h.metrics.RecordFolderProvision(false)
		response.Error(c, err)
		return
	}
	h.metrics.RecordFolderProvision(true)
	response.JSON(c, http.StatusOK, folder, nil)
}

// Get godoc
// @Summary Folder for event
// @Tags Folders
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /folders/{eventId} [get]
func (h *FolderHandler) Get(c *gin.Context) {
	folder, err := h.service.FolderForEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folder, nil)
}

// Access godoc
// @Summary Signed folder access token
// @Tags Folders
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /folders/{eventId}/access [get]
func (h *FolderHandler) Access(c *gin.Context) {
	access, err := h.service.AccessToken(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, access, nil)
}
