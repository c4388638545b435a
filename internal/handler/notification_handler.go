package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	"github.com/deskinspect/deskinspect-api/internal/service"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/response"
)

// NotificationHandler wires HTTP endpoints to the notification service.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler creates a new handler.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Create godoc
// @Summary Create notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}

	n, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}

// List godoc
// @Summary List notifications
// @Description List notifications for a recipient, newest first
// @Tags Notifications
// @Produce json
// @Param email query string false "Recipient email"
// @Param userId query string false "Recipient user ID"
// @Param status query string false "all | read | unread"
// @Param type query string false "Notification type"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := models.NotificationFilter{
		Email:  c.Query("email"),
		UserID: c.Query("userId"),
		Status: c.Query("status"),
		Type:   models.NotificationType(c.Query("type")),
		Limit:  limit,
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// MarkRead godoc
// @Summary Acknowledge a notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Acknowledge every unread notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.MarkAllReadRequest true "Recipient"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	var req dto.MarkAllReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	res, err := h.service.MarkAllRead(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Counts godoc
// @Summary Notification counters
// @Tags Notifications
// @Produce json
// @Param email query string false "Recipient email"
// @Param userId query string false "Recipient user ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/counts [get]
func (h *NotificationHandler) Counts(c *gin.Context) {
	counts, err := h.service.Counts(c.Request.Context(), c.Query("userId"), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Deliver godoc
// @Summary Collect due notifications
// @Description Return due undelivered notifications for the recipient and mark them delivered
// @Tags Notifications
// @Produce json
// @Param email path string true "Recipient email"
// @Success 200 {object} response.Envelope
// @Router /notifications/deliver/{email} [post]
func (h *NotificationHandler) Deliver(c *gin.Context) {
	items, err := h.service.Deliver(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
