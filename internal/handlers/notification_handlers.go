package handlers

import (
	"log"
	"net/http"

	"checkeasy/internal/common"
	"checkeasy/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// NotificationHandlers handles notification HTTP requests
type NotificationHandlers struct {
	notificationService services.NotificationService
}

func NewNotificationHandlers(notificationService services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

// SendEmailRequest represents the email notification payload
type SendEmailRequest struct {
	Recipient string  `json:"recipient" validate:"required,email"`
	Title     string  `json:"title" validate:"required"`
	Message   string  `json:"message" validate:"required"`
	UserID    *string `json:"user_id"`
}

// SendEmail accepts an email notification and queues it for delivery. The
// response returns as soon as the row exists; delivery happens in the
// worker.
func (h *NotificationHandlers) SendEmail(c echo.Context) error {
	ctx := c.Request().Context()

	var req SendEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateEmail(req.Recipient); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title and message are required")
	}

	var userID *uuid.UUID
	if req.UserID != nil {
		id, err := common.ValidateUUID(*req.UserID, "user_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		userID = &id
	}

	n, err := h.notificationService.QueueEmail(ctx, userID, req.Recipient, req.Title, req.Message)
	if err != nil {
		log.Printf("Failed to queue email notification: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to queue notification")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"id":     n.ID,
		"status": n.Status,
	})
}

// GetStatus returns the delivery state of a notification
func (h *NotificationHandlers) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	n, err := h.notificationService.GetByID(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "Notification")
	}
	return c.JSON(http.StatusOK, n)
}
