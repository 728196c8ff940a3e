package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/services"

	"github.com/labstack/echo/v4"
)

// CheckinHandlers handles check-in HTTP requests
type CheckinHandlers struct {
	checkinService services.CheckinService
}

func NewCheckinHandlers(checkinService services.CheckinService) *CheckinHandlers {
	return &CheckinHandlers{checkinService: checkinService}
}

// CheckinRequest represents the check-in payload
type CheckinRequest struct {
	RoomNumber     string       `json:"room_number" validate:"required"`
	CertificateID  *string      `json:"certificate_id"`
	Remarks        *string      `json:"remarks"`
	AdditionalInfo models.JSONB `json:"additional_info"`
}

// Checkin records a check-in for the authenticated user
func (h *CheckinHandlers) Checkin(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CheckinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.RoomNumber, "room_number"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	svcReq := services.CheckinRequest{
		UserID:         userID,
		RoomNumber:     req.RoomNumber,
		Remarks:        req.Remarks,
		AdditionalInfo: req.AdditionalInfo,
	}
	if req.CertificateID != nil {
		certID, err := common.ValidateUUID(*req.CertificateID, "certificate_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		svcReq.CertificateID = &certID
	}

	record, err := h.checkinService.Checkin(ctx, svcReq)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserBlacklisted),
			errors.Is(err, common.ErrCertificateInvalid),
			errors.Is(err, common.ErrAccountInactive):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, common.ErrActiveCheckinExists),
			errors.Is(err, common.ErrRoomOccupied):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, common.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			log.Printf("Check-in failed for user %s: %v", userID, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check in")
		}
	}

	return c.JSON(http.StatusCreated, record)
}

// Checkout closes the authenticated user's active check-in
func (h *CheckinHandlers) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	record, err := h.checkinService.Checkout(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotCheckedIn) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		log.Printf("Check-out failed for user %s: %v", userID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check out")
	}

	return c.JSON(http.StatusOK, record)
}

// History lists the authenticated user's check-in records
func (h *CheckinHandlers) History(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	records, err := h.checkinService.History(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("Failed to list check-ins for user %s: %v", userID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list check-ins")
	}

	return c.JSON(http.StatusOK, records)
}
