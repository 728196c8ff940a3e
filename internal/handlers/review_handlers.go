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

// ReviewHandlers handles manual review HTTP requests
type ReviewHandlers struct {
	reviewService services.ReviewService
}

func NewReviewHandlers(reviewService services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviewService: reviewService}
}

// ReviewRequest represents a reviewer decision payload
type ReviewRequest struct {
	OCRResultID string  `json:"ocr_result_id" validate:"required"`
	Approve     bool    `json:"approve"`
	Remarks     *string `json:"remarks"`
}

// Review applies a reviewer decision to an OCR result
func (h *ReviewHandlers) Review(c echo.Context) error {
	ctx := c.Request().Context()

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	resultID, err := common.ValidateUUID(req.OCRResultID, "ocr_result_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	decision := services.ReviewDecision{
		OCRResultID: resultID,
		Approve:     req.Approve,
		Remarks:     req.Remarks,
	}
	if reviewerID, ok := common.GetUserIDFromContext(ctx); ok {
		decision.ReviewerID = &reviewerID
	}

	review, err := h.reviewService.Review(ctx, decision)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrResultNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, common.ErrReviewClosed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			log.Printf("Review failed for result %s: %v", resultID, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to apply review")
		}
	}

	return c.JSON(http.StatusOK, review)
}

// ListReviews lists reviews, optionally filtered by status
func (h *ReviewHandlers) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()

	var status *models.ReviewStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.ReviewStatus(raw)
		switch s {
		case models.ReviewStatusPending, models.ReviewStatusApproved, models.ReviewStatusRejected:
			status = &s
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
		}
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	reviews, err := h.reviewService.ListReviews(ctx, status, limit, offset)
	if err != nil {
		log.Printf("Failed to list reviews: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list reviews")
	}
	return c.JSON(http.StatusOK, reviews)
}

// MyVerificationStatus returns the caller's aggregate verification status
func (h *ReviewHandlers) MyVerificationStatus(c echo.Context) error {
	user, ok := common.GetUserFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":             user.ID,
		"verification_status": user.VerificationStatus,
	})
}

// ListPendingResults lists OCR results waiting for review
func (h *ReviewHandlers) ListPendingResults(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	results, err := h.reviewService.ListPendingResults(ctx, limit, offset)
	if err != nil {
		log.Printf("Failed to list pending results: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list pending results")
	}
	return c.JSON(http.StatusOK, results)
}
