package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"checkeasy/internal/common"
	"checkeasy/internal/services"

	"github.com/labstack/echo/v4"
)

// VerificationHandlers handles document upload and OCR HTTP requests
type VerificationHandlers struct {
	verificationService services.VerificationService
}

func NewVerificationHandlers(verificationService services.VerificationService) *VerificationHandlers {
	return &VerificationHandlers{verificationService: verificationService}
}

const maxUploadBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/tiff": true,
	"image/bmp":  true,
}

func readUpload(c echo.Context) (*multipart.FileHeader, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "File is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return nil, nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File exceeds the 5MB limit")
	}

	// Missing content type is rejected too; the recognizer only ever sees
	// declared images.
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[strings.ToLower(contentType)] {
		return nil, nil, echo.NewHTTPError(http.StatusUnsupportedMediaType, "Only image uploads are accepted")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to open upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to read upload")
	}
	if len(data) > maxUploadBytes {
		return nil, nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File exceeds the 5MB limit")
	}
	return fileHeader, data, nil
}

func (h *VerificationHandlers) buildUpload(c echo.Context) (services.DocumentUpload, error) {
	fileHeader, data, err := readUpload(c)
	if err != nil {
		return services.DocumentUpload{}, err
	}

	upload := services.DocumentUpload{
		DocType:    c.FormValue("doc_type"),
		Country:    c.FormValue("country"),
		Side:       c.FormValue("side"),
		Filename:   fileHeader.Filename,
		Image:      data,
		UploaderIP: c.RealIP(),
	}
	if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
		upload.UserID = &userID
	}
	return upload, nil
}

// OCRUpload handles the generic document OCR endpoint
func (h *VerificationHandlers) OCRUpload(c echo.Context) error {
	ctx := c.Request().Context()

	upload, err := h.buildUpload(c)
	if err != nil {
		return err
	}

	result, err := h.verificationService.ProcessDocument(ctx, upload)
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedDocType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		log.Printf("OCR upload failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process document")
	}
	return c.JSON(http.StatusOK, result)
}

// UploadPassport handles the passport-specific upload endpoint
func (h *VerificationHandlers) UploadPassport(c echo.Context) error {
	ctx := c.Request().Context()

	upload, err := h.buildUpload(c)
	if err != nil {
		return err
	}

	result, err := h.verificationService.ProcessPassport(ctx, upload)
	if err != nil {
		log.Printf("Passport upload failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process passport")
	}
	return c.JSON(http.StatusOK, result)
}

// GetResult returns one OCR result. Non-admins only see their own results;
// anything else reads as not found.
func (h *VerificationHandlers) GetResult(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, ok := common.GetUserFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	result, err := h.verificationService.GetResult(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "Result")
	}
	if !user.IsAdmin && (result.UserID == nil || *result.UserID != user.ID) {
		return common.SendNotFoundError(c, "Result")
	}
	return c.JSON(http.StatusOK, result)
}

// ListResults lists the authenticated user's OCR results
func (h *VerificationHandlers) ListResults(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	results, err := h.verificationService.ListResults(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("Failed to list results for user %s: %v", userID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list results")
	}
	return c.JSON(http.StatusOK, results)
}
