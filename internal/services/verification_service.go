package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/ocr"
	"checkeasy/internal/repositories"

	"github.com/google/uuid"
)

// DocumentUpload carries one uploaded document image.
type DocumentUpload struct {
	UserID     *uuid.UUID
	DocType    string
	Country    string
	Side       string
	Filename   string
	Image      []byte
	UploaderIP string
}

// VerificationService runs the recognition pipeline over uploads and
// persists the results.
type VerificationService interface {
	ProcessDocument(ctx context.Context, upload DocumentUpload) (*models.OCRResult, error)
	ProcessPassport(ctx context.Context, upload DocumentUpload) (*models.OCRResult, error)
	GetResult(ctx context.Context, id uuid.UUID) (*models.OCRResult, error)
	ListResults(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OCRResult, error)
}

type verificationService struct {
	ocrRepo    repositories.OCRResultRepository
	userRepo   repositories.UserRepository
	notifSvc   NotificationService
	store      ImageStore
	recognizer *ocr.Recognizer
}

func NewVerificationService(ocrRepo repositories.OCRResultRepository, userRepo repositories.UserRepository,
	notifSvc NotificationService, store ImageStore, recognizer *ocr.Recognizer) VerificationService {
	return &verificationService{
		ocrRepo:    ocrRepo,
		userRepo:   userRepo,
		notifSvc:   notifSvc,
		store:      store,
		recognizer: recognizer,
	}
}

// ProcessDocument handles the generic OCR endpoint. Passports are the only
// supported document type.
func (s *verificationService) ProcessDocument(ctx context.Context, upload DocumentUpload) (*models.OCRResult, error) {
	docType := strings.ToLower(upload.DocType)
	if docType != "" && docType != "passport" {
		return nil, common.ErrUnsupportedDocType
	}
	upload.DocType = "passport"
	return s.ProcessPassport(ctx, upload)
}

// ProcessPassport stores the image, runs the recognition pipeline and
// persists one result row. Recognition failure still produces a row, and
// every passport upload goes to manual review regardless of confidence.
func (s *verificationService) ProcessPassport(ctx context.Context, upload DocumentUpload) (*models.OCRResult, error) {
	uploadTime := time.Now()

	result := &models.OCRResult{
		ID:             uuid.New(),
		UserID:         upload.UserID,
		DocType:        "passport",
		Country:        upload.Country,
		Status:         models.OCRStatusPending,
		ReviewRequired: true,
		UploadTime:     uploadTime,
	}
	if upload.Side != "" {
		result.Side = &upload.Side
	}
	if upload.UploaderIP != "" {
		result.UploaderIP = &upload.UploaderIP
	}

	objectName := passportObjectName(upload, result.ID, uploadTime)
	path, err := s.store.Save(ctx, objectName, upload.Image, contentTypeFor(objectName))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	result.ImagePath = &path

	rec, _, recErr := s.recognizer.Recognize(upload.Image)
	processTime := time.Now()
	result.ProcessTime = &processTime

	if recErr != nil {
		msg := recErr.Error()
		result.Status = models.OCRStatusFailed
		result.ErrorMessage = &msg
	} else {
		s.applyRecognition(result, rec)
		result.Status = models.OCRStatusSuccess
	}

	if err := s.ocrRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	if upload.UserID != nil {
		s.afterPassportUpload(ctx, *upload.UserID, result)
	}
	return result, nil
}

// afterPassportUpload marks the uploader pending, fills an empty username
// from the document name and queues the upload acknowledgement email. The
// result row is already committed, so failures here only log.
func (s *verificationService) afterPassportUpload(ctx context.Context, userID uuid.UUID, result *models.OCRResult) {
	if err := s.userRepo.SetVerificationStatus(ctx, userID, models.VerificationPending); err != nil {
		log.Printf("Failed to mark user %s verification pending: %v", userID, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load user %s after upload: %v", userID, err)
		return
	}

	if common.SafeString(user.Username) == "" && common.SafeString(result.Name) != "" {
		user.Username = result.Name
		if err := s.userRepo.Update(ctx, user); err != nil {
			log.Printf("Failed to fill username for user %s: %v", userID, err)
		}
	}

	body := "Your passport was uploaded and is awaiting manual review. " +
		"You will receive another email once a decision has been made."
	if _, err := s.notifSvc.QueueEmail(ctx, &user.ID, user.Email, "Document uploaded, awaiting review", body); err != nil {
		log.Printf("Failed to queue upload email for %s: %v", user.Email, err)
	}
}

func (s *verificationService) applyRecognition(result *models.OCRResult, rec *ocr.Recognition) {
	name := strings.TrimSpace(rec.MRZ.Surname + " " + rec.MRZ.GivenNames)
	result.DocumentNumber = &rec.MRZ.DocumentNumber
	if name != "" {
		result.Name = &name
	}
	if rec.BirthDate != "" {
		result.BirthDate = &rec.BirthDate
	}
	if rec.ExpiryDate != "" {
		result.ExpiryDate = &rec.ExpiryDate
	}
	result.Sex = &rec.MRZ.Sex
	result.RecognizedText = &rec.RawText
	result.ConfidenceScore = &rec.Confidence
	result.ExtractedData = models.JSONB{
		"strategy":        rec.Strategy,
		"validity":        rec.Validity,
		"issuing_country": rec.MRZ.IssuingCountry,
		"nationality":     rec.MRZ.Nationality,
		"surname":         rec.MRZ.Surname,
		"given_names":     rec.MRZ.GivenNames,
		"personal_number": rec.MRZ.PersonalNumber,
	}
}

func (s *verificationService) GetResult(ctx context.Context, id uuid.UUID) (*models.OCRResult, error) {
	return s.ocrRepo.GetByID(ctx, id)
}

func (s *verificationService) ListResults(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OCRResult, error) {
	return s.ocrRepo.ListByUser(ctx, userID, limit, offset)
}

// passportObjectName builds the storage key. Authenticated uploads are keyed
// by the uploader and timestamp, anonymous ones by the result row.
func passportObjectName(upload DocumentUpload, resultID uuid.UUID, uploadTime time.Time) string {
	ext := imageExtension(upload.Filename)
	if upload.UserID != nil {
		return fmt.Sprintf("passports/user_%s_%d%s", upload.UserID, uploadTime.Unix(), ext)
	}
	return "passports/" + resultID.String() + ext
}

func imageExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
		return ext
	default:
		return ".jpg"
	}
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}
