package services

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/ocr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	specimenLine1 = "P<UTOERIKSSON<<ANNA<MARIA" + strings.Repeat("<", 19)
	specimenLine2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

type fixedEngine struct {
	text string
	err  error
}

func (f fixedEngine) RecognizeText(imageBytes []byte) (string, error) {
	return f.text, f.err
}

type verificationFixture struct {
	ocrRepo  *MockOCRResultRepository
	userRepo *MockUserRepository
	notifSvc *MockNotificationService
	store    *fakeImageStore
	svc      VerificationService
}

func newVerificationFixture(engine fixedEngine) *verificationFixture {
	f := &verificationFixture{
		ocrRepo:  new(MockOCRResultRepository),
		userRepo: new(MockUserRepository),
		notifSvc: new(MockNotificationService),
		store:    newFakeImageStore(),
	}
	recognizer := ocr.NewRecognizer(engine, 0.75)
	f.svc = NewVerificationService(f.ocrRepo, f.userRepo, f.notifSvc, f.store, recognizer)
	return f
}

func testUpload(t *testing.T, userID *uuid.UUID) DocumentUpload {
	t.Helper()
	img, err := ocr.EncodePNG(image.NewRGBA(image.Rect(0, 0, 40, 20)))
	require.NoError(t, err)
	return DocumentUpload{
		UserID:     userID,
		DocType:    "passport",
		Filename:   "scan.png",
		Image:      img,
		UploaderIP: "203.0.113.7",
	}
}

func TestProcessPassportSuccess(t *testing.T) {
	f := newVerificationFixture(fixedEngine{text: specimenLine1 + "\n" + specimenLine2})

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "guest@example.com", IsActive: true}

	var saved *models.OCRResult
	f.ocrRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.OCRResult) }).Return(nil)
	f.userRepo.On("SetVerificationStatus", mock.Anything, userID, models.VerificationPending).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, userID).Return(user, nil)
	f.userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.ID == userID && u.Username != nil && *u.Username == "ERIKSSON ANNA MARIA"
	})).Return(nil)
	f.notifSvc.On("QueueEmail", mock.Anything, &userID, "guest@example.com",
		"Document uploaded, awaiting review", mock.Anything).Return(queuedNotification(), nil)

	result, err := f.svc.ProcessPassport(context.Background(), testUpload(t, &userID))
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, models.OCRStatusSuccess, result.Status)
	// Every passport upload is held for manual review.
	assert.True(t, result.ReviewRequired)
	assert.Equal(t, "L898902C3", *result.DocumentNumber)
	assert.Equal(t, "ERIKSSON ANNA MARIA", *result.Name)
	assert.Equal(t, "1974-08-12", *result.BirthDate)
	assert.Equal(t, "2012-04-15", *result.ExpiryDate)
	assert.Equal(t, 1.0, *result.ConfidenceScore)
	assert.Equal(t, "mrz-direct", result.ExtractedData["strategy"])
	assert.Equal(t, ocr.ValidityExpired, result.ExtractedData["validity"])
	assert.NotNil(t, result.ImagePath)

	require.Len(t, f.store.saved, 1)
	for key := range f.store.saved {
		assert.True(t, strings.HasPrefix(key, "passports/user_"+userID.String()+"_"), key)
		assert.True(t, strings.HasSuffix(key, ".png"), key)
	}

	f.userRepo.AssertExpectations(t)
	f.notifSvc.AssertExpectations(t)
}

func TestProcessPassportKeepsExistingUsername(t *testing.T) {
	f := newVerificationFixture(fixedEngine{text: specimenLine1 + "\n" + specimenLine2})

	userID := uuid.New()
	username := "already-set"
	user := &models.User{ID: userID, Email: "guest@example.com", Username: &username, IsActive: true}

	f.ocrRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("SetVerificationStatus", mock.Anything, userID, models.VerificationPending).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, userID).Return(user, nil)
	f.notifSvc.On("QueueEmail", mock.Anything, &userID, "guest@example.com",
		"Document uploaded, awaiting review", mock.Anything).Return(queuedNotification(), nil)

	_, err := f.svc.ProcessPassport(context.Background(), testUpload(t, &userID))
	require.NoError(t, err)
	f.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProcessPassportRecognitionFailureStillPersists(t *testing.T) {
	f := newVerificationFixture(fixedEngine{err: errors.New("tesseract crashed")})

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "guest@example.com", IsActive: true}

	f.ocrRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *models.OCRResult) bool {
		return r.Status == models.OCRStatusFailed && r.ReviewRequired && r.ErrorMessage != nil
	})).Return(nil)
	f.userRepo.On("SetVerificationStatus", mock.Anything, userID, models.VerificationPending).Return(nil)
	f.userRepo.On("GetByID", mock.Anything, userID).Return(user, nil)
	f.notifSvc.On("QueueEmail", mock.Anything, &userID, "guest@example.com",
		mock.Anything, mock.Anything).Return(queuedNotification(), nil)

	result, err := f.svc.ProcessPassport(context.Background(), testUpload(t, &userID))
	require.NoError(t, err)
	assert.Equal(t, models.OCRStatusFailed, result.Status)
	assert.True(t, result.ReviewRequired)
	// The image is stored even when recognition fails.
	assert.Len(t, f.store.saved, 1)
	// No name was extracted, so the empty username stays empty.
	f.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.ocrRepo.AssertExpectations(t)
}

func TestProcessPassportAnonymousUpload(t *testing.T) {
	f := newVerificationFixture(fixedEngine{text: specimenLine1 + "\n" + specimenLine2})

	f.ocrRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.ProcessPassport(context.Background(), testUpload(t, nil))
	require.NoError(t, err)
	f.userRepo.AssertNotCalled(t, "SetVerificationStatus", mock.Anything, mock.Anything, mock.Anything)
	f.notifSvc.AssertNotCalled(t, "QueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDocumentRejectsUnsupportedType(t *testing.T) {
	f := newVerificationFixture(fixedEngine{text: ""})

	upload := testUpload(t, nil)
	upload.DocType = "id_card"
	_, err := f.svc.ProcessDocument(context.Background(), upload)
	assert.ErrorIs(t, err, common.ErrUnsupportedDocType)
	f.ocrRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessDocumentDefaultsToPassport(t *testing.T) {
	f := newVerificationFixture(fixedEngine{text: specimenLine1 + "\n" + specimenLine2})

	f.ocrRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *models.OCRResult) bool {
		return r.DocType == "passport"
	})).Return(nil)

	upload := testUpload(t, nil)
	upload.DocType = ""
	result, err := f.svc.ProcessDocument(context.Background(), upload)
	require.NoError(t, err)
	assert.Equal(t, "passport", result.DocType)
}
