package services

import (
	"context"
	"testing"
	"time"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	pool       pgxmock.PgxPoolIface
	ocrRepo    *MockOCRResultRepository
	reviewRepo *MockManualReviewRepository
	userRepo   *MockUserRepository
	notifSvc   *MockNotificationService
	svc        ReviewService
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	f := &reviewFixture{
		pool:       pool,
		ocrRepo:    new(MockOCRResultRepository),
		reviewRepo: new(MockManualReviewRepository),
		userRepo:   new(MockUserRepository),
		notifSvc:   new(MockNotificationService),
	}
	f.svc = NewReviewService(pool, f.ocrRepo, f.reviewRepo, f.userRepo, f.notifSvc)
	return f
}

// expectOwner wires the post-commit owner lookup used for decision emails.
func (f *reviewFixture) expectOwner(userID uuid.UUID, email string) {
	f.userRepo.On("GetByID", mock.Anything, userID).
		Return(&models.User{ID: userID, Email: email, IsActive: true}, nil)
}

func pendingResult(userID *uuid.UUID) *models.OCRResult {
	return &models.OCRResult{
		ID:             uuid.New(),
		UserID:         userID,
		DocType:        "passport",
		Status:         models.OCRStatusSuccess,
		ReviewRequired: true,
		UploadTime:     time.Now(),
	}
}

func TestReviewApprove(t *testing.T) {
	f := newReviewFixture(t)
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	userID := uuid.New()
	result := pendingResult(&userID)
	reviewerID := uuid.New()

	f.ocrRepo.On("GetByID", mock.Anything, result.ID).Return(result, nil)
	f.reviewRepo.On("GetByOCRResultID", mock.Anything, result.ID).Return(nil, pgx.ErrNoRows)
	f.reviewRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *models.ManualReview) bool {
		return r.OCRResultID == result.ID && r.Status == models.ReviewStatusApproved && r.ReviewedAt != nil
	})).Return(nil)
	f.ocrRepo.On("UpdateStatus", mock.Anything, result.ID, models.OCRStatusApproved).Return(nil)
	f.userRepo.On("SetVerificationStatus", mock.Anything, userID, models.VerificationApproved).Return(nil)
	f.expectOwner(userID, "guest@example.com")
	f.notifSvc.On("QueueEmail", mock.Anything, &userID, "guest@example.com",
		"Document verification approved", mock.Anything).Return(queuedNotification(), nil)

	review, err := f.svc.Review(context.Background(), ReviewDecision{
		OCRResultID: result.ID,
		ReviewerID:  &reviewerID,
		Approve:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, review.Status)

	require.NoError(t, f.pool.ExpectationsWereMet())
	f.ocrRepo.AssertExpectations(t)
	f.reviewRepo.AssertExpectations(t)
	f.userRepo.AssertExpectations(t)
	f.notifSvc.AssertExpectations(t)
}

func TestReviewReject(t *testing.T) {
	f := newReviewFixture(t)
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	userID := uuid.New()
	result := pendingResult(&userID)
	remarks := "photo does not match"

	f.ocrRepo.On("GetByID", mock.Anything, result.ID).Return(result, nil)
	f.reviewRepo.On("GetByOCRResultID", mock.Anything, result.ID).Return(nil, pgx.ErrNoRows)
	f.reviewRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *models.ManualReview) bool {
		return r.Status == models.ReviewStatusRejected && r.Remarks != nil && *r.Remarks == remarks
	})).Return(nil)
	f.ocrRepo.On("UpdateStatus", mock.Anything, result.ID, models.OCRStatusRejected).Return(nil)
	// Rejection resets the owner to "none" so they can upload again.
	f.userRepo.On("SetVerificationStatus", mock.Anything, userID, models.VerificationNone).Return(nil)
	f.expectOwner(userID, "guest@example.com")
	f.notifSvc.On("QueueEmail", mock.Anything, &userID, "guest@example.com",
		"Document verification rejected", mock.Anything).Return(queuedNotification(), nil)

	review, err := f.svc.Review(context.Background(), ReviewDecision{
		OCRResultID: result.ID,
		Approve:     false,
		Remarks:     &remarks,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusRejected, review.Status)
	f.userRepo.AssertExpectations(t)
	f.notifSvc.AssertExpectations(t)
}

func TestReviewUpdatesExistingPendingReview(t *testing.T) {
	f := newReviewFixture(t)
	f.pool.ExpectBegin()
	f.pool.ExpectCommit()

	result := pendingResult(nil)
	existing := &models.ManualReview{
		ID:          uuid.New(),
		OCRResultID: result.ID,
		Status:      models.ReviewStatusPending,
	}

	f.ocrRepo.On("GetByID", mock.Anything, result.ID).Return(result, nil)
	f.reviewRepo.On("GetByOCRResultID", mock.Anything, result.ID).Return(existing, nil)
	f.reviewRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *models.ManualReview) bool {
		return r.ID == existing.ID && r.Status == models.ReviewStatusApproved
	})).Return(nil)
	f.ocrRepo.On("UpdateStatus", mock.Anything, result.ID, models.OCRStatusApproved).Return(nil)

	_, err := f.svc.Review(context.Background(), ReviewDecision{OCRResultID: result.ID, Approve: true})
	require.NoError(t, err)
	f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	// No user attached to the result, so no verification update and no email.
	f.userRepo.AssertNotCalled(t, "SetVerificationStatus", mock.Anything, mock.Anything, mock.Anything)
	f.notifSvc.AssertNotCalled(t, "QueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewAlreadyFinalized(t *testing.T) {
	f := newReviewFixture(t)
	f.pool.ExpectBegin()

	result := pendingResult(nil)
	result.Status = models.OCRStatusApproved
	f.ocrRepo.On("GetByID", mock.Anything, result.ID).Return(result, nil)

	_, err := f.svc.Review(context.Background(), ReviewDecision{OCRResultID: result.ID, Approve: false})
	assert.ErrorIs(t, err, common.ErrReviewClosed)
	f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.reviewRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewUnknownResult(t *testing.T) {
	f := newReviewFixture(t)
	f.pool.ExpectBegin()

	id := uuid.New()
	f.ocrRepo.On("GetByID", mock.Anything, id).Return(nil, pgx.ErrNoRows)

	_, err := f.svc.Review(context.Background(), ReviewDecision{OCRResultID: id, Approve: true})
	assert.ErrorIs(t, err, common.ErrResultNotFound)
}

func TestReviewLosesCreateRace(t *testing.T) {
	f := newReviewFixture(t)
	f.pool.ExpectBegin()

	result := pendingResult(nil)
	f.ocrRepo.On("GetByID", mock.Anything, result.ID).Return(result, nil)
	f.reviewRepo.On("GetByOCRResultID", mock.Anything, result.ID).Return(nil, pgx.ErrNoRows)
	f.reviewRepo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrReviewExists)

	_, err := f.svc.Review(context.Background(), ReviewDecision{OCRResultID: result.ID, Approve: true})
	assert.ErrorIs(t, err, common.ErrReviewClosed)
}
