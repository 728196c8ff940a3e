package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReviewDecision is one reviewer verdict on an OCR result.
type ReviewDecision struct {
	OCRResultID uuid.UUID
	ReviewerID  *uuid.UUID
	Approve     bool
	Remarks     *string
}

// ReviewService applies manual review decisions. A decision updates the
// review row, the OCR result and the user's verification status in one
// transaction.
type ReviewService interface {
	Review(ctx context.Context, decision ReviewDecision) (*models.ManualReview, error)
	ListReviews(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.ManualReview, error)
	ListPendingResults(ctx context.Context, limit, offset int) ([]*models.OCRResult, error)
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type reviewService struct {
	db         TxBeginner
	ocrRepo    repositories.OCRResultRepository
	reviewRepo repositories.ManualReviewRepository
	userRepo   repositories.UserRepository
	notifSvc   NotificationService
}

func NewReviewService(db TxBeginner, ocrRepo repositories.OCRResultRepository,
	reviewRepo repositories.ManualReviewRepository, userRepo repositories.UserRepository,
	notifSvc NotificationService) ReviewService {
	return &reviewService{
		db:         db,
		ocrRepo:    ocrRepo,
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		notifSvc:   notifSvc,
	}
}

func (s *reviewService) Review(ctx context.Context, decision ReviewDecision) (*models.ManualReview, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ocrRepo := s.ocrRepo.WithTx(tx)
	reviewRepo := s.reviewRepo.WithTx(tx)
	userRepo := s.userRepo.WithTx(tx)

	result, err := ocrRepo.GetByID(ctx, decision.OCRResultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if result.Status == models.OCRStatusApproved || result.Status == models.OCRStatusRejected {
		return nil, common.ErrReviewClosed
	}

	reviewStatus := models.ReviewStatusApproved
	resultStatus := models.OCRStatusApproved
	verification := models.VerificationApproved
	if !decision.Approve {
		reviewStatus = models.ReviewStatusRejected
		resultStatus = models.OCRStatusRejected
		// A rejected user goes back to "none" so they can upload again.
		verification = models.VerificationNone
	}
	now := time.Now()

	review, err := reviewRepo.GetByOCRResultID(ctx, decision.OCRResultID)
	switch {
	case err == nil:
		if review.Status != models.ReviewStatusPending {
			return nil, common.ErrReviewClosed
		}
		review.ReviewerID = decision.ReviewerID
		review.Status = reviewStatus
		review.Remarks = decision.Remarks
		review.ReviewedAt = &now
		if err := reviewRepo.Update(ctx, review); err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		review = &models.ManualReview{
			ID:          uuid.New(),
			OCRResultID: decision.OCRResultID,
			ReviewerID:  decision.ReviewerID,
			Status:      reviewStatus,
			Remarks:     decision.Remarks,
			ReviewedAt:  &now,
		}
		if err := reviewRepo.Create(ctx, review); err != nil {
			if errors.Is(err, repositories.ErrReviewExists) {
				return nil, common.ErrReviewClosed
			}
			return nil, fmt.Errorf("failed to create review: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	if err := ocrRepo.UpdateStatus(ctx, decision.OCRResultID, resultStatus); err != nil {
		return nil, fmt.Errorf("failed to update result status: %w", err)
	}
	if result.UserID != nil {
		if err := userRepo.SetVerificationStatus(ctx, *result.UserID, verification); err != nil {
			return nil, fmt.Errorf("failed to update verification status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	if result.UserID != nil {
		s.sendDecisionEmail(ctx, *result.UserID, decision.Approve)
	}
	return review, nil
}

// sendDecisionEmail notifies the document owner after the decision has been
// committed. Email failures only log; the review itself already stands.
func (s *reviewService) sendDecisionEmail(ctx context.Context, userID uuid.UUID, approved bool) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load user %s for decision email: %v", userID, err)
		return
	}

	subject := "Document verification approved"
	body := "Your identity document has been reviewed and approved. You can now check in."
	if !approved {
		subject = "Document verification rejected"
		body = "Your identity document has been reviewed and rejected. Please upload a new document to try again."
	}
	if _, err := s.notifSvc.QueueEmail(ctx, &user.ID, user.Email, subject, body); err != nil {
		log.Printf("Failed to queue decision email for %s: %v", user.Email, err)
	}
}

func (s *reviewService) ListReviews(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.ManualReview, error) {
	return s.reviewRepo.List(ctx, status, limit, offset)
}

func (s *reviewService) ListPendingResults(ctx context.Context, limit, offset int) ([]*models.OCRResult, error) {
	return s.ocrRepo.ListPendingReview(ctx, limit, offset)
}
