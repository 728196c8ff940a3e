package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/ocr"
	"checkeasy/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CertificateChecker decides whether a user's certificate admits them.
type CertificateChecker interface {
	Validate(ctx context.Context, user *models.User, certificateID *uuid.UUID) error
}

// verificationChecker validates a supplied certificate reference against the
// user's stored verification records. No reference passes; this is a
// reserved hook for stricter policies.
type verificationChecker struct {
	ocrRepo repositories.OCRResultRepository
	now     func() time.Time
}

func NewVerificationChecker(ocrRepo repositories.OCRResultRepository) CertificateChecker {
	return &verificationChecker{ocrRepo: ocrRepo, now: time.Now}
}

func (v *verificationChecker) Validate(ctx context.Context, user *models.User, certificateID *uuid.UUID) error {
	if certificateID == nil {
		return nil
	}
	result, err := v.ocrRepo.GetByID(ctx, *certificateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrCertificateInvalid
		}
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	if result.UserID == nil || *result.UserID != user.ID {
		return common.ErrCertificateInvalid
	}
	if result.ExpiryDate != nil {
		if expiry, err := ocr.ParseDate(*result.ExpiryDate); err == nil && expiry.Before(v.now()) {
			return common.ErrCertificateInvalid
		}
	}
	return nil
}

// CheckinRequest carries one check-in attempt.
type CheckinRequest struct {
	UserID         uuid.UUID
	RoomNumber     string
	CertificateID  *uuid.UUID
	Remarks        *string
	AdditionalInfo models.JSONB
}

// CheckinService runs the eligibility gate and records check-ins.
type CheckinService interface {
	Checkin(ctx context.Context, req CheckinRequest) (*models.CheckinRecord, error)
	Checkout(ctx context.Context, userID uuid.UUID) (*models.CheckinRecord, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CheckinRecord, error)
}

type checkinService struct {
	checkinRepo repositories.CheckinRepository
	userRepo    repositories.UserRepository
	certChecker CertificateChecker
}

func NewCheckinService(checkinRepo repositories.CheckinRepository, userRepo repositories.UserRepository,
	certChecker CertificateChecker) CheckinService {
	return &checkinService{
		checkinRepo: checkinRepo,
		userRepo:    userRepo,
		certChecker: certChecker,
	}
}

// Checkin evaluates the gate in order: blacklist, account active, existing
// check-in, room availability, certificate. The read checks give early
// errors; the insert with its partial unique indexes is the arbiter under
// concurrency.
func (s *checkinService) Checkin(ctx context.Context, req CheckinRequest) (*models.CheckinRecord, error) {
	if req.RoomNumber == "" {
		return nil, fmt.Errorf("room number is required")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Blacklisted {
		return nil, common.ErrUserBlacklisted
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}

	if _, err := s.checkinRepo.GetActiveByUser(ctx, req.UserID); err == nil {
		return nil, common.ErrActiveCheckinExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check active check-in: %w", err)
	}

	if _, err := s.checkinRepo.GetActiveByRoom(ctx, req.RoomNumber); err == nil {
		return nil, common.ErrRoomOccupied
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check room availability: %w", err)
	}

	if err := s.certChecker.Validate(ctx, user, req.CertificateID); err != nil {
		return nil, err
	}

	record := &models.CheckinRecord{
		ID:             uuid.New(),
		UserID:         req.UserID,
		CertificateID:  req.CertificateID,
		CheckinTime:    time.Now(),
		Status:         models.CheckinStatusCheckedIn,
		RoomNumber:     req.RoomNumber,
		Remarks:        req.Remarks,
		AdditionalInfo: req.AdditionalInfo,
	}
	if err := s.checkinRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Checkout closes the user's active check-in.
func (s *checkinService) Checkout(ctx context.Context, userID uuid.UUID) (*models.CheckinRecord, error) {
	record, err := s.checkinRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotCheckedIn
		}
		return nil, fmt.Errorf("failed to load active check-in: %w", err)
	}
	if err := s.checkinRepo.UpdateStatus(ctx, record.ID, models.CheckinStatusCheckedOut); err != nil {
		return nil, fmt.Errorf("failed to close check-in: %w", err)
	}
	record.Status = models.CheckinStatusCheckedOut
	return record, nil
}

func (s *checkinService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CheckinRecord, error) {
	return s.checkinRepo.ListByUser(ctx, userID, limit, offset)
}
