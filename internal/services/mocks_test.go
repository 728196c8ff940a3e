package services

import (
	"context"
	"fmt"
	"time"

	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// Mock repositories and services

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByActivationToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetActivationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	args := m.Called(ctx, id, token, expires)
	return args.Error(0)
}

func (m *MockUserRepository) ClearActivationToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Activate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	args := m.Called(ctx, id, tokenHash, expires)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetVerificationStatus(ctx context.Context, id uuid.UUID, status models.VerificationStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUserRepository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) WithTx(tx pgx.Tx) repositories.UserRepository {
	return m
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) QueueEmail(ctx context.Context, userID *uuid.UUID, recipient, title, message string) (*models.Notification, error) {
	args := m.Called(ctx, userID, recipient, title, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) Requeue(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

type MockCheckinRepository struct {
	mock.Mock
}

func (m *MockCheckinRepository) Create(ctx context.Context, record *models.CheckinRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCheckinRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CheckinRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CheckinRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepository) GetActiveByRoom(ctx context.Context, roomNumber string) (*models.CheckinRecord, error) {
	args := m.Called(ctx, roomNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CheckinRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*models.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CheckinStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockOCRResultRepository struct {
	mock.Mock
}

func (m *MockOCRResultRepository) Create(ctx context.Context, result *models.OCRResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockOCRResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.OCRResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OCRResult), args.Error(1)
}

func (m *MockOCRResultRepository) Update(ctx context.Context, result *models.OCRResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockOCRResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OCRResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*models.OCRResult), args.Error(1)
}

func (m *MockOCRResultRepository) ListPendingReview(ctx context.Context, limit, offset int) ([]*models.OCRResult, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.OCRResult), args.Error(1)
}

func (m *MockOCRResultRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OCRStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOCRResultRepository) WithTx(tx pgx.Tx) repositories.OCRResultRepository {
	return m
}

type MockManualReviewRepository struct {
	mock.Mock
}

func (m *MockManualReviewRepository) Create(ctx context.Context, review *models.ManualReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockManualReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ManualReview, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ManualReview), args.Error(1)
}

func (m *MockManualReviewRepository) GetByOCRResultID(ctx context.Context, ocrResultID uuid.UUID) (*models.ManualReview, error) {
	args := m.Called(ctx, ocrResultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ManualReview), args.Error(1)
}

func (m *MockManualReviewRepository) Update(ctx context.Context, review *models.ManualReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockManualReviewRepository) List(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.ManualReview, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]*models.ManualReview), args.Error(1)
}

func (m *MockManualReviewRepository) WithTx(tx pgx.Tx) repositories.ManualReviewRepository {
	return m
}

// fakeImageStore keeps uploads in memory.
type fakeImageStore struct {
	saved map[string][]byte
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{saved: map[string][]byte{}}
}

func (f *fakeImageStore) Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	f.saved[objectName] = data
	return "mem://" + objectName, nil
}

func (f *fakeImageStore) Load(ctx context.Context, path string) ([]byte, error) {
	data, ok := f.saved[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return data, nil
}
