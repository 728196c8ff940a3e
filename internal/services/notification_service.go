package services

import (
	"context"
	"fmt"
	"log"

	"checkeasy/internal/jobs"
	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// NotificationService persists notification requests and hands delivery to
// the queue. The API responds as soon as the row exists and the task is
// enqueued.
type NotificationService interface {
	QueueEmail(ctx context.Context, userID *uuid.UUID, recipient, title, message string) (*models.Notification, error)
	Requeue(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
}

type notificationService struct {
	notifRepo repositories.NotificationRepository
	client    *asynq.Client
}

func NewNotificationService(notifRepo repositories.NotificationRepository, client *asynq.Client) NotificationService {
	return &notificationService{notifRepo: notifRepo, client: client}
}

func (s *notificationService) QueueEmail(ctx context.Context, userID *uuid.UUID, recipient, title, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Channel:   models.NotificationChannelEmail,
		Recipient: recipient,
		Status:    models.NotificationStatusPending,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	task, err := jobs.NewEmailDeliveryTask(n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to build email task: %w", err)
	}
	info, err := s.client.EnqueueContext(ctx, task)
	if err != nil {
		if markErr := s.notifRepo.MarkFailed(ctx, n.ID, err.Error(), "enqueue_error"); markErr != nil {
			log.Printf("Failed to mark notification %s failed: %v", n.ID, markErr)
		}
		return nil, fmt.Errorf("failed to enqueue email task: %w", err)
	}

	if err := s.notifRepo.SetTaskID(ctx, n.ID, info.ID); err != nil {
		log.Printf("Failed to store task id for notification %s: %v", n.ID, err)
	}
	n.TaskID = &info.ID
	return n, nil
}

// Requeue re-enqueues a pending notification whose task was lost.
func (s *notificationService) Requeue(ctx context.Context, n *models.Notification) error {
	task, err := jobs.NewEmailDeliveryTask(n.ID)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	return s.notifRepo.SetTaskID(ctx, n.ID, info.ID)
}

func (s *notificationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return s.notifRepo.GetByID(ctx, id)
}
