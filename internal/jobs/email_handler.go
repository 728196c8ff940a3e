package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/hibiken/asynq"
)

// Mailer is the delivery dependency of the email handler.
type Mailer interface {
	Send(to, subject, body string) error
}

// EmailProcessor consumes email delivery tasks and records the outcome on
// the notification row.
type EmailProcessor struct {
	notifRepo repositories.NotificationRepository
	mailer    Mailer
}

func NewEmailProcessor(notifRepo repositories.NotificationRepository, mailer Mailer) *EmailProcessor {
	return &EmailProcessor{notifRepo: notifRepo, mailer: mailer}
}

// HandleEmailDelivery handles email delivery tasks. A returned error makes
// asynq retry with its default exponential backoff; after the last retry the
// row is marked failed.
func (p *EmailProcessor) HandleEmailDelivery(ctx context.Context, t *asynq.Task) error {
	var payload EmailDeliveryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}

	n, err := p.notifRepo.GetByID(ctx, payload.NotificationID)
	if err != nil {
		return fmt.Errorf("failed to load notification %s: %w", payload.NotificationID, err)
	}
	if n.Status == models.NotificationStatusSuccess {
		log.Printf("Notification %s already delivered, skipping", n.ID)
		return nil
	}

	if err := p.mailer.Send(n.Recipient, n.Title, n.Message); err != nil {
		log.Printf("Email delivery failed for notification %s: %v", n.ID, err)
		if recordErr := p.notifRepo.IncrementRetry(ctx, n.ID); recordErr != nil {
			log.Printf("Failed to record retry for notification %s: %v", n.ID, recordErr)
		}

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried >= maxRetry {
			if markErr := p.notifRepo.MarkFailed(ctx, n.ID, err.Error(), "smtp_error"); markErr != nil {
				log.Printf("Failed to mark notification %s failed: %v", n.ID, markErr)
			}
		}
		return err
	}

	if err := p.notifRepo.MarkSent(ctx, n.ID, time.Now()); err != nil {
		log.Printf("Email sent but failed to mark notification %s: %v", n.ID, err)
	}
	log.Printf("Email delivered for notification %s to %s", n.ID, n.Recipient)
	return nil
}
