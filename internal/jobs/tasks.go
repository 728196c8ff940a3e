package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type definitions
const (
	TypeEmailDelivery = "notification:email"
)

// Queue names
const (
	QueueNotification = "notification"
)

// EmailDeliveryPayload defines the payload for email delivery tasks. The
// notification row carries the message content, so only the id travels
// through the queue.
type EmailDeliveryPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

// NewEmailDeliveryTask creates a new email delivery task
func NewEmailDeliveryTask(notificationID uuid.UUID) (*asynq.Task, error) {
	payload := EmailDeliveryPayload{NotificationID: notificationID}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailDelivery, data,
		asynq.Queue(QueueNotification),
		asynq.MaxRetry(5),
	), nil
}
