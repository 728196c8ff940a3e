package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus represents the delivery state of a notification.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSuccess NotificationStatus = "success"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationChannel represents the delivery channel.
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
)

// Notification records one notification request and its delivery outcome.
// Rows are created pending by the API process and updated by the worker
// after each send attempt.
type Notification struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	UserID      *uuid.UUID          `json:"user_id" db:"user_id"`
	Title       string              `json:"title" db:"title"`
	Message     string              `json:"message" db:"message"`
	Channel     NotificationChannel `json:"channel" db:"channel"`
	Recipient   string              `json:"recipient" db:"recipient"`
	Status      NotificationStatus  `json:"status" db:"status"`
	SentAt      *time.Time          `json:"sent_at" db:"sent_at"`
	ErrorReason *string             `json:"error_reason" db:"error_reason"`
	ErrorCode   *string             `json:"error_code" db:"error_code"`
	RetryCount  int                 `json:"retry_count" db:"retry_count"`
	TaskID      *string             `json:"task_id" db:"task_id"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}
