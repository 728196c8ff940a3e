package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckinStatus represents the lifecycle state of a check-in record.
type CheckinStatus string

const (
	CheckinStatusCheckedIn  CheckinStatus = "checked_in"
	CheckinStatusCheckedOut CheckinStatus = "checked_out"
	CheckinStatusCancelled  CheckinStatus = "cancelled"
)

// CheckinRecord is one hotel check-in. The database enforces at most one
// checked_in record per user and per room via partial unique indexes.
type CheckinRecord struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	UserID         uuid.UUID     `json:"user_id" db:"user_id"`
	CertificateID  *uuid.UUID    `json:"certificate_id" db:"certificate_id"`
	CheckinTime    time.Time     `json:"checkin_time" db:"checkin_time"`
	Status         CheckinStatus `json:"status" db:"status"`
	RoomNumber     string        `json:"room_number" db:"room_number"`
	Remarks        *string       `json:"remarks" db:"remarks"`
	AdditionalInfo JSONB         `json:"additional_info" db:"additional_info"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}
