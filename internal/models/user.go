package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the user-level aggregate outcome of document review.
type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "none"
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     *string   `json:"username" db:"username"` // filled in from the document after OCR
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	Blacklisted  bool      `json:"blacklisted" db:"blacklisted"`

	// Activation and password-reset tokens live in separate columns so an
	// in-flight reset cannot invalidate a pending activation.
	ActivationToken   *string    `json:"-" db:"activation_token"`
	ActivationExpires *time.Time `json:"-" db:"activation_expires"`
	ResetTokenHash    *string    `json:"-" db:"reset_token_hash"`
	ResetExpires      *time.Time `json:"-" db:"reset_expires"`

	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
}
