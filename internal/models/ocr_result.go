package models

import (
	"time"

	"github.com/google/uuid"
)

// OCRStatus represents the processing state of a recognition attempt.
type OCRStatus string

const (
	OCRStatusPending OCRStatus = "pending"
	OCRStatusSuccess OCRStatus = "success"
	OCRStatusFailed  OCRStatus = "failed"
	// Set by the manual review flow when a reviewer overrides the outcome.
	OCRStatusApproved OCRStatus = "approved"
	OCRStatusRejected OCRStatus = "rejected"
)

// JSONB represents a PostgreSQL JSONB column.
type JSONB map[string]interface{}

// OCRResult records one document recognition attempt. Rows are written once
// per upload and never mutated afterwards, except for the status sync
// performed by the manual review flow.
type OCRResult struct {
	ID     uuid.UUID  `json:"id" db:"id"`
	UserID *uuid.UUID `json:"user_id" db:"user_id"`

	DocType string  `json:"doc_type" db:"doc_type"`
	Country string  `json:"country" db:"country"`
	Side    *string `json:"side" db:"side"`

	// Dates are stored as resolved ISO strings, matching how the
	// recognizer reports them.
	DocumentNumber *string `json:"document_number" db:"document_number"`
	Name           *string `json:"name" db:"name"`
	BirthDate      *string `json:"birth_date" db:"birth_date"`
	ExpiryDate     *string `json:"expiry_date" db:"expiry_date"`
	Sex            *string `json:"sex" db:"sex"`
	RecognizedText *string `json:"recognized_text" db:"recognized_text"`
	ExtractedData  JSONB   `json:"extracted_data" db:"extracted_data"`

	ConfidenceScore *float64  `json:"confidence_score" db:"confidence_score"`
	Status          OCRStatus `json:"status" db:"status"`
	ErrorMessage    *string   `json:"error_message" db:"error_message"`
	ReviewRequired  bool      `json:"review_required" db:"review_required"`

	UploadTime  time.Time  `json:"upload_time" db:"upload_time"`
	ProcessTime *time.Time `json:"process_time" db:"process_time"`
	UploaderIP  *string    `json:"uploader_ip" db:"uploader_ip"`
	ImagePath   *string    `json:"image_path" db:"image_path"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
