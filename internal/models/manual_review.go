package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus represents the decision state of a manual review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ManualReview binds a reviewer decision to one OCR result. There is at most
// one review per OCR result; re-submission updates the existing row.
type ManualReview struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	OCRResultID uuid.UUID    `json:"ocr_result_id" db:"ocr_result_id"`
	ReviewerID  *uuid.UUID   `json:"reviewer_id" db:"reviewer_id"`
	Status      ReviewStatus `json:"status" db:"status"`
	Remarks     *string      `json:"remarks" db:"remarks"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at" db:"reviewed_at"`
}
