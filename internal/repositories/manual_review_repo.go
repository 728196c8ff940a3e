package repositories

import (
	"context"
	"errors"

	"checkeasy/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReviewExists is returned when a second review row is inserted for the
// same OCR result.
var ErrReviewExists = errors.New("review already exists for this result")

type ManualReviewRepository interface {
	Create(ctx context.Context, review *models.ManualReview) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ManualReview, error)
	GetByOCRResultID(ctx context.Context, ocrResultID uuid.UUID) (*models.ManualReview, error)
	Update(ctx context.Context, review *models.ManualReview) error
	List(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.ManualReview, error)
	WithTx(tx pgx.Tx) ManualReviewRepository
}

type manualReviewRepo struct {
	db DBTX
}

func NewManualReviewRepo(db DBTX) ManualReviewRepository {
	return &manualReviewRepo{db: db}
}

func (r *manualReviewRepo) WithTx(tx pgx.Tx) ManualReviewRepository {
	return &manualReviewRepo{db: tx}
}

const manualReviewColumns = `id, ocr_result_id, reviewer_id, status, remarks, created_at, reviewed_at`

func scanManualReview(row interface{ Scan(...any) error }) (*models.ManualReview, error) {
	review := &models.ManualReview{}
	err := row.Scan(&review.ID, &review.OCRResultID, &review.ReviewerID, &review.Status,
		&review.Remarks, &review.CreatedAt, &review.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (r *manualReviewRepo) Create(ctx context.Context, review *models.ManualReview) error {
	query := `
		INSERT INTO manual_reviews (id, ocr_result_id, reviewer_id, status, remarks, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
	`
	_, err := r.db.Exec(ctx, query, review.ID, review.OCRResultID, review.ReviewerID,
		review.Status, review.Remarks, review.ReviewedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrReviewExists
	}
	return err
}

func (r *manualReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ManualReview, error) {
	query := `SELECT ` + manualReviewColumns + ` FROM manual_reviews WHERE id = $1`
	return scanManualReview(r.db.QueryRow(ctx, query, id))
}

func (r *manualReviewRepo) GetByOCRResultID(ctx context.Context, ocrResultID uuid.UUID) (*models.ManualReview, error) {
	query := `SELECT ` + manualReviewColumns + ` FROM manual_reviews WHERE ocr_result_id = $1`
	return scanManualReview(r.db.QueryRow(ctx, query, ocrResultID))
}

func (r *manualReviewRepo) Update(ctx context.Context, review *models.ManualReview) error {
	query := `
		UPDATE manual_reviews
		SET reviewer_id = $1, status = $2, remarks = $3, reviewed_at = $4
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, review.ReviewerID, review.Status, review.Remarks,
		review.ReviewedAt, review.ID)
	return err
}

func (r *manualReviewRepo) List(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.ManualReview, error) {
	query := `
		SELECT ` + manualReviewColumns + `
		FROM manual_reviews
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.ManualReview
	for rows.Next() {
		review, err := scanManualReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
