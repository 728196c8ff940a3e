package repositories

import (
	"context"

	"checkeasy/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OCRResultRepository interface {
	Create(ctx context.Context, result *models.OCRResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.OCRResult, error)
	Update(ctx context.Context, result *models.OCRResult) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OCRResult, error)
	ListPendingReview(ctx context.Context, limit, offset int) ([]*models.OCRResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OCRStatus) error
	WithTx(tx pgx.Tx) OCRResultRepository
}

type ocrResultRepo struct {
	db DBTX
}

func NewOCRResultRepo(db DBTX) OCRResultRepository {
	return &ocrResultRepo{db: db}
}

func (r *ocrResultRepo) WithTx(tx pgx.Tx) OCRResultRepository {
	return &ocrResultRepo{db: tx}
}

const ocrResultColumns = `id, user_id, doc_type, country, side, document_number, name, birth_date, expiry_date, sex,
	recognized_text, extracted_data, confidence_score, status, error_message, review_required,
	upload_time, process_time, uploader_ip, image_path, created_at, updated_at`

func scanOCRResult(row interface{ Scan(...any) error }) (*models.OCRResult, error) {
	res := &models.OCRResult{}
	err := row.Scan(&res.ID, &res.UserID, &res.DocType, &res.Country, &res.Side, &res.DocumentNumber,
		&res.Name, &res.BirthDate, &res.ExpiryDate, &res.Sex,
		&res.RecognizedText, &res.ExtractedData, &res.ConfidenceScore, &res.Status, &res.ErrorMessage,
		&res.ReviewRequired, &res.UploadTime, &res.ProcessTime, &res.UploaderIP, &res.ImagePath,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ocrResultRepo) Create(ctx context.Context, result *models.OCRResult) error {
	query := `
		INSERT INTO ocr_results (id, user_id, doc_type, country, side, document_number, name, birth_date,
			expiry_date, sex, recognized_text, extracted_data, confidence_score, status, error_message,
			review_required, upload_time, process_time, uploader_ip, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, result.ID, result.UserID, result.DocType, result.Country, result.Side,
		result.DocumentNumber, result.Name, result.BirthDate, result.ExpiryDate, result.Sex,
		result.RecognizedText, result.ExtractedData, result.ConfidenceScore, result.Status, result.ErrorMessage,
		result.ReviewRequired, result.UploadTime, result.ProcessTime, result.UploaderIP, result.ImagePath)
	return err
}

func (r *ocrResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.OCRResult, error) {
	query := `SELECT ` + ocrResultColumns + ` FROM ocr_results WHERE id = $1`
	return scanOCRResult(r.db.QueryRow(ctx, query, id))
}

func (r *ocrResultRepo) Update(ctx context.Context, result *models.OCRResult) error {
	query := `
		UPDATE ocr_results
		SET user_id = $1, document_number = $2, name = $3, birth_date = $4, expiry_date = $5, sex = $6,
			recognized_text = $7, extracted_data = $8, confidence_score = $9, status = $10,
			error_message = $11, review_required = $12, process_time = $13, updated_at = NOW()
		WHERE id = $14
	`
	_, err := r.db.Exec(ctx, query, result.UserID, result.DocumentNumber, result.Name, result.BirthDate,
		result.ExpiryDate, result.Sex, result.RecognizedText, result.ExtractedData, result.ConfidenceScore,
		result.Status, result.ErrorMessage, result.ReviewRequired, result.ProcessTime, result.ID)
	return err
}

func (r *ocrResultRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OCRResult, error) {
	query := `
		SELECT ` + ocrResultColumns + `
		FROM ocr_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *ocrResultRepo) ListPendingReview(ctx context.Context, limit, offset int) ([]*models.OCRResult, error) {
	query := `
		SELECT ` + ocrResultColumns + `
		FROM ocr_results
		WHERE review_required = TRUE AND status NOT IN ('approved', 'rejected')
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

func (r *ocrResultRepo) list(ctx context.Context, query string, args ...any) ([]*models.OCRResult, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.OCRResult
	for rows.Next() {
		res, err := scanOCRResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *ocrResultRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OCRStatus) error {
	query := `UPDATE ocr_results SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}
