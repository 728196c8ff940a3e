package repositories

import (
	"context"
	"errors"
	"strings"

	"checkeasy/internal/common"
	"checkeasy/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type CheckinRepository interface {
	Create(ctx context.Context, record *models.CheckinRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CheckinRecord, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CheckinRecord, error)
	GetActiveByRoom(ctx context.Context, roomNumber string) (*models.CheckinRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CheckinRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.CheckinStatus) error
}

type checkinRepo struct {
	db DBTX
}

func NewCheckinRepo(db DBTX) CheckinRepository {
	return &checkinRepo{db: db}
}

const checkinColumns = `id, user_id, certificate_id, checkin_time, status, room_number, remarks, additional_info, created_at, updated_at`

func scanCheckin(row interface{ Scan(...any) error }) (*models.CheckinRecord, error) {
	rec := &models.CheckinRecord{}
	err := row.Scan(&rec.ID, &rec.UserID, &rec.CertificateID, &rec.CheckinTime, &rec.Status,
		&rec.RoomNumber, &rec.Remarks, &rec.AdditionalInfo, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a check-in row. Partial unique indexes on active rows make
// the insert the arbiter for concurrent check-ins, so a unique violation is
// translated into the matching domain error rather than surfaced raw.
func (r *checkinRepo) Create(ctx context.Context, record *models.CheckinRecord) error {
	query := `
		INSERT INTO checkin_records (id, user_id, certificate_id, checkin_time, status, room_number, remarks, additional_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, record.ID, record.UserID, record.CertificateID, record.CheckinTime,
		record.Status, record.RoomNumber, record.Remarks, record.AdditionalInfo)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "active_user"):
			return common.ErrActiveCheckinExists
		case strings.Contains(pgErr.ConstraintName, "active_room"):
			return common.ErrRoomOccupied
		}
	}
	return err
}

func (r *checkinRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CheckinRecord, error) {
	query := `SELECT ` + checkinColumns + ` FROM checkin_records WHERE id = $1`
	return scanCheckin(r.db.QueryRow(ctx, query, id))
}

func (r *checkinRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CheckinRecord, error) {
	query := `SELECT ` + checkinColumns + ` FROM checkin_records WHERE user_id = $1 AND status = 'checked_in'`
	return scanCheckin(r.db.QueryRow(ctx, query, userID))
}

func (r *checkinRepo) GetActiveByRoom(ctx context.Context, roomNumber string) (*models.CheckinRecord, error) {
	query := `SELECT ` + checkinColumns + ` FROM checkin_records WHERE room_number = $1 AND status = 'checked_in'`
	return scanCheckin(r.db.QueryRow(ctx, query, roomNumber))
}

func (r *checkinRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CheckinRecord, error) {
	query := `
		SELECT ` + checkinColumns + `
		FROM checkin_records
		WHERE user_id = $1
		ORDER BY checkin_time DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.CheckinRecord
	for rows.Next() {
		rec, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *checkinRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CheckinStatus) error {
	query := `UPDATE checkin_records SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}
