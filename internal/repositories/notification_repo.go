package repositories

import (
	"context"
	"time"

	"checkeasy/internal/models"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason, code string) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
	ListStuckPending(ctx context.Context, olderThan time.Time, limit int) ([]*models.Notification, error)
}

type notificationRepo struct {
	db DBTX
}

func NewNotificationRepo(db DBTX) NotificationRepository {
	return &notificationRepo{db: db}
}

const notificationColumns = `id, user_id, title, message, channel, recipient, status, sent_at,
	error_reason, error_code, retry_count, task_id, created_at, updated_at`

func scanNotification(row interface{ Scan(...any) error }) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Channel, &n.Recipient, &n.Status,
		&n.SentAt, &n.ErrorReason, &n.ErrorCode, &n.RetryCount, &n.TaskID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, channel, recipient, status, retry_count, task_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.Channel, n.Recipient,
		n.Status, n.RetryCount, n.TaskID)
	return err
}

func (r *notificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return scanNotification(r.db.QueryRow(ctx, query, id))
}

func (r *notificationRepo) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	query := `UPDATE notifications SET task_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, taskID, id)
	return err
}

func (r *notificationRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE notifications
		SET status = 'success', sent_at = $1, error_reason = NULL, error_code = NULL, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, sentAt, id)
	return err
}

func (r *notificationRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason, code string) error {
	query := `
		UPDATE notifications
		SET status = 'failed', error_reason = $1, error_code = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, reason, code, id)
	return err
}

func (r *notificationRepo) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET retry_count = retry_count + 1, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// ListStuckPending returns pending notifications older than the cutoff so the
// scheduler can re-enqueue them.
func (r *notificationRepo) ListStuckPending(ctx context.Context, olderThan time.Time, limit int) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
