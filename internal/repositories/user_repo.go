package repositories

import (
	"context"
	"time"

	"checkeasy/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByActivationToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetActivationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ClearActivationToken(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetVerificationStatus(ctx context.Context, id uuid.UUID, status models.VerificationStatus) error
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)
	WithTx(tx pgx.Tx) UserRepository
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx pgx.Tx) UserRepository {
	return &userRepo{db: tx}
}

const userColumns = `id, username, email, password_hash, registered_at, is_active, is_admin, blacklisted,
	activation_token, activation_expires, reset_token_hash, reset_expires, verification_status`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.RegisteredAt,
		&user.IsActive, &user.IsAdmin, &user.Blacklisted,
		&user.ActivationToken, &user.ActivationExpires, &user.ResetTokenHash, &user.ResetExpires,
		&user.VerificationStatus)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, registered_at, is_active, is_admin, blacklisted,
			activation_token, activation_expires, verification_status)
		VALUES ($1, $2, $3, $4, NOW(), $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash,
		user.IsActive, user.IsAdmin, user.Blacklisted,
		user.ActivationToken, user.ActivationExpires, user.VerificationStatus)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) GetByActivationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE activation_token = $1`
	return scanUser(r.db.QueryRow(ctx, query, token))
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, is_active = $3, is_admin = $4, blacklisted = $5, verification_status = $6
		WHERE id = $7
	`
	_, err := r.db.Exec(ctx, query, user.Username, user.Email, user.IsActive, user.IsAdmin,
		user.Blacklisted, user.VerificationStatus, user.ID)
	return err
}

func (r *userRepo) SetActivationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	query := `UPDATE users SET activation_token = $1, activation_expires = $2 WHERE id = $3`
	_, err := r.db.Exec(ctx, query, token, expires, id)
	return err
}

func (r *userRepo) ClearActivationToken(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET activation_token = NULL, activation_expires = NULL WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *userRepo) Activate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_active = TRUE, activation_token = NULL, activation_expires = NULL WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *userRepo) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	query := `UPDATE users SET reset_token_hash = $1, reset_expires = $2 WHERE id = $3`
	_, err := r.db.Exec(ctx, query, tokenHash, expires, id)
	return err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, reset_token_hash = NULL, reset_expires = NULL WHERE id = $2`
	_, err := r.db.Exec(ctx, query, passwordHash, id)
	return err
}

func (r *userRepo) SetVerificationStatus(ctx context.Context, id uuid.UUID, status models.VerificationStatus) error {
	query := `UPDATE users SET verification_status = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

// ClearExpiredTokens removes activation and reset tokens whose expiry has
// passed. Inactive users keep their row so registration can reissue a token.
func (r *userRepo) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET activation_token = NULL, activation_expires = NULL
		WHERE activation_token IS NOT NULL AND activation_expires < $1
	`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	cleared := tag.RowsAffected()

	query = `
		UPDATE users
		SET reset_token_hash = NULL, reset_expires = NULL
		WHERE reset_token_hash IS NOT NULL AND reset_expires < $1
	`
	tag, err = r.db.Exec(ctx, query, now)
	if err != nil {
		return cleared, err
	}
	return cleared + tag.RowsAffected(), nil
}
