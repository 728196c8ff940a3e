package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"checkeasy/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for testing
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=checkeasy_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestUser inserts an active user for testing and returns it.
func SetupTestUser(t *testing.T, db *TestDB, email, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	user := &models.User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       string(hash),
		RegisteredAt:       time.Now(),
		IsActive:           true,
		VerificationStatus: models.VerificationNone,
	}
	query := `
		INSERT INTO users (id, email, password_hash, registered_at, is_active, verification_status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = db.Pool.Exec(context.Background(), query, user.ID, user.Email, user.PasswordHash,
		user.RegisteredAt, user.IsActive, user.VerificationStatus)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CleanupTestUser removes a test user and its dependent rows.
func CleanupTestUser(t *testing.T, db *TestDB, userID uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	for _, query := range []string{
		`DELETE FROM checkin_records WHERE user_id = $1`,
		`DELETE FROM notifications WHERE user_id = $1`,
		`DELETE FROM manual_reviews WHERE ocr_result_id IN (SELECT id FROM ocr_results WHERE user_id = $1)`,
		`DELETE FROM ocr_results WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err := db.Pool.Exec(ctx, query, userID); err != nil {
			t.Logf("Cleanup query failed: %v", err)
		}
	}
}
