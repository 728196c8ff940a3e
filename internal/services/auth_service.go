package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode"

	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, activation, login and password reset
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	ConfirmRegistration(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
	GenerateAccessToken(user *models.User) (string, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	notifSvc   NotificationService
	jwtSecret  []byte
	accessTTL  time.Duration
	activation time.Duration
	resetTTL   time.Duration
	baseURL    string
}

const activationTokenLength = 32

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repositories.UserRepository, notifSvc NotificationService,
	jwtSecret string, accessTokenMinutes, activationHours, resetMinutes int, baseURL string) AuthService {
	return &authService{
		userRepo:   userRepo,
		notifSvc:   notifSvc,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  time.Duration(accessTokenMinutes) * time.Minute,
		activation: time.Duration(activationHours) * time.Hour,
		resetTTL:   time.Duration(resetMinutes) * time.Minute,
		baseURL:    baseURL,
	}
}

// ValidatePasswordComplexity enforces the minimum password policy: at least
// eight characters with at least one letter and one digit.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 8 {
		return common.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return common.ErrWeakPassword
	}
	return nil
}

// Register creates an inactive account and emails an activation link. When
// the email belongs to an inactive account a fresh activation token is
// issued instead of failing, so users can retry a lost email.
func (s *authService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	if err := ValidatePasswordComplexity(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	token := random.String(activationTokenLength, random.Alphanumeric)
	expires := time.Now().Add(s.activation)

	if existing != nil {
		if existing.IsActive {
			return nil, common.ErrEmailTaken
		}
		if err := s.userRepo.SetActivationToken(ctx, existing.ID, token, expires); err != nil {
			return nil, fmt.Errorf("failed to reissue activation token: %w", err)
		}
		existing.ActivationToken = &token
		existing.ActivationExpires = &expires
		s.sendActivationEmail(ctx, existing, token)
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       string(hash),
		IsActive:           false,
		ActivationToken:    &token,
		ActivationExpires:  &expires,
		VerificationStatus: models.VerificationNone,
	}
	if username != "" {
		user.Username = &username
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendActivationEmail(ctx, user, token)
	return user, nil
}

func (s *authService) sendActivationEmail(ctx context.Context, user *models.User, token string) {
	link := fmt.Sprintf("%s/v1/auth/register/confirm?token=%s", s.baseURL, token)
	body := fmt.Sprintf("Welcome! Confirm your account by visiting <a href=%q>%s</a>. The link expires in %d hours.",
		link, link, int(s.activation.Hours()))
	if _, err := s.notifSvc.QueueEmail(ctx, &user.ID, user.Email, "Confirm your registration", body); err != nil {
		log.Printf("Failed to queue activation email for %s: %v", user.Email, err)
	}
}

// ConfirmRegistration activates the account matching an unexpired token.
func (s *authService) ConfirmRegistration(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}
	user, err := s.userRepo.GetByActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up activation token: %w", err)
	}
	if user.ActivationExpires == nil || time.Now().After(*user.ActivationExpires) {
		// A stale token is single-use: clear it so registration can
		// reissue a fresh one.
		if err := s.userRepo.ClearActivationToken(ctx, user.ID); err != nil {
			log.Printf("Failed to clear expired activation token for %s: %v", user.Email, err)
		}
		return nil, common.ErrInvalidToken
	}
	if err := s.userRepo.Activate(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	user.IsActive = true
	user.ActivationToken = nil
	user.ActivationExpires = nil
	return user, nil
}

// Login verifies credentials and returns a signed access token.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", common.ErrAccountInactive
	}
	return s.GenerateAccessToken(user)
}

// GenerateAccessToken signs a short-lived HS256 token with the user's email
// as subject.
func (s *authService) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Email,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ForgotPassword issues a reset token for the account. Unknown emails return
// nil so the endpoint does not reveal which addresses are registered.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expires := time.Now().Add(s.resetTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashToken(token), expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.baseURL, token, user.Email)
	body := fmt.Sprintf("A password reset was requested for your account. Visit <a href=%q>%s</a> to choose a new password. The link expires in %d minutes.",
		link, link, int(s.resetTTL.Minutes()))
	if _, err := s.notifSvc.QueueEmail(ctx, &user.ID, user.Email, "Reset your password", body); err != nil {
		log.Printf("Failed to queue reset email for %s: %v", user.Email, err)
	}
	return nil
}

// ResetPassword verifies the token against the stored hash for the given
// email, so a token only works for the account it was issued to.
func (s *authService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if err := ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.ResetTokenHash == nil || user.ResetExpires == nil {
		return common.ErrInvalidToken
	}
	if time.Now().After(*user.ResetExpires) {
		return common.ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(*user.ResetTokenHash), []byte(hashToken(token))) != 1 {
		return common.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// generateResetToken generates a cryptographically secure random token
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
