package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"checkeasy/internal/caching"
	"checkeasy/internal/common"
	"checkeasy/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	cacheSvc    caching.CacheService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{authService: authService, cacheSvc: cacheSvc}
}

// Per-IP limits on the credential endpoints.
const (
	loginRateLimit          = 10
	forgotPasswordRateLimit = 5
	rateLimitWindow         = time.Minute
)

// rateLimited counts the attempt in Redis. A cache failure lets the request
// through rather than locking everyone out.
func (h *AuthHandlers) rateLimited(c echo.Context, bucket string, limit int) bool {
	key := "checkeasy:ratelimit:" + bucket + ":" + c.RealIP()
	limited, err := h.cacheSvc.IsRateLimited(c.Request().Context(), key, limit, rateLimitWindow)
	if err != nil {
		log.Printf("Rate limit check failed for %s: %v", bucket, err)
		return false
	}
	return limited
}

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register handles new account registration
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateEmail(req.Email); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Password is required")
	}

	user, err := h.authService.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, common.ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			log.Printf("Registration failed for %s: %v", req.Email, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register")
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      user.ID,
		"email":   user.Email,
		"message": "Registration accepted, check your email to confirm the account",
	})
}

// ConfirmRegistration handles the activation link from the email
func (h *AuthHandlers) ConfirmRegistration(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	user, err := h.authService.ConfirmRegistration(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		log.Printf("Registration confirmation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to confirm registration")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"email":   user.Email,
		"message": "Account activated",
	})
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}
	if h.rateLimited(c, "login", loginRateLimit) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, common.ErrAccountInactive):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			log.Printf("Login failed for %s: %v", req.Email, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
		}
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// ForgotPasswordRequest represents the forgot password payload
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword issues a password reset email. The response is the same
// whether or not the email is registered.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateEmail(req.Email); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if h.rateLimited(c, "forgot-password", forgotPasswordRateLimit) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many reset requests, try again later")
	}

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		log.Printf("Forgot password failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process request")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "If the email is registered, a reset link has been sent",
	})
}

// ResetPasswordRequest represents the reset password payload
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword completes a password reset
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email, token and new password are required")
	}

	if err := h.authService.ResetPassword(ctx, req.Email, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidToken):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, common.ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			log.Printf("Password reset failed: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset password")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password has been reset",
	})
}
