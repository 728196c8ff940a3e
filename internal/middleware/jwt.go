package middleware

import (
	"context"
	"net/http"

	"checkeasy/internal/common"
	"checkeasy/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig returns the echo-jwt configuration shared by all protected
// route groups. Signature and expiry checks happen here; account lookup
// happens in LoadUser.
func JWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey:    []byte(jwtSecret),
		SigningMethod: "HS256",
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}

// LoadUser resolves the verified token's subject to an account and stores
// it in the request context. Must run after the echo-jwt middleware.
func LoadUser(userRepo repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			email, ok := claims["sub"].(string)
			if !ok || email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing subject in token")
			}

			user, err := userRepo.GetByEmail(c.Request().Context(), email)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is not active")
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, user.ID)
			ctx = context.WithValue(ctx, common.UserKey, user)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireAdmin rejects requests from non-admin accounts. Must run after
// LoadUser.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := common.GetUserFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}
			if !user.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}
