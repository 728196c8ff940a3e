package handlers

import (
	"errors"
	"log"
	"net/http"

	"checkeasy/internal/common"
	"checkeasy/internal/services"

	"github.com/labstack/echo/v4"
)

// OAuthHandlers handles the external identity provider flow
type OAuthHandlers struct {
	oauthService services.OAuthService
}

func NewOAuthHandlers(oauthService services.OAuthService) *OAuthHandlers {
	return &OAuthHandlers{oauthService: oauthService}
}

// Login redirects the browser to the provider's authorize endpoint
func (h *OAuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	authorizeURL, err := h.oauthService.BeginLogin(ctx)
	if err != nil {
		log.Printf("Failed to begin oauth login: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to start login")
	}
	return c.Redirect(http.StatusFound, authorizeURL)
}

// Callback completes the flow and returns a local access token
func (h *OAuthHandlers) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing authorization code")
	}

	token, err := h.oauthService.HandleCallback(ctx, code, state)
	if err != nil {
		if errors.Is(err, common.ErrInvalidOAuthState) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		log.Printf("OAuth callback failed: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "Authentication with provider failed")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}
