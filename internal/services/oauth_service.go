package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"checkeasy/internal/caching"
	"checkeasy/internal/common"
	"checkeasy/internal/models"
	"checkeasy/internal/repositories"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// OAuthConfig carries the provider endpoints and client credentials.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
	JWKSURL      string
}

// OAuthService implements the authorization code flow against a single
// configured provider.
type OAuthService interface {
	BeginLogin(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, code, state string) (string, error)
}

type oauthService struct {
	oauth       oauth2.Config
	userInfoURL string
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
	authSvc     AuthService
	httpClient  *http.Client
	jwks        *keyfunc.JWKS
}

const oauthStateTTL = 10 * time.Minute

func NewOAuthService(cfg OAuthConfig, userRepo repositories.UserRepository,
	cacheSvc caching.CacheService, authSvc AuthService) OAuthService {
	svc := &oauthService{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
		authSvc:     authSvc,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:  time.Hour,
			RefreshRateLimit: time.Minute,
			RefreshErrorHandler: func(err error) {
				log.Printf("JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			log.Printf("JWKS unavailable, falling back to userinfo endpoint: %v", err)
		} else {
			svc.jwks = jwks
		}
	}
	return svc
}

// BeginLogin stores a single-use state value and returns the provider
// authorize URL to redirect the user to.
func (s *oauthService) BeginLogin(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.cacheSvc.SetString(ctx, "checkeasy:oauth:state:"+state, "1", oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleCallback consumes the state, exchanges the code, resolves the user's
// email and returns a local access token. The state read is atomic, so a
// replayed callback fails.
func (s *oauthService) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if state == "" {
		return "", common.ErrInvalidOAuthState
	}
	stored, err := s.cacheSvc.GetDel(ctx, "checkeasy:oauth:state:"+state)
	if err != nil {
		return "", fmt.Errorf("failed to check oauth state: %w", err)
	}
	if stored == "" {
		return "", common.ErrInvalidOAuthState
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	email, err := s.resolveEmail(ctx, token)
	if err != nil {
		return "", err
	}

	user, err := s.upsertUser(ctx, email)
	if err != nil {
		return "", err
	}
	return s.authSvc.GenerateAccessToken(user)
}

// resolveEmail prefers a verified id_token when a JWKS is configured and
// falls back to the userinfo endpoint.
func (s *oauthService) resolveEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	if s.jwks != nil {
		if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
			claims := jwt.MapClaims{}
			if _, err := jwt.ParseWithClaims(idToken, claims, s.jwks.Keyfunc); err != nil {
				return "", fmt.Errorf("id_token verification failed: %w", err)
			}
			if email, ok := claims["email"].(string); ok && email != "" {
				return email, nil
			}
			return "", errors.New("id_token carried no email claim")
		}
	}

	resp, err := s.oauth.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Email == "" {
		return "", errors.New("userinfo carried no email")
	}
	return info.Email, nil
}

// upsertUser returns the account for an externally authenticated email,
// creating an active account with an unusable password when none exists.
func (s *oauthService) upsertUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !user.IsActive {
			// The provider vouched for the email, so activate.
			if err := s.userRepo.Activate(ctx, user.ID); err != nil {
				return nil, fmt.Errorf("failed to activate user: %w", err)
			}
			user.IsActive = true
		}
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	placeholder, err := generateResetToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(placeholder), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	user = &models.User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       string(hash),
		IsActive:           true,
		VerificationStatus: models.VerificationNone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
