package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkeasy/internal/caching"
	"checkeasy/internal/config"
	"checkeasy/internal/handlers"
	appmiddleware "checkeasy/internal/middleware"
	"checkeasy/internal/ocr"
	"checkeasy/internal/repositories"
	"checkeasy/internal/services"
	"checkeasy/pkg/database"

	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, 0)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer asynqClient.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	ocrRepo := repositories.NewOCRResultRepo(pool)
	reviewRepo := repositories.NewManualReviewRepo(pool)
	checkinRepo := repositories.NewCheckinRepo(pool)
	notifRepo := repositories.NewNotificationRepo(pool)

	// Image storage
	var imageStore services.ImageStore
	if cfg.StorageBackend == "minio" {
		imageStore, err = services.NewMinioImageStore(cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("Failed to initialize minio storage: %v", err)
		}
	} else {
		imageStore, err = services.NewLocalImageStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
	}

	// Services
	notifSvc := services.NewNotificationService(notifRepo, asynqClient)
	authSvc := services.NewAuthService(userRepo, notifSvc, cfg.JWTSecret,
		cfg.AccessTokenMinutes, cfg.ActivationTokenHrs, cfg.ResetTokenMinutes, cfg.AppBaseURL)
	oauthSvc := services.NewOAuthService(services.OAuthConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		AuthorizeURL: cfg.OAuthAuthorizeURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		JWKSURL:      cfg.OAuthJWKSURL,
	}, userRepo, cacheSvc, authSvc)
	recognizer := ocr.NewRecognizer(ocr.NewTesseractEngine(cfg.TesseractLangs), ocr.DefaultConfidenceThreshold)
	verificationSvc := services.NewVerificationService(ocrRepo, userRepo, notifSvc, imageStore, recognizer)
	reviewSvc := services.NewReviewService(pool, ocrRepo, reviewRepo, userRepo, notifSvc)
	checkinSvc := services.NewCheckinService(checkinRepo, userRepo, services.NewVerificationChecker(ocrRepo))

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, cacheSvc)
	oauthHandlers := handlers.NewOAuthHandlers(oauthSvc)
	checkinHandlers := handlers.NewCheckinHandlers(checkinSvc)
	notifHandlers := handlers.NewNotificationHandlers(notifSvc)
	verificationHandlers := handlers.NewVerificationHandlers(verificationSvc)
	reviewHandlers := handlers.NewReviewHandlers(reviewSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", healthHandlers.Health)
	e.GET("/health/ready", healthHandlers.Ready)
	e.GET("/health/detailed", healthHandlers.Detailed)

	jwtRequired := echojwt.WithConfig(appmiddleware.JWTConfig(cfg.JWTSecret))
	loadUser := appmiddleware.LoadUser(userRepo)
	adminRequired := appmiddleware.RequireAdmin()

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.GET("/register/confirm", authHandlers.ConfirmRegistration)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/forgot-password", authHandlers.ForgotPassword)
	auth.POST("/reset-password", authHandlers.ResetPassword)
	auth.GET("/oauth/login", oauthHandlers.Login)
	auth.GET("/oauth/callback", oauthHandlers.Callback)

	checkin := v1.Group("/checkin", jwtRequired, loadUser)
	checkin.POST("/checkin", checkinHandlers.Checkin)
	checkin.POST("/checkout", checkinHandlers.Checkout)
	checkin.GET("/history", checkinHandlers.History)

	notification := v1.Group("/notification", jwtRequired, loadUser)
	notification.POST("/email", notifHandlers.SendEmail)
	notification.GET("/email/:id", notifHandlers.GetStatus)

	verification := v1.Group("/verification", jwtRequired, loadUser)
	verification.POST("/ocr/upload", verificationHandlers.OCRUpload)
	verification.POST("/upload/upload_passport", verificationHandlers.UploadPassport)
	verification.GET("/ocr/results", verificationHandlers.ListResults)
	verification.GET("/ocr/results/:id", verificationHandlers.GetResult)
	verification.GET("/manual/me/verification-status", reviewHandlers.MyVerificationStatus)
	verification.POST("/manual/review", reviewHandlers.Review, adminRequired)
	verification.GET("/manual/reviews", reviewHandlers.ListReviews, adminRequired)
	verification.GET("/manual/pending", reviewHandlers.ListPendingResults, adminRequired)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
