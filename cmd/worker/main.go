package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"checkeasy/internal/config"
	"checkeasy/internal/jobs"
	"checkeasy/internal/jobs/background"
	"checkeasy/internal/repositories"
	"checkeasy/internal/services"
	"checkeasy/pkg/database"

	"github.com/hibiken/asynq"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	userRepo := repositories.NewUserRepo(pool)
	notifRepo := repositories.NewNotificationRepo(pool)

	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	processor := jobs.NewEmailProcessor(notifRepo, mailer)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	notifSvc := services.NewNotificationService(notifRepo, asynqClient)

	scheduler := background.NewJobScheduler(userRepo, notifRepo, notifSvc)
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
	}()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			jobs.QueueNotification: 10,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeEmailDelivery, processor.HandleEmailDelivery)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("Worker stopped: %v", err)
		}
	}()
	log.Println("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	srv.Shutdown()
}
