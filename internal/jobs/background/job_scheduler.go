package background

import (
	"context"
	"log"
	"time"

	"checkeasy/internal/repositories"
	"checkeasy/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the periodic maintenance jobs of the worker process.
type JobScheduler struct {
	scheduler gocron.Scheduler
	userRepo  repositories.UserRepository
	notifRepo repositories.NotificationRepository
	notifSvc  services.NotificationService
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository,
	notifSvc services.NotificationService) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		notifSvc:  notifSvc,
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.cleanupExpiredTokens, context.Background()),
		gocron.WithName("expired-token-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create token cleanup job: %v", err)
	}

	_, err = js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.requeueStuckNotifications, context.Background()),
		gocron.WithName("stuck-notification-requeue"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create notification requeue job: %v", err)
	}
}

// cleanupExpiredTokens clears activation and reset tokens past their expiry.
func (js *JobScheduler) cleanupExpiredTokens(ctx context.Context) {
	cleared, err := js.userRepo.ClearExpiredTokens(ctx, time.Now())
	if err != nil {
		log.Printf("Token cleanup failed: %v", err)
		return
	}
	if cleared > 0 {
		log.Printf("Token cleanup cleared %d expired tokens", cleared)
	}
}

// requeueStuckNotifications re-enqueues pending notifications whose task was
// lost, for example when the queue was down at enqueue time.
func (js *JobScheduler) requeueStuckNotifications(ctx context.Context) {
	cutoff := time.Now().Add(-30 * time.Minute)
	stuck, err := js.notifRepo.ListStuckPending(ctx, cutoff, 100)
	if err != nil {
		log.Printf("Failed to list stuck notifications: %v", err)
		return
	}
	for _, n := range stuck {
		if err := js.notifSvc.Requeue(ctx, n); err != nil {
			log.Printf("Failed to requeue notification %s: %v", n.ID, err)
			continue
		}
		log.Printf("Requeued stuck notification %s", n.ID)
	}
}
