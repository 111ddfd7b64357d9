package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	agencyRepository "yxplore/internal/agencies/repository"
	agencyService "yxplore/internal/agencies/service"
	agencyValidator "yxplore/internal/agencies/validator"
	"yxplore/internal/bookings/repository"
	"yxplore/internal/bookings/service"
	"yxplore/internal/bookings/validator"
	profileRepository "yxplore/internal/profiles/repository"
	profileService "yxplore/internal/profiles/service"
	profileValidator "yxplore/internal/profiles/validator"
	"yxplore/pkg/app"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/logger"

	"github.com/robfig/cron/v3"
)

const (
	JobName    = "booking-expirer"
	runTimeout = time.Minute
)

// noOffers backs the booking engine in a process that never creates bookings.
type noOffers struct{}

func (noOffers) Get(context.Context, string) (map[string]any, error) {
	return nil, apperrors.New(apperrors.CodeNotFound, "Offer lookups are not available in the expiry job", http.StatusNotFound)
}

type staleExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()

	shutdownTracing := app.InitTracing(cfg, JobName)
	publisher, closePublisher := app.NewPublisher(cfg, JobName)

	bookings := initService(cfg, publisher)

	c := cron.New()
	if _, err := c.AddFunc(cfg.ExpirySchedule, expiryJob(bookings, runTimeout, time.Now, cfg.Log)); err != nil {
		cfg.Log.Fatal("Invalid expiry schedule", "schedule", cfg.ExpirySchedule, "error", err)
	}
	c.Start()
	cfg.Log.Info("Booking expiry job scheduled", "schedule", cfg.ExpirySchedule, "batch_size", cfg.ExpiryBatchSize)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	// Stop waits for a run in progress.
	<-c.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := closePublisher(ctx); err != nil {
		cfg.Log.Error("Failed to close event publisher", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		cfg.Log.Error("Failed to shut down tracing", "error", err)
	}
	cfg.GracefulShutdown()
}

func initService(cfg *config.Config, publisher events.Publisher) service.BookingService {
	profileRepo := profileRepository.NewMongoProfileRepository(cfg)
	profiles := profileService.NewProfileService(
		profileRepo,
		profileValidator.NewProfileValidator(cfg.Log),
		publisher,
		cfg,
	)
	agencies := agencyService.NewAgencyService(
		agencyRepository.NewMongoAgencyRepository(cfg),
		profileRepo,
		agencyValidator.NewAgencyValidator(cfg.Log),
		publisher,
		cfg,
	)
	return service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		agencies,
		profiles,
		noOffers{},
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
}

// expiryJob returns one scheduled run: expire what is stale as of clock().
func expiryJob(svc staleExpirer, timeout time.Duration, clock func() time.Time, log *logger.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := clock()
		n, err := svc.ExpireStale(ctx, start.UTC())
		if err != nil {
			log.Error("Booking expiry run failed", "error", err)
			return
		}
		log.Info("Booking expiry run finished", "expired", n, "duration_ms", clock().Sub(start).Milliseconds())
	}
}
